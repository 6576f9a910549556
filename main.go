package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"receptionist/config"
	"receptionist/database"
	clinicRepo "receptionist/database/repository/clinic"
	"receptionist/handlers"
	"receptionist/middleware"
	"receptionist/routes"
	"receptionist/services/allocator"
	"receptionist/services/conversation"
	"receptionist/services/flow"
	"receptionist/services/nlu"
	"receptionist/services/pipeline"
	"receptionist/services/session"
	"receptionist/services/telephony"
	"receptionist/services/transcribe"
	"receptionist/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitRedis()
	utils.StartHealthMonitor(utils.GetConversationCacheClient(), database.MongoClient)

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// repositories.
	clinic := clinicRepo.NewMongoClinicRepo()

	// services.
	alloc := allocator.New(clinic)

	geminiClient, err := nlu.NewGeminiClient(config.AppConfig.GeminiAPIKey, config.AppConfig.GeminiModel)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize gemini client: %v", err)
	}
	extractor := nlu.NewGeminiExtractor(geminiClient)
	replier := nlu.NewGeminiReplier(geminiClient)

	engine := flow.NewEngine(clinic, alloc, extractor)

	convoStore := conversation.NewRedisStore(utils.GetConversationCacheClient(), 2*time.Hour)

	transcriber := &transcribe.GoogleTranscriber{
		CredentialsFile: config.AppConfig.GoogleServiceAccountFile,
		MaxAttempts:     config.AppConfig.STTMaxAttempts,
		Backoff:         time.Duration(config.AppConfig.STTBackoffMillis) * time.Millisecond,
		Timeout:         time.Duration(config.AppConfig.STTTimeoutSeconds) * time.Second,
	}

	streamURL := "wss://" + strings.TrimPrefix(strings.TrimPrefix(config.AppConfig.PublicHost, "https://"), "wss://") + "/media-stream"
	bridge := telephony.NewTwilioBridge(
		config.AppConfig.TwilioAccountSID,
		config.AppConfig.TwilioAuthToken,
		config.AppConfig.TwilioVoice,
		streamURL,
	)

	pipe := pipeline.New(transcriber, convoStore, engine, replier, bridge)

	registry := session.NewRegistry(config.AppConfig.MinUtteranceBytes)
	segmenter := session.NewSegmenter(session.SegmenterConfig{
		SilenceFrames:     config.AppConfig.SilenceFrames,
		MinUtteranceBytes: config.AppConfig.MinUtteranceBytes,
		MaxBufferBytes:    config.AppConfig.MaxBufferBytes,
	})
	dispatcher := session.NewDispatcher(config.AppConfig.PipelineWorkers, pipe.HandleUtterance)
	pipe.SetResubmit(dispatcher.Submit)

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		ClinicRepo:          clinic,
		VoiceWebhookHandler: handlers.NewVoiceWebhookHandler(config.AppConfig.TwilioVoice, streamURL),
		MediaStreamHandler:  handlers.NewMediaStreamHandler(registry, segmenter, dispatcher),
		ListDoctorsHandler:  handlers.NewListDoctorsHandler(clinic),
		AvailabilityHandler: handlers.NewAvailabilityHandler(clinic),
	}

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	dispatcher.Shutdown()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
