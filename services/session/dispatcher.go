package session

import (
	"context"
	"sync"

	"receptionist/utils"

	"go.uber.org/zap"
)

// UtteranceHandler processes one complete utterance for a call. It must call
// the session's FinishProcessing exactly once on every path.
type UtteranceHandler func(ctx context.Context, s *CallSession, audio []byte)

type job struct {
	session *CallSession
	audio   []byte
}

// Dispatcher fans utterances out to a bounded worker pool so transcription of
// one call never blocks the media loop of another.
type Dispatcher struct {
	handler UtteranceHandler
	jobs    chan job
	wg      sync.WaitGroup
	cancel  context.CancelFunc
	once    sync.Once
}

func NewDispatcher(workers int, handler UtteranceHandler) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		handler: handler,
		jobs:    make(chan job, workers*4),
		cancel:  cancel,
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.work(ctx)
	}
	return d
}

// Submit queues an utterance. A full queue drops the job and releases the
// session's gate so the call does not wedge; the caller hears nothing and
// speaks again.
func (d *Dispatcher) Submit(s *CallSession, audio []byte) {
	select {
	case d.jobs <- job{session: s, audio: audio}:
	default:
		utils.GetLogger().Warn("utterance queue full, dropping",
			zap.String("streamSid", s.StreamSid), zap.Int("bytes", len(audio)))
		if leftover, again := s.FinishProcessing(); again {
			d.Submit(s, leftover)
		}
	}
}

func (d *Dispatcher) work(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-d.jobs:
			d.handler(ctx, j.session, j.audio)
		}
	}
}

// Shutdown stops the workers. Queued jobs are abandoned.
func (d *Dispatcher) Shutdown() {
	d.once.Do(func() {
		d.cancel()
		d.wg.Wait()
	})
}
