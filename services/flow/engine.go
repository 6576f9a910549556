package flow

import (
	"context"
	"errors"
	"strings"
	"time"

	clinicRepo "receptionist/database/repository/clinic"
	"receptionist/models"
	"receptionist/services/allocator"
	"receptionist/services/nlu"
	"receptionist/utils"

	"go.uber.org/zap"
)

const suggestionWindowDays = 7

// Engine drives the booking conversation. Process consumes exactly one caller
// utterance and produces exactly one structured outcome; all wording is left
// to the renderer and all slot mutation to the allocator.
type Engine struct {
	repo      clinicRepo.Repository
	alloc     *allocator.Allocator
	extractor nlu.FactExtractor
	pending   *PendingStore

	// now is swappable for date-word resolution in tests.
	now func() time.Time
}

func NewEngine(repo clinicRepo.Repository, alloc *allocator.Allocator, extractor nlu.FactExtractor) *Engine {
	return &Engine{
		repo:      repo,
		alloc:     alloc,
		extractor: extractor,
		pending:   NewPendingStore(),
		now:       time.Now,
	}
}

// Pending exposes the per-call state store so the call lifecycle can clear it
// on hangup.
func (e *Engine) Pending() *PendingStore { return e.pending }

// Process applies the rule ladder to one utterance. summary is the bounded
// recent-transcript window, lastAssistantText the previous assistant turn.
func (e *Engine) Process(ctx context.Context, callID, callerPhone, userText string, summary []string, lastAssistantText string) models.Outcome {
	userText = normalizeTypos(strings.TrimSpace(userText))
	if userText == "" {
		return models.OutcomeOf(models.OutcomeNone)
	}
	lower := strings.ToLower(userText)
	state := e.pending.Get(callID)

	if state != nil && state.HasAnyPending() && isAbortRequest(lower) {
		e.pending.Clear(callID)
		return models.OutcomeOf(models.OutcomeAbortBooking)
	}

	if wantsEndCall(lower) || isFarewellAfterOffer(lower, lastAssistantText) {
		e.pending.Clear(callID)
		return models.OutcomeOf(models.OutcomeGoodbye)
	}

	if state != nil {
		if out, handled := e.handleConfirmation(ctx, callID, callerPhone, userText, state); handled {
			return out
		}
		if out, handled := e.handleOtherDates(ctx, lower, state); handled {
			return out
		}
	}

	if nlu.IsUnclearText(userText) {
		return models.OutcomeOf(models.OutcomeClarify)
	}

	doctors, err := e.repo.GetActiveDoctors(ctx)
	if err != nil {
		utils.GetLogger().Error("doctor roster lookup failed", zap.Error(err))
		doctors = nil
	}

	facts := e.extractFacts(ctx, userText, summary, doctors)

	if facts.IsGeneralQuestion && state != nil && state.HasAnyPending() {
		return models.OutcomeMsg(models.MsgReturnToFlow)
	}

	switch facts.Intent {
	case "list_doctors":
		return e.listDoctors(ctx)
	case "cancel":
		return e.startCancel(ctx, callID, callerPhone)
	case "reschedule":
		return e.startReschedule(ctx, callID, callerPhone, lower, facts, doctors)
	case "check_appointments":
		return e.checkAppointments(ctx, callerPhone, doctors)
	case "book", "ask_availability":
		return e.handleBooking(ctx, callID, lower, facts, doctors)
	}

	if out, handled := e.continueReschedule(ctx, facts, state); handled {
		return out
	}

	if out, handled := e.mergeDetails(ctx, facts, state); handled {
		return out
	}

	if state != nil && state.HasAnyPending() {
		return models.OutcomeOf(models.OutcomeClarify)
	}
	return models.OutcomeOf(models.OutcomeNone)
}

func (e *Engine) extractFacts(ctx context.Context, userText string, summary []string, doctors []models.Doctor) models.ExtractedFacts {
	facts, err := e.extractor.Extract(ctx, userText, summary, doctors)
	if err != nil {
		utils.GetLogger().Warn("fact extraction degraded to empty facts", zap.Error(err))
		return models.ExtractedFacts{Intent: "none"}
	}
	return facts
}

// handleConfirmation answers a yes/no while one of the three confirm gates is
// open. UNKNOWN falls through to the normal ladder so the utterance is read
// as a fresh request rather than force-fitted into yes or no.
func (e *Engine) handleConfirmation(ctx context.Context, callID, callerPhone, userText string, state *models.PendingBooking) (models.Outcome, bool) {
	verdict := nlu.ClassifyYesNo(userText)

	// A completed booking answers a repeated yes with the recorded result
	// instead of allocating again.
	if state.BookingLocked {
		if verdict == models.YesNoYes {
			return e.finalizeBooking(ctx, callID, callerPhone, state), true
		}
		return models.Outcome{}, false
	}

	if !state.AwaitingConfirmBook && !state.AwaitingConfirmCancel && !state.AwaitingConfirmReschedule {
		return models.Outcome{}, false
	}

	switch {
	case state.AwaitingConfirmBook:
		if verdict == models.YesNoYes {
			intents := nlu.ClassifyIntents(userText, true)
			if nlu.ShouldDeferConfirmation(intents) {
				// Park the confirmation and act on the strongest member of
				// the conflicted utterance.
				switch nlu.Resolve(intents) {
				case models.IntentChangeDoctor:
					state.ClearConfirmFlags()
					return e.listDoctors(ctx), true
				default:
					return e.answerDoctorInfo(ctx, state), true
				}
			}
			if !nlu.IsBookingAllowed(intents) {
				return models.OutcomeOf(models.OutcomeClarify), true
			}
			return e.finalizeBooking(ctx, callID, callerPhone, state), true
		}
		if verdict == models.YesNoNo {
			state.ClearConfirmFlags()
			return models.OutcomeMsg(models.MsgDifferentTime), true
		}

	case state.AwaitingConfirmCancel:
		if verdict == models.YesNoYes {
			if err := e.alloc.Cancel(ctx, callerPhone); err != nil {
				if errors.Is(err, allocator.ErrNoAppointment) {
					e.pending.Clear(callID)
					return models.OutcomeOf(models.OutcomeNoAppointments), true
				}
				utils.GetLogger().Error("cancel failed", zap.String("callId", callID), zap.Error(err))
				// The gate stays open so another yes retries the cancel.
				return models.OutcomeMsg(models.MsgCouldntCancel), true
			}
			e.pending.Clear(callID)
			return models.OutcomeOf(models.OutcomeCancelled), true
		}
		if verdict == models.YesNoNo {
			state.ClearConfirmFlags()
			return models.OutcomeMsg(models.MsgKeptAppointment), true
		}

	case state.AwaitingConfirmReschedule:
		if verdict == models.YesNoYes {
			ref := models.SlotRef{
				DoctorKey: state.RescheduleDoctorKey,
				Date:      state.RescheduleDate,
				Time:      state.RescheduleTime,
			}
			moved, err := e.alloc.Reschedule(ctx, callerPhone, ref)
			if err != nil {
				switch {
				case errors.Is(err, allocator.ErrSlotUnavailable):
					// Drop the dead target but keep the reschedule open so
					// the caller can just name another time.
					state.AwaitingConfirmReschedule = false
					state.RescheduleDate = ""
					state.RescheduleTime = ""
					return models.OutcomeOf(models.OutcomeSlotUnavailable), true
				case errors.Is(err, allocator.ErrNoAppointment):
					e.pending.Clear(callID)
					return models.OutcomeOf(models.OutcomeNoAppointments), true
				}
				utils.GetLogger().Error("reschedule failed", zap.String("callId", callID), zap.Error(err))
				return models.OutcomeMsg(models.MsgTryAgainDetails), true
			}
			e.pending.Clear(callID)
			out := models.OutcomeOf(models.OutcomeRescheduled)
			out.DoctorKey = moved.DoctorKey
			out.Date = moved.Date
			out.Time = moved.Time
			if d, derr := e.repo.GetDoctorByKey(ctx, moved.DoctorKey); derr == nil {
				out.DoctorName = d.Name
			}
			return out, true
		}
		if verdict == models.YesNoNo {
			state.ClearConfirmFlags()
			state.RescheduleDoctorKey = ""
			state.RescheduleDate = ""
			state.RescheduleTime = ""
			return models.OutcomeMsg(models.MsgKeptAppointment), true
		}
	}

	// UNKNOWN keeps the gate open and lets the utterance be read fresh.
	return models.Outcome{}, false
}

func (e *Engine) finalizeBooking(ctx context.Context, callID, callerPhone string, state *models.PendingBooking) models.Outcome {
	appt, err := e.alloc.Finalize(ctx, state, callerPhone)
	if err != nil {
		if errors.Is(err, allocator.ErrSlotUnavailable) {
			state.ClearConfirmFlags()
			return models.OutcomeOf(models.OutcomeSlotUnavailable)
		}
		utils.GetLogger().Error("finalize failed", zap.String("callId", callID), zap.Error(err))
		state.ClearConfirmFlags()
		return models.OutcomeMsg(models.MsgTryAgainDetails)
	}

	state.BookingLocked = true
	state.BookingCompleted = true
	state.AppointmentID = appt.ID
	state.AwaitingConfirmBook = false

	out := models.OutcomeOf(models.OutcomeConfirmed)
	out.DoctorKey = appt.DoctorKey
	out.Date = appt.Date
	out.Time = appt.Time
	if d, derr := e.repo.GetDoctorByKey(ctx, appt.DoctorKey); derr == nil {
		out.DoctorName = d.Name
	}
	return out
}

func (e *Engine) listDoctors(ctx context.Context) models.Outcome {
	doctors, err := e.repo.GetActiveDoctors(ctx)
	if err != nil {
		utils.GetLogger().Error("doctor roster lookup failed", zap.Error(err))
		doctors = nil
	}
	if len(doctors) == 0 {
		return models.OutcomeMsg(models.MsgNoDoctorsAvailable)
	}
	return models.Outcome{Kind: models.OutcomeListDoctors, Doctors: doctors}
}

// answerDoctorInfo parks an open confirmation and answers "tell me about the
// doctor first". The confirm gate stays set.
func (e *Engine) answerDoctorInfo(ctx context.Context, state *models.PendingBooking) models.Outcome {
	key := state.DoctorKey
	if key == "" {
		key = state.LastSuggestedDoctorKey
	}
	d, err := e.repo.GetDoctorByKey(ctx, key)
	if err != nil {
		return models.OutcomeMsg(models.MsgWhichDoctor)
	}
	return models.Outcome{
		Kind:           models.OutcomeSuggestDoctor,
		DoctorKey:      d.Key,
		DoctorName:     d.Name,
		Specialization: d.Specialization,
	}
}

func (e *Engine) handleOtherDates(ctx context.Context, lower string, state *models.PendingBooking) (models.Outcome, bool) {
	if state.LastSuggestedDoctorKey == "" || !isOtherDatesRequest(lower) {
		return models.Outcome{}, false
	}

	from := e.now().Format("2006-01-02")
	to := e.now().AddDate(0, 0, suggestionWindowDays).Format("2006-01-02")
	slots, err := e.repo.AvailableSlotsByDoctor(ctx, state.LastSuggestedDoctorKey, from, to)
	if err != nil {
		utils.GetLogger().Error("availability lookup failed",
			zap.String("doctor", state.LastSuggestedDoctorKey), zap.Error(err))
		return models.OutcomeMsg(models.MsgDoctorNoAvailability), true
	}

	seen := map[string]bool{}
	var dates []string
	for _, s := range slots {
		if s.Date == state.LastSuggestedDate || seen[s.Date] {
			continue
		}
		seen[s.Date] = true
		dates = append(dates, s.Date)
	}
	if len(dates) == 0 {
		return models.OutcomeMsg(models.MsgNoOtherDates), true
	}
	d, _ := e.repo.GetDoctorByKey(ctx, state.LastSuggestedDoctorKey)
	out := models.Outcome{Kind: models.OutcomeOfferOtherDates, DoctorKey: state.LastSuggestedDoctorKey, Dates: dates}
	if d != nil {
		out.DoctorName = d.Name
	}
	return out, true
}

func (e *Engine) startCancel(ctx context.Context, callID, callerPhone string) models.Outcome {
	appt, err := e.repo.ActiveAppointmentByCaller(ctx, callerPhone)
	if err != nil {
		if errors.Is(err, clinicRepo.ErrNotFound) {
			return models.OutcomeOf(models.OutcomeNoAppointments)
		}
		utils.GetLogger().Error("appointment lookup failed", zap.Error(err))
		return models.OutcomeMsg(models.MsgTryAgainDetails)
	}

	state := e.pending.GetOrCreate(callID)
	state.ClearConfirmFlags()
	state.AwaitingNamePhone = false
	state.AwaitingConfirmCancel = true

	out := models.Outcome{Kind: models.OutcomeConfirmCancel, DoctorKey: appt.DoctorKey, Date: appt.Date, Time: appt.Time}
	if d, derr := e.repo.GetDoctorByKey(ctx, appt.DoctorKey); derr == nil {
		out.DoctorName = d.Name
	}
	return out
}

func (e *Engine) startReschedule(ctx context.Context, callID, callerPhone, lower string, facts models.ExtractedFacts, doctors []models.Doctor) models.Outcome {
	appt, err := e.repo.ActiveAppointmentByCaller(ctx, callerPhone)
	if err != nil {
		if errors.Is(err, clinicRepo.ErrNotFound) {
			return models.OutcomeOf(models.OutcomeNoAppointments)
		}
		utils.GetLogger().Error("appointment lookup failed", zap.Error(err))
		return models.OutcomeMsg(models.MsgTryAgainDetails)
	}

	doctorKey := facts.DoctorKey
	if doctorKey == "" {
		doctorKey = resolveDoctorKey(lower, doctors)
	}
	if doctorKey == "" {
		// Moving within the same doctor unless another was named.
		doctorKey = appt.DoctorKey
	}
	date := NormalizeDate(facts.Date, e.now())
	t := NormalizeTime(facts.Time)
	if date == "" || t == "" {
		return models.OutcomeMsg(models.MsgAskNewSlot)
	}

	// Asking to move onto the slot already held is answered with the
	// existing appointment, not a failed claim on a booked slot.
	if doctorKey == appt.DoctorKey && date == appt.Date && SameClockTime(t, appt.Time) {
		out := models.Outcome{
			Kind:       models.OutcomeMessage,
			MessageKey: models.MsgHaveAppointment,
			DoctorKey:  appt.DoctorKey,
			Date:       appt.Date,
			Time:       appt.Time,
		}
		if d, derr := e.repo.GetDoctorByKey(ctx, appt.DoctorKey); derr == nil {
			out.DoctorName = d.Name
		}
		return out
	}

	ref := models.SlotRef{DoctorKey: doctorKey, Date: date, Time: t}
	if _, err := e.alloc.TryReserve(ctx, ref); err != nil {
		if errors.Is(err, allocator.ErrSlotUnavailable) {
			return models.OutcomeOf(models.OutcomeSlotUnavailable)
		}
		utils.GetLogger().Error("slot pre-check failed", zap.Error(err))
		return models.OutcomeMsg(models.MsgTryAgainDetails)
	}

	state := e.pending.GetOrCreate(callID)
	state.ClearConfirmFlags()
	state.AwaitingNamePhone = false
	state.RescheduleDoctorKey = doctorKey
	state.RescheduleDate = date
	state.RescheduleTime = t
	state.AwaitingConfirmReschedule = true

	out := models.Outcome{Kind: models.OutcomeConfirmResched, DoctorKey: doctorKey, Date: date, Time: t}
	if d, derr := e.repo.GetDoctorByKey(ctx, doctorKey); derr == nil {
		out.DoctorName = d.Name
	}
	return out
}

// continueReschedule picks up an open reschedule whose last target fell
// through: the caller names another date or time without restating the whole
// request. The retained doctor key marks the reschedule as still open.
func (e *Engine) continueReschedule(ctx context.Context, facts models.ExtractedFacts, state *models.PendingBooking) (models.Outcome, bool) {
	if state == nil || state.RescheduleDoctorKey == "" || state.AwaitingConfirmReschedule {
		return models.Outcome{}, false
	}
	date := NormalizeDate(facts.Date, e.now())
	t := NormalizeTime(facts.Time)
	if date == "" && t == "" {
		return models.Outcome{}, false
	}
	if date == "" {
		date = state.RescheduleDate
	}
	if t == "" {
		t = state.RescheduleTime
	}
	if date == "" || t == "" {
		return models.OutcomeMsg(models.MsgAskNewSlot), true
	}

	ref := models.SlotRef{DoctorKey: state.RescheduleDoctorKey, Date: date, Time: t}
	if _, err := e.alloc.TryReserve(ctx, ref); err != nil {
		if errors.Is(err, allocator.ErrSlotUnavailable) {
			return models.OutcomeOf(models.OutcomeSlotUnavailable), true
		}
		utils.GetLogger().Error("slot pre-check failed", zap.Error(err))
		return models.OutcomeMsg(models.MsgTryAgainDetails), true
	}

	state.RescheduleDate = date
	state.RescheduleTime = t
	state.AwaitingConfirmReschedule = true

	out := models.Outcome{Kind: models.OutcomeConfirmResched, DoctorKey: ref.DoctorKey, Date: date, Time: t}
	if d, derr := e.repo.GetDoctorByKey(ctx, ref.DoctorKey); derr == nil {
		out.DoctorName = d.Name
	}
	return out, true
}

func (e *Engine) checkAppointments(ctx context.Context, callerPhone string, doctors []models.Doctor) models.Outcome {
	appt, err := e.repo.ActiveAppointmentByCaller(ctx, callerPhone)
	if err != nil {
		if errors.Is(err, clinicRepo.ErrNotFound) {
			return models.OutcomeOf(models.OutcomeNoAppointments)
		}
		utils.GetLogger().Error("appointment lookup failed", zap.Error(err))
		return models.OutcomeMsg(models.MsgTryAgainDetails)
	}
	out := models.Outcome{
		Kind:       models.OutcomeMessage,
		MessageKey: models.MsgHaveAppointment,
		DoctorKey:  appt.DoctorKey,
		Date:       appt.Date,
		Time:       appt.Time,
	}
	if d := doctorByKey(doctors, appt.DoctorKey); d != nil {
		out.DoctorName = d.Name
	}
	return out
}

// handleBooking serves both a direct booking request and a plain availability
// question. A fully specified request (doctor, date, time, name, phone) goes
// straight to the confirm gate; partial requests collect what is missing.
func (e *Engine) handleBooking(ctx context.Context, callID, lower string, facts models.ExtractedFacts, doctors []models.Doctor) models.Outcome {
	if len(doctors) == 0 {
		return models.OutcomeMsg(models.MsgNoDoctorsAvailable)
	}

	doctorKey := facts.DoctorKey
	if doctorKey == "" {
		doctorKey = resolveDoctorKey(lower, doctors)
	}
	if doctorKey == "" {
		return models.OutcomeMsg(models.MsgWhichDoctor)
	}
	if doctorByKey(doctors, doctorKey) == nil {
		return models.OutcomeMsg(models.MsgWhichDoctor)
	}

	date := NormalizeDate(facts.Date, e.now())
	t := NormalizeTime(facts.Time)

	state := e.pending.GetOrCreate(callID)
	mergeNamePhone(state, facts)

	if date != "" && t != "" {
		ref := models.SlotRef{DoctorKey: doctorKey, Date: date, Time: t}
		if _, err := e.alloc.TryReserve(ctx, ref); err != nil {
			if errors.Is(err, allocator.ErrSlotUnavailable) {
				return e.suggestNearestSlot(ctx, callID, doctorKey)
			}
			utils.GetLogger().Error("slot pre-check failed", zap.Error(err))
			return models.OutcomeMsg(models.MsgTryAgainDetails)
		}
		state.DoctorKey = doctorKey
		state.Date = date
		state.Time = t
		state.LastSuggestedDoctorKey = doctorKey
		state.LastSuggestedDate = date
		state.LastSuggestedTime = t
		return e.advanceBooking(ctx, state)
	}

	return e.suggestNearestSlot(ctx, callID, doctorKey)
}

// advanceBooking moves a pending record with a chosen slot to the next stage:
// ask for missing name/phone, or open the confirm-book gate.
func (e *Engine) advanceBooking(ctx context.Context, state *models.PendingBooking) models.Outcome {
	if state.PatientName == "" || state.PatientPhone == "" {
		state.ClearConfirmFlags()
		state.AwaitingNamePhone = true
		return models.Outcome{Kind: models.OutcomeAskNamePhone, DoctorKey: state.DoctorKey, Date: state.Date, Time: state.Time}
	}

	state.AwaitingNamePhone = false
	state.ClearConfirmFlags()
	state.AwaitingConfirmBook = true

	out := models.Outcome{Kind: models.OutcomeConfirmBooking, DoctorKey: state.DoctorKey, Date: state.Date, Time: state.Time}
	if d, err := e.repo.GetDoctorByKey(ctx, state.DoctorKey); err == nil {
		out.DoctorName = d.Name
	}
	return out
}

func (e *Engine) suggestNearestSlot(ctx context.Context, callID, doctorKey string) models.Outcome {
	from := e.now().Format("2006-01-02")
	to := e.now().AddDate(0, 0, suggestionWindowDays).Format("2006-01-02")
	slots, err := e.repo.AvailableSlotsByDoctor(ctx, doctorKey, from, to)
	if err != nil {
		utils.GetLogger().Error("availability lookup failed", zap.String("doctor", doctorKey), zap.Error(err))
		return models.OutcomeMsg(models.MsgDoctorNoAvailability)
	}
	if len(slots) == 0 {
		return models.OutcomeMsg(models.MsgDoctorNoAvailability)
	}

	s := slots[0]
	state := e.pending.GetOrCreate(callID)
	state.LastSuggestedDoctorKey = doctorKey
	state.LastSuggestedDate = s.Date
	state.LastSuggestedTime = s.StartTime

	out := models.Outcome{Kind: models.OutcomeSuggestSlot, DoctorKey: doctorKey, Date: s.Date, Time: s.StartTime}
	if d, derr := e.repo.GetDoctorByKey(ctx, doctorKey); derr == nil {
		out.DoctorName = d.Name
	}
	return out
}

// mergeDetails handles an utterance that supplies name/phone (or accepts the
// last suggested slot) without a fresh intent of its own.
func (e *Engine) mergeDetails(ctx context.Context, facts models.ExtractedFacts, state *models.PendingBooking) (models.Outcome, bool) {
	if state == nil {
		return models.Outcome{}, false
	}
	if facts.PatientName == "" && facts.PatientPhone == "" {
		return models.Outcome{}, false
	}
	mergeNamePhone(state, facts)

	// The slot being detailed is either the one already pending or the last
	// one spoken to the caller.
	if state.DoctorKey == "" && state.LastSuggestedDoctorKey != "" {
		state.DoctorKey = state.LastSuggestedDoctorKey
		state.Date = state.LastSuggestedDate
		state.Time = state.LastSuggestedTime
	}
	if state.DoctorKey == "" || state.Date == "" || state.Time == "" {
		return models.Outcome{}, false
	}

	ref := models.SlotRef{DoctorKey: state.DoctorKey, Date: state.Date, Time: state.Time}
	if _, err := e.alloc.TryReserve(ctx, ref); err != nil {
		if errors.Is(err, allocator.ErrSlotUnavailable) {
			return models.OutcomeOf(models.OutcomeSlotUnavailable), true
		}
		utils.GetLogger().Error("slot pre-check failed", zap.Error(err))
		return models.OutcomeMsg(models.MsgTryAgainDetails), true
	}

	return e.advanceBooking(ctx, state), true
}

func mergeNamePhone(state *models.PendingBooking, facts models.ExtractedFacts) {
	if facts.PatientName != "" {
		state.PatientName = facts.PatientName
	}
	if facts.PatientPhone != "" {
		state.PatientPhone = facts.PatientPhone
	}
}
