package clinicRepo

import (
	"context"
	"sort"
	"sync"

	"receptionist/models"
)

// MemoryClinicRepo is an in-memory Repository used in tests and local runs
// without a database. All methods are safe for concurrent use.
type MemoryClinicRepo struct {
	mu           sync.Mutex
	doctors      []models.Doctor
	slots        map[string]*models.AppointmentSlot // by slot id
	appointments map[string]*models.Appointment     // by appointment id
	apptOrder    []string                           // insertion order, for "most recent"
}

func NewMemoryClinicRepo() *MemoryClinicRepo {
	return &MemoryClinicRepo{
		slots:        make(map[string]*models.AppointmentSlot),
		appointments: make(map[string]*models.Appointment),
	}
}

// AddDoctor seeds a doctor.
func (r *MemoryClinicRepo) AddDoctor(d models.Doctor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.doctors = append(r.doctors, d)
}

// AddSlot seeds a slot.
func (r *MemoryClinicRepo) AddSlot(s models.AppointmentSlot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := s
	r.slots[s.ID] = &cp
}

func (r *MemoryClinicRepo) GetActiveDoctors(ctx context.Context) ([]models.Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Doctor, 0, len(r.doctors))
	for _, d := range r.doctors {
		if d.Active {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryClinicRepo) GetDoctorByKey(ctx context.Context, key string) (*models.Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.doctors {
		if d.Active && d.Key == key {
			cp := d
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryClinicRepo) AvailableSlotsByDoctor(ctx context.Context, doctorKey, fromDate, toDate string) ([]models.AppointmentSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.AppointmentSlot
	for _, s := range r.slots {
		if s.DoctorKey != doctorKey || s.Status != models.SlotAvailable {
			continue
		}
		if s.Date < fromDate || s.Date > toDate {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StartMinutes < out[j].StartMinutes
	})
	return out, nil
}

func (r *MemoryClinicRepo) FindSlot(ctx context.Context, ref models.SlotRef) (*models.AppointmentSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.slots {
		if s.DoctorKey == ref.DoctorKey && s.Date == ref.Date && s.StartTime == ref.Time {
			cp := *s
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryClinicRepo) ClaimSlot(ctx context.Context, slotID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[slotID]
	if !ok || s.Status != models.SlotAvailable {
		return false, nil
	}
	s.Status = models.SlotBooked
	return true, nil
}

func (r *MemoryClinicRepo) ReleaseSlot(ctx context.Context, slotID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[slotID]
	if !ok || s.Status != models.SlotBooked {
		return ErrNotFound
	}
	s.Status = models.SlotAvailable
	return nil
}

func (r *MemoryClinicRepo) InsertAppointment(ctx context.Context, appt *models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *appt
	r.appointments[appt.ID] = &cp
	r.apptOrder = append(r.apptOrder, appt.ID)
	return nil
}

func (r *MemoryClinicRepo) UpdateAppointmentStatus(ctx context.Context, apptID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[apptID]
	if !ok {
		return ErrNotFound
	}
	a.Status = status
	return nil
}

func (r *MemoryClinicRepo) MoveAppointment(ctx context.Context, apptID, doctorKey string, slot models.AppointmentSlot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[apptID]
	if !ok {
		return ErrNotFound
	}
	a.DoctorKey = doctorKey
	a.SlotID = slot.ID
	a.Date = slot.Date
	a.Time = slot.StartTime
	return nil
}

func (r *MemoryClinicRepo) GetAppointment(ctx context.Context, apptID string) (*models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[apptID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *MemoryClinicRepo) ActiveAppointmentByCaller(ctx context.Context, callerPhone string) (*models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.apptOrder) - 1; i >= 0; i-- {
		a := r.appointments[r.apptOrder[i]]
		if a.CallerPhone == callerPhone && a.Status == models.AppointmentConfirmed {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}
