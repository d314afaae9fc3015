package agenda

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryRepo is the stub data service used when no database is configured
// (demo and development setups).
type memoryRepo struct {
	mu    sync.RWMutex
	appts map[uuid.UUID]*Appointment
}

// NewMemoryRepo creates an in-memory appointment repository, optionally
// seeded with a demo agenda for today.
func NewMemoryRepo(seed bool) AppointmentRepository {
	r := &memoryRepo{appts: make(map[uuid.UUID]*Appointment)}
	if seed {
		r.seed()
	}
	return r
}

func (r *memoryRepo) seed() {
	now := time.Now()
	monitorA := "SALA_A"
	demo := []*Appointment{
		{PatientName: "Juan Perez", Practitioner: "Dra. Gomez", RoomLabel: "CONSULTORIO 101", MonitorID: &monitorA, Status: StatusWaiting, ScheduledAt: now.Add(15 * time.Minute)},
		{PatientName: "Ana Lopez", Practitioner: "Dra. Gomez", RoomLabel: "CONSULTORIO 101", MonitorID: &monitorA, Status: StatusWaiting, ScheduledAt: now.Add(45 * time.Minute)},
		{PatientName: "Carlos Diaz", Practitioner: "Dr. Ruiz", RoomLabel: "CONSULTORIO 203", Status: StatusWaiting, ScheduledAt: now.Add(30 * time.Minute)},
	}
	for _, a := range demo {
		a.ID = uuid.New()
		a.PatientID = uuid.New()
		a.CreatedAt = now
		a.UpdatedAt = now
		r.appts[a.ID] = a
	}
}

func (r *memoryRepo) Create(_ context.Context, a *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	r.appts[a.ID] = &cp
	return nil
}

func (r *memoryRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.appts[id]
	if !ok {
		return nil, fmt.Errorf("appointment %s not found", id)
	}
	cp := *a
	return &cp, nil
}

func (r *memoryRepo) Update(_ context.Context, a *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.appts[a.ID]; !ok {
		return fmt.Errorf("appointment %s not found", a.ID)
	}
	a.UpdatedAt = time.Now()
	cp := *a
	r.appts[a.ID] = &cp
	return nil
}

func (r *memoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.appts, id)
	return nil
}

func (r *memoryRepo) list(match func(*Appointment) bool, limit, offset int) ([]*Appointment, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []*Appointment
	for _, a := range r.appts {
		if match(a) {
			cp := *a
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ScheduledAt.Before(all[j].ScheduledAt) })

	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (r *memoryRepo) ListByDay(_ context.Context, day time.Time, limit, offset int) ([]*Appointment, int, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.Add(24 * time.Hour)
	return r.list(func(a *Appointment) bool {
		return !a.ScheduledAt.Before(start) && a.ScheduledAt.Before(end)
	}, limit, offset)
}

func (r *memoryRepo) ListByPractitioner(_ context.Context, practitioner string, limit, offset int) ([]*Appointment, int, error) {
	return r.list(func(a *Appointment) bool { return a.Practitioner == practitioner }, limit, offset)
}

func (r *memoryRepo) ListByStatus(_ context.Context, status string, limit, offset int) ([]*Appointment, int, error) {
	return r.list(func(a *Appointment) bool { return a.Status == status }, limit, offset)
}
