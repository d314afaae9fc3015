package prescription

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryRepo is the stub data service used when no database is configured.
type memoryRepo struct {
	mu sync.RWMutex
	rx map[uuid.UUID]*Prescription
}

func NewMemoryRepo() PrescriptionRepository {
	return &memoryRepo{rx: make(map[uuid.UUID]*Prescription)}
}

func (r *memoryRepo) Create(_ context.Context, p *Prescription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	r.rx[p.ID] = &cp
	return nil
}

func (r *memoryRepo) GetByID(_ context.Context, id uuid.UUID) (*Prescription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.rx[id]
	if !ok {
		return nil, fmt.Errorf("prescription %s not found", id)
	}
	cp := *p
	return &cp, nil
}

func (r *memoryRepo) Update(_ context.Context, p *Prescription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rx[p.ID]; !ok {
		return fmt.Errorf("prescription %s not found", p.ID)
	}
	p.UpdatedAt = time.Now()
	cp := *p
	r.rx[p.ID] = &cp
	return nil
}

func (r *memoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rx, id)
	return nil
}

func (r *memoryRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []*Prescription
	for _, p := range r.rx {
		if p.PatientID == patientID {
			cp := *p
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].IssuedAt.After(all[j].IssuedAt) })

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
