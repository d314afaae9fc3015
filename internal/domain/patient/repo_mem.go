package patient

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryRepo is the stub data service used when no database is configured.
type memoryRepo struct {
	mu       sync.RWMutex
	patients map[uuid.UUID]*Patient
}

// NewMemoryRepo creates an in-memory patient repository, optionally seeded
// with demo patients.
func NewMemoryRepo(seed bool) PatientRepository {
	r := &memoryRepo{patients: make(map[uuid.UUID]*Patient)}
	if seed {
		r.seed()
	}
	return r
}

func (r *memoryRepo) seed() {
	now := time.Now()
	phone := "+54 11 4555 0101"
	insurer := "OSDE"
	demo := []*Patient{
		{DocumentID: "30111222", GivenName: "Juan", FamilyName: "Perez", BirthDate: time.Date(1985, 3, 12, 0, 0, 0, 0, time.UTC), Sex: SexMale, Phone: &phone, Insurer: &insurer},
		{DocumentID: "28999888", GivenName: "Ana", FamilyName: "Lopez", BirthDate: time.Date(1990, 7, 2, 0, 0, 0, 0, time.UTC), Sex: SexFemale},
		{DocumentID: "33444555", GivenName: "Carlos", FamilyName: "Diaz", BirthDate: time.Date(1978, 11, 30, 0, 0, 0, 0, time.UTC), Sex: SexMale},
	}
	for _, p := range demo {
		p.ID = uuid.New()
		p.Active = true
		p.CreatedAt = now
		p.UpdatedAt = now
		r.patients[p.ID] = p
	}
}

func (r *memoryRepo) Create(_ context.Context, p *Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.patients {
		if existing.DocumentID == p.DocumentID {
			return fmt.Errorf("patient with document %s already exists", p.DocumentID)
		}
	}
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	r.patients[p.ID] = &cp
	return nil
}

func (r *memoryRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.patients[id]
	if !ok {
		return nil, fmt.Errorf("patient %s not found", id)
	}
	cp := *p
	return &cp, nil
}

func (r *memoryRepo) GetByDocumentID(_ context.Context, documentID string) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.patients {
		if p.DocumentID == documentID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("patient with document %s not found", documentID)
}

func (r *memoryRepo) Update(_ context.Context, p *Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.patients[p.ID]; !ok {
		return fmt.Errorf("patient %s not found", p.ID)
	}
	p.UpdatedAt = time.Now()
	cp := *p
	r.patients[p.ID] = &cp
	return nil
}

func (r *memoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.patients, id)
	return nil
}

func (r *memoryRepo) list(match func(*Patient) bool, limit, offset int) ([]*Patient, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []*Patient
	for _, p := range r.patients {
		if match(p) {
			cp := *p
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].FamilyName != all[j].FamilyName {
			return all[i].FamilyName < all[j].FamilyName
		}
		return all[i].GivenName < all[j].GivenName
	})

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

func (r *memoryRepo) Search(_ context.Context, query string, limit, offset int) ([]*Patient, int, error) {
	q := strings.ToLower(query)
	return r.list(func(p *Patient) bool {
		return p.DocumentID == query ||
			strings.Contains(strings.ToLower(p.GivenName), q) ||
			strings.Contains(strings.ToLower(p.FamilyName), q)
	}, limit, offset)
}

func (r *memoryRepo) List(_ context.Context, limit, offset int) ([]*Patient, int, error) {
	return r.list(func(*Patient) bool { return true }, limit, offset)
}
