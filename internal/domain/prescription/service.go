package prescription

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo PrescriptionRepository
}

func NewService(repo PrescriptionRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, p *Prescription) error {
	if err := s.validate(p); err != nil {
		return err
	}
	if p.IssuedAt.IsZero() {
		p.IssuedAt = time.Now()
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, p *Prescription) error {
	if err := s.validate(p); err != nil {
		return err
	}
	return s.repo.Update(ctx, p)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) validate(p *Prescription) error {
	if p.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if !validKinds[p.Kind] {
		return fmt.Errorf("invalid prescription kind: %s", p.Kind)
	}
	if p.Diagnosis == "" {
		return fmt.Errorf("diagnosis is required")
	}
	switch p.Kind {
	case KindSurgical:
		if p.Procedure == nil || *p.Procedure == "" {
			return fmt.Errorf("procedure is required for surgical prescriptions")
		}
	case KindConsultation:
		if len(p.Items) == 0 {
			return fmt.Errorf("at least one medication item is required")
		}
		for i, item := range p.Items {
			if item.Drug == "" {
				return fmt.Errorf("item %d: drug is required", i)
			}
		}
	}
	return nil
}
