package patient

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	repo PatientRepository
}

func NewService(repo PatientRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, p *Patient) error {
	if p.DocumentID == "" {
		return fmt.Errorf("document_id is required")
	}
	if p.GivenName == "" {
		return fmt.Errorf("given_name is required")
	}
	if p.Sex == "" {
		p.Sex = SexUnknown
	}
	if !validSexes[p.Sex] {
		return fmt.Errorf("invalid sex: %s", p.Sex)
	}
	if existing, err := s.repo.GetByDocumentID(ctx, p.DocumentID); err == nil && existing != nil {
		return fmt.Errorf("patient with document %s already exists", p.DocumentID)
	}
	p.Active = true
	return s.repo.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByDocument(ctx context.Context, documentID string) (*Patient, error) {
	return s.repo.GetByDocumentID(ctx, documentID)
}

func (s *Service) Update(ctx context.Context, p *Patient) error {
	if p.Sex != "" && !validSexes[p.Sex] {
		return fmt.Errorf("invalid sex: %s", p.Sex)
	}
	return s.repo.Update(ctx, p)
}

// Deactivate soft-retires a patient record; charts reference patients, so
// hard deletes are reserved for the repository layer.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	p.Active = false
	return s.repo.Update(ctx, p)
}

func (s *Service) Search(ctx context.Context, query string, limit, offset int) ([]*Patient, int, error) {
	if query == "" {
		return s.repo.List(ctx, limit, offset)
	}
	return s.repo.Search(ctx, query, limit, offset)
}
