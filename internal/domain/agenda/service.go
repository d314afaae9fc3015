package agenda

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinica/clinica/internal/calls"
)

// CallDispatcher is the bridge-side dependency: the broadcaster that fans a
// call event out to subscribed monitors.
type CallDispatcher interface {
	Dispatch(req calls.CallRequest) (calls.CallEvent, int)
}

// ChangeNotifier receives agenda change events for live agenda screens.
// A nil notifier disables the feed.
type ChangeNotifier interface {
	NotifyChange(eventType string, a *Appointment)
}

type Service struct {
	repo       AppointmentRepository
	dispatcher CallDispatcher
	local      *calls.LocalChannel
	notifier   ChangeNotifier
	logger     zerolog.Logger
}

// NewService wires the agenda over its repository and the calling bridge.
// local and notifier may be nil.
func NewService(repo AppointmentRepository, dispatcher CallDispatcher, local *calls.LocalChannel, notifier ChangeNotifier, logger zerolog.Logger) *Service {
	return &Service{repo: repo, dispatcher: dispatcher, local: local, notifier: notifier, logger: logger}
}

func (s *Service) Create(ctx context.Context, a *Appointment) error {
	if a.PatientName == "" {
		return fmt.Errorf("patient_name is required")
	}
	if a.ScheduledAt.IsZero() {
		return fmt.Errorf("scheduled_at is required")
	}
	if a.Status == "" {
		a.Status = StatusWaiting
	}
	if !validStatuses[a.Status] {
		return fmt.Errorf("invalid appointment status: %s", a.Status)
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return err
	}
	s.notify("appointment.created", a)
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, a *Appointment) error {
	if a.Status != "" && !validStatuses[a.Status] {
		return fmt.Errorf("invalid appointment status: %s", a.Status)
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return err
	}
	s.notify("appointment.updated", a)
	return nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.notify("appointment.deleted", &Appointment{ID: id})
	return nil
}

func (s *Service) ListByDay(ctx context.Context, day time.Time, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.ListByDay(ctx, day, limit, offset)
}

func (s *Service) ListByPractitioner(ctx context.Context, practitioner string, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.ListByPractitioner(ctx, practitioner, limit, offset)
}

func (s *Service) ListByStatus(ctx context.Context, status string, limit, offset int) ([]*Appointment, int, error) {
	if !validStatuses[status] {
		return nil, 0, fmt.Errorf("invalid appointment status: %s", status)
	}
	return s.repo.ListByStatus(ctx, status, limit, offset)
}

// CallPatient marks the appointment as called and pushes the call through
// the bridge: the broadcaster reaches remote monitors, the local channel any
// monitor process on this machine. roomLabel and monitorID override the
// appointment's own values when non-empty.
func (s *Service) CallPatient(ctx context.Context, id uuid.UUID, roomLabel, monitorID string) (calls.CallEvent, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return calls.CallEvent{}, err
	}

	if roomLabel == "" {
		roomLabel = a.RoomLabel
	}
	if monitorID == "" && a.MonitorID != nil {
		monitorID = *a.MonitorID
	}

	a.Status = StatusCalled
	a.RoomLabel = roomLabel
	if err := s.repo.Update(ctx, a); err != nil {
		return calls.CallEvent{}, err
	}
	s.notify("appointment.called", a)

	event, _ := s.dispatcher.Dispatch(calls.CallRequest{
		PatientID:   a.PatientID.String(),
		PatientName: a.PatientName,
		RoomLabel:   roomLabel,
		MonitorID:   monitorID,
	})
	if s.local != nil {
		// Best effort; the push transport is the primary path.
		if err := s.local.Publish(event); err != nil {
			s.logger.Warn().Err(err).Msg("local fallback publish failed")
		}
	}
	return event, nil
}

func (s *Service) notify(eventType string, a *Appointment) {
	if s.notifier != nil {
		s.notifier.NotifyChange(eventType, a)
	}
}
