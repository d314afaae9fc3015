package calls

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestClientRoundTrip(t *testing.T) {
	srv, reg, _ := newBridgeServer(t)
	client := NewClient(srv.URL+"/api/v1/calls", zerolog.Nop())

	ctx, cancelCtx := context.WithCancel(context.Background())
	defer cancelCtx()

	start := time.Now().UnixMilli()
	received := make(chan CallEvent, 4)
	cancel := client.SubscribeToCalls(ctx, "SALA_B", func(event CallEvent) {
		received <- event
	})
	defer cancel()

	waitForSubscribers(t, reg, 1)
	client.CallPatient(ctx, CallRequest{
		PatientID:   "1",
		PatientName: "Juan Perez",
		RoomLabel:   "CONSULTORIO 101",
		MonitorID:   "SALA_B",
	})

	select {
	case event := <-received:
		if event.PatientName != "Juan Perez" {
			t.Errorf("expected patient name Juan Perez, got %q", event.PatientName)
		}
		if event.RoomLabel != "CONSULTORIO 101" {
			t.Errorf("expected room CONSULTORIO 101, got %q", event.RoomLabel)
		}
		if event.Timestamp < start {
			t.Errorf("timestamp %d predates subscription start %d", event.Timestamp, start)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("call never reached the subscription handler")
	}

	select {
	case extra := <-received:
		t.Errorf("expected exactly one delivery, also got %+v", extra)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestClientSubscriptionFiltersByMonitor(t *testing.T) {
	srv, reg, _ := newBridgeServer(t)
	client := NewClient(srv.URL+"/api/v1/calls", zerolog.Nop())

	ctx := context.Background()
	received := make(chan CallEvent, 4)
	cancel := client.SubscribeToCalls(ctx, "SALA_A", func(event CallEvent) {
		received <- event
	})
	defer cancel()

	waitForSubscribers(t, reg, 1)
	client.CallPatient(ctx, CallRequest{PatientID: "1", MonitorID: "SALA_B"})
	client.CallPatient(ctx, CallRequest{PatientID: "2", MonitorID: "SALA_A"})

	select {
	case event := <-received:
		if event.PatientID != "2" {
			t.Errorf("expected only the SALA_A call, got patient %q", event.PatientID)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("matching call never arrived")
	}
}

func TestClientUnsubscribeClosesConnection(t *testing.T) {
	srv, reg, _ := newBridgeServer(t)
	client := NewClient(srv.URL+"/api/v1/calls", zerolog.Nop())

	cancel := client.SubscribeToCalls(context.Background(), "SALA_A", func(CallEvent) {})
	waitForSubscribers(t, reg, 1)

	cancel()
	waitForSubscribers(t, reg, 0)
}

func TestCallPatientSwallowsNetworkFailure(t *testing.T) {
	client := NewClient("http://127.0.0.1:1/calls", zerolog.Nop())
	// Must not panic or block; the failure is logged and accepted.
	client.CallPatient(context.Background(), CallRequest{PatientID: "1"})
}

func TestBackoffGrowsWithJitterBound(t *testing.T) {
	b := Backoff{Min: time.Second, Max: 30 * time.Second}

	for attempt := 0; attempt < 10; attempt++ {
		d := b.Next(attempt)
		if d < b.Min {
			t.Errorf("attempt %d: delay %v below minimum", attempt, d)
		}
		if d > b.Max+b.Max/4 {
			t.Errorf("attempt %d: delay %v exceeds max plus jitter", attempt, d)
		}
	}

	if b.Next(1) < 2*time.Second {
		t.Error("expected exponential growth on second attempt")
	}
}
