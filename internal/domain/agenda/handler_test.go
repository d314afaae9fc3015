package agenda

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func newTestHandler(t *testing.T) (*Handler, *Service) {
	t.Helper()
	svc, _, _, _ := newTestService()
	return NewHandler(svc), svc
}

func doJSON(h echo.HandlerFunc, method, target, body string, params map[string]string) *httptest.ResponseRecorder {
	e := echo.New()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for k, v := range params {
		c.SetParamNames(k)
		c.SetParamValues(v)
	}
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestHandlerCreate(t *testing.T) {
	h, _ := newTestHandler(t)

	body := `{"patient_name":"Ana Lopez","practitioner":"dr-ruiz","scheduled_at":"2026-09-01T10:00:00Z"}`
	rec := doJSON(h.Create, http.MethodPost, "/agenda", body, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var a Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &a); err != nil {
		t.Fatal(err)
	}
	if a.ID == uuid.Nil {
		t.Error("expected assigned id")
	}
	if a.Status != StatusWaiting {
		t.Errorf("expected status %q, got %q", StatusWaiting, a.Status)
	}
}

func TestHandlerCreateInvalid(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := doJSON(h.Create, http.MethodPost, "/agenda", `{"practitioner":"dr-ruiz"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandlerGet(t *testing.T) {
	h, svc := newTestHandler(t)
	a := seedAppointment(t, svc)

	rec := doJSON(h.Get, http.MethodGet, "/agenda/"+a.ID.String(), "", map[string]string{"id": a.ID.String()})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = doJSON(h.Get, http.MethodGet, "/agenda/nope", "", map[string]string{"id": "nope"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed id, got %d", rec.Code)
	}

	rec = doJSON(h.Get, http.MethodGet, "/agenda/x", "", map[string]string{"id": uuid.NewString()})
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown id, got %d", rec.Code)
	}
}

func TestHandlerListByDate(t *testing.T) {
	h, svc := newTestHandler(t)
	seedAppointment(t, svc)

	rec := doJSON(h.List, http.MethodGet, "/agenda?date="+time.Now().Format("2006-01-02"), "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Data  []*Appointment `json:"data"`
		Total int            `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 1 || len(resp.Data) != 1 {
		t.Errorf("expected one appointment, got total=%d len=%d", resp.Total, len(resp.Data))
	}

	rec = doJSON(h.List, http.MethodGet, "/agenda?date=31-08-2026", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad date, got %d", rec.Code)
	}
}

func TestHandlerListByStatus(t *testing.T) {
	h, svc := newTestHandler(t)
	seedAppointment(t, svc)

	rec := doJSON(h.List, http.MethodGet, "/agenda?status=waiting", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = doJSON(h.List, http.MethodGet, "/agenda?status=lost", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown status, got %d", rec.Code)
	}
}

func TestHandlerCallPatient(t *testing.T) {
	h, svc := newTestHandler(t)
	a := seedAppointment(t, svc)

	body := `{"room_label":"CONSULTORIO 3","monitor_id":"SALA_B"}`
	rec := doJSON(h.CallPatient, http.MethodPost, "/agenda/x/call", body, map[string]string{"id": a.ID.String()})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			PatientName string `json:"patientName"`
			RoomLabel   string `json:"roomLabel"`
			MonitorID   string `json:"monitorId"`
			Timestamp   int64  `json:"timestamp"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success {
		t.Error("expected success envelope")
	}
	if resp.Data.RoomLabel != "CONSULTORIO 3" || resp.Data.MonitorID != "SALA_B" {
		t.Errorf("unexpected call event: %+v", resp.Data)
	}
	if resp.Data.Timestamp == 0 {
		t.Error("expected stamped call event")
	}
}

func TestHandlerCallPatientUnknown(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := doJSON(h.CallPatient, http.MethodPost, "/agenda/x/call", "{}", map[string]string{"id": uuid.NewString()})
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandlerDelete(t *testing.T) {
	h, svc := newTestHandler(t)
	a := seedAppointment(t, svc)

	rec := doJSON(h.Delete, http.MethodDelete, "/agenda/x", "", map[string]string{"id": a.ID.String()})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}
