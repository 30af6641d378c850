package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func upCheck(ctx context.Context) ComponentHealth {
	return ComponentHealth{Status: StatusUp}
}

func downCheck(ctx context.Context) ComponentHealth {
	return ComponentHealth{Status: StatusDown, Message: "no reachable servers"}
}

// TestRunAggregatesWorstStatus verifies one down component marks the whole
// report down.
func TestRunAggregatesWorstStatus(t *testing.T) {
	c := NewChecker()
	c.Register("mongodb", downCheck)

	report := c.Run(t.Context())
	if report.Status != StatusDown {
		t.Errorf("expected down, got %s", report.Status)
	}
	component, ok := report.Components["mongodb"]
	if !ok {
		t.Fatal("expected mongodb component in report")
	}
	if component.Message != "no reachable servers" {
		t.Errorf("expected check message preserved, got %q", component.Message)
	}
	if component.Latency == "" {
		t.Error("expected latency recorded")
	}
}

// TestRunAllUp verifies a healthy checker reports up.
func TestRunAllUp(t *testing.T) {
	c := NewChecker()
	c.Register("mongodb", upCheck)

	if report := c.Run(t.Context()); report.Status != StatusUp {
		t.Errorf("expected up, got %s", report.Status)
	}
}

// TestRegisterReplacesByName verifies re-registering a name swaps the check
// without duplicating the component.
func TestRegisterReplacesByName(t *testing.T) {
	c := NewChecker()
	c.Register("mongodb", downCheck)
	c.Register("mongodb", upCheck)

	report := c.Run(t.Context())
	if len(report.Components) != 1 {
		t.Fatalf("expected 1 component, got %d", len(report.Components))
	}
	if report.Status != StatusUp {
		t.Errorf("expected replacement check to win, got %s", report.Status)
	}
}

// TestReadyHandlerStatusCodes verifies 200 when up and 503 when down, with
// a JSON report body either way.
func TestReadyHandlerStatusCodes(t *testing.T) {
	c := NewChecker()
	c.Register("mongodb", upCheck)

	rec := httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	c.Register("mongodb", downCheck)
	rec = httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}

	var report Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decoding report: %v", err)
	}
	if report.Status != StatusDown {
		t.Errorf("expected down in body, got %s", report.Status)
	}
}

// TestLiveHandlerAlwaysOK verifies liveness ignores component state.
func TestLiveHandlerAlwaysOK(t *testing.T) {
	c := NewChecker()
	c.Register("mongodb", downCheck)

	rec := httptest.NewRecorder()
	c.LiveHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}
