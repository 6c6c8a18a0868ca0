package meshwire

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNode_IsHealthy_NotStarted(t *testing.T) {
	// A node that hasn't been started should not be healthy
	node, err := New(nil)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if node.IsHealthy() {
		t.Error("expected unstarted node to be unhealthy")
	}
}

func TestNode_ReadinessChecks_NotStarted(t *testing.T) {
	node, err := New(nil)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	status := node.ReadinessChecks()

	if status.Healthy {
		t.Error("expected unstarted node health status to be unhealthy")
	}

	// Check that we have the expected checks
	if len(status.Checks) != 4 {
		t.Errorf("expected 4 checks, got %d", len(status.Checks))
	}

	wantUnhealthy := map[string]bool{
		"node_started":  true,
		"swarm_bound":   true,
		"routing_table": true,
	}
	for _, check := range status.Checks {
		if wantUnhealthy[check.Name] && check.Healthy {
			t.Errorf("expected %s check to be unhealthy before Start", check.Name)
		}
		if check.Name == "connections" && !check.Healthy {
			t.Error("connections check is informational and should stay healthy")
		}
	}

	if status.Timestamp.IsZero() {
		t.Error("health status should carry a timestamp")
	}
}

func TestHealthHandler_Unhealthy(t *testing.T) {
	node, err := New(nil)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	handler := HealthHandler(node)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var status HealthStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if status.Healthy {
		t.Error("response should report unhealthy")
	}
	if len(status.Checks) != 4 {
		t.Errorf("response should carry 4 checks, got %d", len(status.Checks))
	}
}

func TestLivenessHandler_Unhealthy(t *testing.T) {
	node, err := New(nil)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	handler := LivenessHandler(node)
	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}

	var body map[string]bool
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if body["healthy"] {
		t.Error("response should report healthy=false")
	}
}

func TestHealthHandlers_Running(t *testing.T) {
	node := startTestNode(t)

	t.Run("IsHealthy", func(t *testing.T) {
		if !node.IsHealthy() {
			t.Error("running node should be healthy")
		}
	})

	t.Run("ReadinessChecks", func(t *testing.T) {
		status := node.ReadinessChecks()
		if !status.Healthy {
			t.Errorf("running node should pass readiness: %+v", status.Checks)
		}
	})

	t.Run("HealthHandler", func(t *testing.T) {
		rec := httptest.NewRecorder()
		HealthHandler(node).ServeHTTP(rec,
			httptest.NewRequest(http.MethodGet, "/health", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
		}
	})

	t.Run("LivenessHandler", func(t *testing.T) {
		rec := httptest.NewRecorder()
		LivenessHandler(node).ServeHTTP(rec,
			httptest.NewRequest(http.MethodGet, "/live", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
		}
	})
}
