package utils

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "github.com/nijaru/yt-summary/errors"
	"github.com/sirupsen/logrus"
)

func TestHandleError(t *testing.T) {
	rr := httptest.NewRecorder()
	HandleError(rr, "Test error", http.StatusBadRequest)

	if status := rr.Code; status != http.StatusBadRequest {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusBadRequest)
	}

	expected := `{"error":"Test error"}`
	if strings.TrimSpace(rr.Body.String()) != strings.TrimSpace(expected) {
		t.Errorf("handler returned unexpected body: got %v want %v", rr.Body.String(), expected)
	}
}

func TestRespondWithErrorHidesInternalDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondWithError(rr, logrus.StandardLogger(), fmt.Errorf("sql: connection refused"))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rr.Code)
	}
	expected := `{"error":"An unexpected error occurred"}`
	if strings.TrimSpace(rr.Body.String()) != expected {
		t.Errorf("unexpected body %s", rr.Body.String())
	}
}

func TestRespondWithErrorCredential(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondWithError(rr, logrus.StandardLogger(), apperrors.Unauthorized("test", "API key is missing"))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rr.Code)
	}
	expected := `{"error":"API key is missing"}`
	if strings.TrimSpace(rr.Body.String()) != expected {
		t.Errorf("unexpected body %s", rr.Body.String())
	}
}

func TestRespondWithJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondWithJSON(rr, http.StatusOK, map[string]string{"summary": "1. a & b <c>"})

	if rr.Header().Get("Content-Type") != "application/json" {
		t.Errorf("unexpected content type %s", rr.Header().Get("Content-Type"))
	}
	expected := `{"summary":"1. a & b <c>"}`
	if strings.TrimSpace(rr.Body.String()) != expected {
		t.Errorf("unexpected body %s", rr.Body.String())
	}
}

func TestRenderMarkdown(t *testing.T) {
	out, err := RenderMarkdown("1. **First point**\n2. Second point\n", 60)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "First") || !strings.Contains(out, "Second") {
		t.Errorf("expected rendered markdown, got %q", out)
	}
}
