// README: Handler tests over httptest with a stubbed cycle runner.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"pickup/internal/modules/matching"
)

type stubRunner struct {
	report matching.CycleReport
	err    error
	dryRun bool
}

func (s *stubRunner) RunCycle(_ context.Context, _ time.Time, dryRun bool) (matching.CycleReport, error) {
	s.dryRun = dryRun
	return s.report, s.err
}

func newTestRouter(h *MatchingHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/matching/cycle", h.RunCycle)
	r.GET("/api/matching/export", h.Export)
	return r
}

func TestRunCycleHandler(t *testing.T) {
	runner := &stubRunner{report: matching.CycleReport{Eligible: 3, RidesCreated: 1}}
	r := newTestRouter(NewMatchingHandler(runner, time.UTC))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/matching/cycle", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if runner.dryRun {
		t.Error("default request should not be a dry run")
	}
	var report matching.CycleReport
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if report.Eligible != 3 || report.RidesCreated != 1 {
		t.Errorf("report = %+v", report)
	}
}

func TestRunCycleHandlerDryRunFlag(t *testing.T) {
	runner := &stubRunner{}
	r := newTestRouter(NewMatchingHandler(runner, time.UTC))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/matching/cycle?dry_run=true", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !runner.dryRun {
		t.Error("dry_run=true did not reach the service")
	}
}

func TestRunCycleHandlerError(t *testing.T) {
	runner := &stubRunner{err: errors.New("db down")}
	r := newTestRouter(NewMatchingHandler(runner, time.UTC))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/matching/cycle", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "db down") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestExportHandler(t *testing.T) {
	runner := &stubRunner{}
	r := newTestRouter(NewMatchingHandler(runner, time.UTC))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/matching/export", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !runner.dryRun {
		t.Error("export must always dry-run")
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("content type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "matches_dryrun.csv") {
		t.Errorf("disposition = %q", cd)
	}
	if !strings.HasPrefix(w.Body.String(), "ride_no,") {
		t.Errorf("body = %q", w.Body.String())
	}
}
