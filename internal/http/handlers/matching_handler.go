// README: Matching cycle handlers: trigger a cycle, export the dry-run CSV.
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"pickup/internal/modules/matching"
)

// CycleRunner is what the handlers need from the matching service.
type CycleRunner interface {
	RunCycle(ctx context.Context, now time.Time, dryRun bool) (matching.CycleReport, error)
}

type MatchingHandler struct {
	svc CycleRunner
	loc *time.Location
}

func NewMatchingHandler(svc CycleRunner, loc *time.Location) *MatchingHandler {
	return &MatchingHandler{svc: svc, loc: loc}
}

// RunCycle triggers one matching cycle. ?dry_run=true reports without
// persisting.
func (h *MatchingHandler) RunCycle(c *gin.Context) {
	dryRun, _ := strconv.ParseBool(c.Query("dry_run"))
	report, err := h.svc.RunCycle(c.Request.Context(), time.Now().In(h.loc), dryRun)
	if err != nil {
		writeError(c, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(c, http.StatusOK, report)
}

// Export runs a dry-run cycle and streams the would-be groups as CSV.
func (h *MatchingHandler) Export(c *gin.Context) {
	report, err := h.svc.RunCycle(c.Request.Context(), time.Now().In(h.loc), true)
	if err != nil {
		writeError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="matches_dryrun.csv"`)
	c.Status(http.StatusOK)
	if err := matching.WriteCSV(c.Writer, report.Groups); err != nil {
		_ = c.Error(err)
	}
}
