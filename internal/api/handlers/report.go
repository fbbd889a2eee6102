package handlers

import (
	"net/http"

	"github.com/crossval/quorum/internal/engine"
)

type ReportHandler struct {
	eng *engine.Engine
}

func NewReportHandler(eng *engine.Engine) *ReportHandler {
	return &ReportHandler{eng: eng}
}

func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	report, err := h.eng.GenerateReport(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "report generation failed")
		return
	}
	writeJSON(w, http.StatusOK, report)
}
