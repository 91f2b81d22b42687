package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/TbrosN/clarity/adapters/excel"
	"github.com/TbrosN/clarity/app"
	"github.com/TbrosN/clarity/domain/core"
	"github.com/TbrosN/clarity/domain/survey"
	"github.com/TbrosN/clarity/internal"
	"github.com/TbrosN/clarity/internal/config"
	"github.com/TbrosN/clarity/internal/errors"
	"github.com/TbrosN/clarity/internal/evidence"
	"github.com/TbrosN/clarity/ports"
)

// Handlers carries the HTTP endpoints' collaborators.
type Handlers struct {
	store    ports.ResponseStore
	insights *app.InsightService
	builder  *evidence.Builder
	exporter *excel.Exporter
	catalog  *survey.Catalog
	cfg      config.InsightsConfig
	logger   *internal.Logger
}

func NewHandlers(
	store ports.ResponseStore,
	insights *app.InsightService,
	builder *evidence.Builder,
	exporter *excel.Exporter,
	catalog *survey.Catalog,
	cfg config.InsightsConfig,
	logger *internal.Logger,
) *Handlers {
	return &Handlers{
		store:    store,
		insights: insights,
		builder:  builder,
		exporter: exporter,
		catalog:  catalog,
		cfg:      cfg,
		logger:   logger,
	}
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type upsertLogRequest struct {
	Date      core.CivilDate `json:"date"`
	Responses map[string]any `json:"responses"`
}

// UpsertLog writes a batch of answers for one local date. Each answer
// replaces any prior one for the same question that day.
func (h *Handlers) UpsertLog(w http.ResponseWriter, r *http.Request) {
	var req upsertLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeAppError(w, errors.InvalidInput("invalid request body"))
		return
	}
	if req.Date.IsZero() {
		req.Date = core.CivilDateOf(time.Now().UTC())
	} else if _, err := core.ParseCivilDate(string(req.Date)); err != nil {
		h.writeAppError(w, errors.InvalidInput("date must be YYYY-MM-DD"))
		return
	}
	if len(req.Responses) == 0 {
		h.writeAppError(w, errors.InvalidInput("responses must not be empty"))
		return
	}

	userID := UserFrom(r.Context())
	for key, value := range req.Responses {
		if _, err := h.store.Upsert(r.Context(), userID, req.Date, core.MetricKey(key), value); err != nil {
			h.writeAppError(w, err)
			return
		}
	}

	log, err := h.store.LogByDate(r.Context(), userID, req.Date)
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, log)
}

// History returns grouped daily logs, most recent date first.
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	days := h.queryDays(r, h.cfg.WindowDays)
	logs, err := h.store.History(r.Context(), UserFrom(r.Context()), days)
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"days": days,
		"logs": logs,
	})
}

// LogByDate returns one day's log; an empty day is a 404.
func (h *Handlers) LogByDate(w http.ResponseWriter, r *http.Request) {
	date, err := core.ParseCivilDate(chi.URLParam(r, "date"))
	if err != nil {
		h.writeAppError(w, errors.InvalidInput("date must be YYYY-MM-DD"))
		return
	}

	log, err := h.store.LogByDate(r.Context(), UserFrom(r.Context()), date)
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	if log == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no responses for %s", date))
		return
	}
	writeJSON(w, http.StatusOK, log)
}

type updateResponseRequest struct {
	QuestionKey string `json:"question_key"`
	Value       any    `json:"value"`
}

// UpdateResponse overwrites a single response's value by id.
func (h *Handlers) UpdateResponse(w http.ResponseWriter, r *http.Request) {
	responseID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeAppError(w, errors.InvalidInput("response id must be an integer"))
		return
	}

	var req updateResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeAppError(w, errors.InvalidInput("invalid request body"))
		return
	}

	spec := h.catalog.SpecOrDefault(core.MetricKey(req.QuestionKey))
	value := survey.Classify(spec, req.Value)

	response, err := h.store.UpdateResponse(r.Context(), UserFrom(r.Context()), responseID, value)
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response)
}

// EraseLogs deletes every response the user has ever recorded.
func (h *Handlers) EraseLogs(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.store.EraseUser(r.Context(), UserFrom(r.Context()))
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

// Insights runs the full generation pipeline for the caller.
func (h *Handlers) Insights(w http.ResponseWriter, r *http.Request) {
	insights, err := h.insights.GenerateForUser(r.Context(), UserFrom(r.Context()))
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"insights": insights})
}

// EnergyEfficiency returns the composite habit score over a window.
func (h *Handlers) EnergyEfficiency(w http.ResponseWriter, r *http.Request) {
	days := h.queryDays(r, 7)
	logs, err := h.store.History(r.Context(), UserFrom(r.Context()), days)
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, evidence.ComputeEfficiency(logs, days))
}

// Baselines returns per-metric distribution summaries over a window.
func (h *Handlers) Baselines(w http.ResponseWriter, r *http.Request) {
	days := h.queryDays(r, h.cfg.WindowDays)
	logs, err := h.store.History(r.Context(), UserFrom(r.Context()), days)
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.builder.ComputeBaselines(logs, days))
}

// ExportHistory streams the caller's history as an xlsx workbook.
func (h *Handlers) ExportHistory(w http.ResponseWriter, r *http.Request) {
	days := h.queryDays(r, 90)
	logs, err := h.store.History(r.Context(), UserFrom(r.Context()), days)
	if err != nil {
		h.writeAppError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="survey-history.xlsx"`)
	if err := h.exporter.Export(logs, w); err != nil {
		h.logger.Error("history export failed: %v", err)
	}
}

// queryDays reads the days query parameter, bounded to [1, 365].
func (h *Handlers) queryDays(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return fallback
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days < 1 {
		return fallback
	}
	if days > 365 {
		return 365
	}
	return days
}

func (h *Handlers) writeAppError(w http.ResponseWriter, err error) {
	h.logger.Error("request failed: %v", err)
	switch errors.GetCode(err) {
	case errors.CodeNotFound:
		writeError(w, http.StatusNotFound, err.Error())
	case errors.CodeInvalidInput:
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
