package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/aristath/frontier/internal/domain"
	"github.com/aristath/frontier/internal/modules/charts"
	"github.com/aristath/frontier/internal/modules/runs"
)

const maxBodyBytes = 64 * 1024

var validate = validator.New()

// HoldingRequest is one (ticker, quantity) pair of a run submission.
type HoldingRequest struct {
	Ticker   string `json:"ticker" validate:"required,max=16"`
	Quantity int    `json:"quantity" validate:"gte=0"`
}

// StartRunRequest is the body of POST /sessions/{session}/runs.
type StartRunRequest struct {
	Holdings []HoldingRequest `json:"holdings" validate:"required,min=1,max=100,dive"`
}

// Handler handles analysis HTTP requests
type Handler struct {
	store *runs.Store
	log   zerolog.Logger
}

// NewHandler creates a new analysis handler
func NewHandler(store *runs.Store, log zerolog.Logger) *Handler {
	return &Handler{
		store: store,
		log:   log.With().Str("handler", "analysis").Logger(),
	}
}

// HandleStartRun validates the submitted portfolio and starts a run.
func (h *Handler) HandleStartRun(w http.ResponseWriter, r *http.Request) {
	session := chi.URLParam(r, "session")

	var req StartRunRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		h.writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	holdings := make([]domain.Holding, len(req.Holdings))
	for i, hr := range req.Holdings {
		holdings[i] = domain.Holding{Ticker: hr.Ticker, Quantity: hr.Quantity}
	}
	portfolio, err := domain.NewPortfolio(holdings)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	info, err := h.store.Start(session, portfolio)
	if errors.Is(err, runs.ErrStopped) {
		h.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusAccepted, info)
}

// HandleGetRun returns status and progress of the session's run.
func (h *Handler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	info, err := h.store.Info(chi.URLParam(r, "session"))
	if err != nil {
		h.writeRunError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, info)
}

// HandleCancelRun cancels the session's run if it is in progress.
func (h *Handler) HandleCancelRun(w http.ResponseWriter, r *http.Request) {
	session := chi.URLParam(r, "session")
	if !h.store.Cancel(session) {
		h.writeError(w, http.StatusConflict, "no run in progress")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"cancelled": true})
}

// HandleGetFrontier returns the Pareto front, the Monte Carlo cloud and the
// current allocation's point.
func (h *Handler) HandleGetFrontier(w http.ResponseWriter, r *http.Request) {
	result, err := h.store.Result(chi.URLParam(r, "session"))
	if err != nil {
		h.writeRunError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, frontierResponse(result))
}

// HandleGetStatistics returns per-stock statistics and the correlation and
// covariance matrices.
func (h *Handler) HandleGetStatistics(w http.ResponseWriter, r *http.Request) {
	result, err := h.store.Result(chi.URLParam(r, "session"))
	if err != nil {
		h.writeRunError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, statisticsResponse(result.Stats()))
}

// HandleGetAllocation returns the allocation table. ?idx=N selects a front
// member (-1 for the current allocation only); without idx the session's
// last selection is used. ?format=table returns display strings.
func (h *Handler) HandleGetAllocation(w http.ResponseWriter, r *http.Request) {
	session := chi.URLParam(r, "session")

	var idx *int
	if raw := r.URL.Query().Get("idx"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "idx must be an integer")
			return
		}
		idx = &v
	}

	result, err := h.store.Result(session)
	if err != nil {
		h.writeRunError(w, err)
		return
	}
	if result.Baseline.Total <= 0 {
		h.writeError(w, http.StatusUnprocessableEntity, "portfolio has zero total value")
		return
	}

	table, err := h.store.Allocation(session, idx)
	if err != nil {
		h.writeRunError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "table" {
		h.writeJSON(w, http.StatusOK, table.Formatted())
		return
	}
	h.writeJSON(w, http.StatusOK, table)
}

// HandleGetHistory returns the OHLC view of one ticker of the run.
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	result, err := h.store.Result(chi.URLParam(r, "session"))
	if err != nil {
		h.writeRunError(w, err)
		return
	}

	ticker := strings.ToUpper(chi.URLParam(r, "ticker"))
	bars, ok := result.Histories[ticker]
	if !ok {
		h.writeError(w, http.StatusNotFound, fmt.Sprintf("ticker %s is not part of the run", ticker))
		return
	}

	period := charts.DefaultSMAPeriod
	if raw := r.URL.Query().Get("sma"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 200 {
			h.writeError(w, http.StatusBadRequest, "sma must be an integer between 1 and 200")
			return
		}
		period = v
	}

	h.writeJSON(w, http.StatusOK, charts.History(ticker, bars, period))
}

// HandleGetChart renders one of the run's charts as PNG.
func (h *Handler) HandleGetChart(w http.ResponseWriter, r *http.Request) {
	session := chi.URLParam(r, "session")
	result, err := h.store.Result(session)
	if err != nil {
		h.writeRunError(w, err)
		return
	}

	var img []byte
	switch chi.URLParam(r, "chart") {
	case "frontier":
		info, ierr := h.store.Info(session)
		if ierr != nil {
			h.writeRunError(w, ierr)
			return
		}
		img, err = charts.Frontier(result.Front, result.Cloud, result.Current, info.Selected)
	case "weights":
		table, aerr := h.store.Allocation(session, nil)
		if aerr != nil {
			h.writeRunError(w, aerr)
			return
		}
		img, err = charts.Weights(table)
	case "statistics":
		img, err = charts.Statistics(result.Stats())
	default:
		h.writeError(w, http.StatusNotFound, "unknown chart")
		return
	}
	if errors.Is(err, charts.ErrNothingToPlot) {
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("session", session).Msg("Failed to render chart")
		h.writeError(w, http.StatusInternalServerError, "failed to render chart")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img)
}

// writeRunError maps store and pipeline errors to HTTP statuses.
func (h *Handler) writeRunError(w http.ResponseWriter, err error) {
	var (
		insufficient *domain.InsufficientDataError
		unavailable  *domain.DataUnavailableError
		degenerate   *domain.DegenerateProblemError
		invalid      *domain.InvalidSelectionError
	)

	switch {
	case errors.Is(err, runs.ErrNoRun):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, runs.ErrNotReady):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &invalid):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &insufficient), errors.As(err, &degenerate):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &unavailable):
		h.writeError(w, http.StatusBadGateway, err.Error())
	default:
		h.log.Error().Err(err).Msg("Run failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag())
	}
	return strings.Join(msgs, "; ")
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
