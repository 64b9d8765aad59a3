package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/stockcity/txf-bar-service/internal/cache"
	"github.com/stockcity/txf-bar-service/internal/market"
	"github.com/stockcity/txf-bar-service/internal/models"
	"github.com/stockcity/txf-bar-service/internal/resample"
)

const defaultCode = "TXF"

// Resampler answers derived-bar queries (implemented by resample.Engine)
type Resampler interface {
	Query(ctx context.Context, code string, period models.Period, session models.Session, from, to time.Time) (*resample.Result, error)
}

// SettlementCalendar answers settlement-day queries (implemented by market.Calendar)
type SettlementCalendar interface {
	IsSettlementDay(date time.Time) (bool, error)
	DaySessionClose(date time.Time) (time.Time, error)
}

// ContractStore defines the contract operations the API needs
type ContractStore interface {
	GetAllContracts() ([]*models.Contract, error)
	GetContract(code string) (*models.Contract, error)
	CreateContract(c *models.Contract) error
	DeleteContract(code string) error
}

// BarWriter persists batches of raw 1-minute bars
type BarWriter interface {
	CreateBarsBatch(ctx context.Context, bars []*models.Bar) error
}

// Deps holds the collaborators injected into the Handler. NewResampler and
// NewCalendar are factories, not instances: calendar facts are recomputed
// per request so a refreshed holiday table takes effect immediately.
type Deps struct {
	Contracts    ContractStore
	Bars         BarWriter
	NewResampler func() Resampler
	NewCalendar  func() SettlementCalendar
	Cache        *cache.Cache
	Location     *time.Location
	Log          *zap.Logger
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	deps Deps
}

// NewHandler creates a new Handler
func NewHandler(deps Deps) *Handler {
	if deps.Location == nil {
		deps.Location = time.Local
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	return &Handler{deps: deps}
}

// GetBars handles GET /api/v1/bars?code=&period=&session=&start=&end=
// It returns derived bars for the trading days in [start, end]; an empty
// range is a valid empty response, while a calendar failure is surfaced.
func (h *Handler) GetBars(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	code := q.Get("code")
	if code == "" {
		code = defaultCode
	}

	period, err := models.ParsePeriod(q.Get("period"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sessionParam := q.Get("session")
	if sessionParam == "" {
		sessionParam = string(models.SessionFull)
	}
	session, err := models.ParseSession(sessionParam)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	from, err := h.parseTime(q.Get("start"))
	if err != nil {
		http.Error(w, "invalid start: "+err.Error(), http.StatusBadRequest)
		return
	}
	to, err := h.parseTime(q.Get("end"))
	if err != nil {
		http.Error(w, "invalid end: "+err.Error(), http.StatusBadRequest)
		return
	}
	if to.Before(from) {
		http.Error(w, "end before start", http.StatusBadRequest)
		return
	}

	key := cache.BarsKey(code, string(period), string(session), from, to)
	if h.deps.Cache != nil {
		if payload, ok, err := h.deps.Cache.Get(r.Context(), key); err == nil && ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(payload)
			return
		} else if err != nil {
			h.deps.Log.Warn("cache read failed", zap.Error(err))
		}
	}

	result, err := h.deps.NewResampler().Query(r.Context(), code, period, session, from, to)
	if err != nil {
		if errors.Is(err, market.ErrCalendarUnavailable) {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if h.deps.Cache != nil {
		if err := h.deps.Cache.Set(r.Context(), key, payload); err != nil {
			h.deps.Log.Warn("cache write failed", zap.Error(err))
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}

// IngestBars handles POST /api/v1/bars: batch ingestion of raw 1-minute
// bars from backfill scripts. Malformed bars are rejected individually and
// reported; well-formed bars in the same batch are still stored.
func (h *Handler) IngestBars(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Source string       `json:"source"`
		Bars   []models.Bar `json:"bars"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Bars) == 0 {
		http.Error(w, "bars is required", http.StatusBadRequest)
		return
	}

	type rejected struct {
		TS     time.Time `json:"ts"`
		Reason string    `json:"reason"`
	}
	var (
		accepted []*models.Bar
		rejects  []rejected
	)
	for i := range req.Bars {
		b := req.Bars[i]
		if b.Code == "" {
			b.Code = defaultCode
		}
		b.TS = b.TS.In(h.deps.Location).Truncate(time.Minute)
		if err := b.Validate(); err != nil {
			rejects = append(rejects, rejected{TS: b.TS, Reason: err.Error()})
			continue
		}
		accepted = append(accepted, &b)
	}

	if len(accepted) > 0 {
		if err := h.deps.Bars.CreateBarsBatch(r.Context(), accepted); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	h.deps.Log.Info("ingested bars",
		zap.String("source", req.Source),
		zap.Int("stored", len(accepted)),
		zap.Int("rejected", len(rejects)))

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"stored":   len(accepted),
		"rejected": rejects,
	})
}

// GetSettlement handles GET /api/v1/settlement/{date}: callers such as the
// dashboard need the effective day-session close independent of resampling.
func (h *Handler) GetSettlement(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	date, err := time.ParseInLocation("2006-01-02", vars["date"], h.deps.Location)
	if err != nil {
		http.Error(w, "invalid date: "+err.Error(), http.StatusBadRequest)
		return
	}

	cal := h.deps.NewCalendar()
	settlement, err := cal.IsSettlementDay(date)
	if err != nil {
		h.respondCalendarError(w, err)
		return
	}
	closeTS, err := cal.DaySessionClose(date)
	if err != nil {
		h.respondCalendarError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"date":              date.Format("2006-01-02"),
		"is_settlement_day": settlement,
		"day_session_close": closeTS.Format("15:04"),
	})
}

// GetAllContracts handles GET /api/v1/contracts
func (h *Handler) GetAllContracts(w http.ResponseWriter, r *http.Request) {
	contracts, err := h.deps.Contracts.GetAllContracts()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, contracts)
}

// GetContract handles GET /api/v1/contracts/{code}
func (h *Handler) GetContract(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	contract, err := h.deps.Contracts.GetContract(vars["code"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, contract)
}

// AddContract handles POST /api/v1/contracts
func (h *Handler) AddContract(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Code == "" {
		http.Error(w, "code is required", http.StatusBadRequest)
		return
	}

	contract := &models.Contract{
		Code:    req.Code,
		Name:    req.Name,
		Enabled: true,
	}
	if err := h.deps.Contracts.CreateContract(contract); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusCreated, contract)
}

// RemoveContract handles DELETE /api/v1/contracts/{code}
func (h *Handler) RemoveContract(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.deps.Contracts.DeleteContract(vars["code"]); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// parseTime accepts a calendar date or an RFC3339 timestamp, both
// interpreted in market time when no offset is given.
func (h *Handler) parseTime(s string) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02", s, h.deps.Location); err == nil {
		return t, nil
	}
	return time.ParseInLocation(time.RFC3339, s, h.deps.Location)
}

func (h *Handler) respondCalendarError(w http.ResponseWriter, err error) {
	if errors.Is(err, market.ErrCalendarUnavailable) {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
