package main

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Simplici0/advance/internal/cache"
	"github.com/Simplici0/advance/internal/pricing"
	"github.com/Simplici0/advance/internal/store"
)

const (
	dateLayout    = "2006-01-02"
	maxBatchQuote = 1000
)

type server struct {
	store *store.Store
	cache cache.Cache
	now   func() time.Time
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Get("/fee-schedules", s.handleFeeSchedulesList)
	r.Post("/fee-schedules", s.handleFeeSchedulesCreate)
	r.Get("/fee-schedules/{id}", s.handleFeeScheduleGet)
	r.Put("/fee-schedules/{id}/active", s.handleFeeScheduleSetActive)
	r.Get("/fee-schedules/{id}/disclosure", s.handleDisclosure)

	r.Post("/quotes", s.handleQuote)
	r.Post("/quotes/batch", s.handleQuoteBatch)

	r.Post("/advancements", s.handleAdvancementCreate)
	r.Get("/advancements/{id}", s.handleAdvancementGet)
	r.Get("/advancements/{id}/statement", s.handleAdvancementStatement)
	r.Post("/advancements/{id}/settlement", s.handleAdvancementSettle)

	return r
}

// scheduleView is the JSON form of a fee schedule. Fees are fractions.
type scheduleView struct {
	Currency                 string          `json:"currency"`
	InitialFee               decimal.Decimal `json:"initial_fee"`
	DailyFee                 decimal.Decimal `json:"daily_fee"`
	ExitFee                  decimal.Decimal `json:"exit_fee"`
	MinimumTermMonths        int             `json:"minimum_term_months"`
	MaximumTermMonths        int             `json:"maximum_term_months"`
	RepresentativeTermMonths int             `json:"representative_term_months"`
}

func newScheduleView(fs pricing.FeeSchedule) scheduleView {
	return scheduleView{
		Currency:                 fs.Currency(),
		InitialFee:               fs.InitialFee(),
		DailyFee:                 fs.DailyFee(),
		ExitFee:                  fs.ExitFee(),
		MinimumTermMonths:        fs.MinimumTermMonths(),
		MaximumTermMonths:        fs.MaximumTermMonths(),
		RepresentativeTermMonths: fs.RepresentativeTermMonths(),
	}
}

type feeScheduleView struct {
	store.FeeScheduleRecord
	scheduleView
}

func newFeeScheduleView(rec store.FeeScheduleRecord) feeScheduleView {
	return feeScheduleView{FeeScheduleRecord: rec, scheduleView: newScheduleView(rec.Schedule)}
}

type advancementView struct {
	store.Advancement
	Schedule scheduleView `json:"schedule"`
}

func newAdvancementView(adv store.Advancement) advancementView {
	return advancementView{Advancement: adv, Schedule: newScheduleView(adv.Schedule)}
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleFeeSchedulesList(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.ListFeeSchedules(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	views := make([]feeScheduleView, 0, len(records))
	for _, rec := range records {
		views = append(views, newFeeScheduleView(rec))
	}
	writeJSON(w, http.StatusOK, views)
}

type createFeeScheduleRequest struct {
	Name                     string          `json:"name"`
	Currency                 string          `json:"currency"`
	InitialPercentage        decimal.Decimal `json:"initial_percentage"`
	DailyPercentage          decimal.Decimal `json:"daily_percentage"`
	ExitPercentage           decimal.Decimal `json:"exit_percentage"`
	MinimumTermMonths        int             `json:"minimum_term_months"`
	MaximumTermMonths        int             `json:"maximum_term_months"`
	RepresentativeTermMonths int             `json:"representative_term_months"`
}

func (s *server) handleFeeSchedulesCreate(w http.ResponseWriter, r *http.Request) {
	var req createFeeScheduleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, r, &requestError{field: "name", msg: "is required"})
		return
	}

	schedule, err := pricing.NewFeeScheduleFromPercent(
		req.InitialPercentage, req.DailyPercentage, req.ExitPercentage,
		req.MinimumTermMonths, req.MaximumTermMonths, req.RepresentativeTermMonths,
		req.Currency,
	)
	if err != nil {
		writeError(w, r, err)
		return
	}

	rec, err := s.store.CreateFeeSchedule(r.Context(), name, schedule)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newFeeScheduleView(rec))
}

func (s *server) handleFeeScheduleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := s.loadFeeSchedule(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newFeeScheduleView(rec))
}

type setActiveRequest struct {
	Active *bool `json:"active"`
}

func (s *server) handleFeeScheduleSetActive(w http.ResponseWriter, r *http.Request) {
	id, err := parseScheduleID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req setActiveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Active == nil {
		writeError(w, r, &requestError{field: "active", msg: "is required"})
		return
	}

	if err := s.store.SetFeeScheduleActive(r.Context(), id, *req.Active); err != nil {
		writeError(w, r, err)
		return
	}

	rec, err := s.store.GetFeeSchedule(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newFeeScheduleView(rec))
}

func (s *server) handleDisclosure(w http.ResponseWriter, r *http.Request) {
	rec, err := s.loadFeeSchedule(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	principal, err := parseDecimal(r.URL.Query().Get("principal"), "principal")
	if err != nil {
		writeError(w, r, err)
		return
	}

	body, hit, err := s.disclosureJSON(r.Context(), rec.Schedule, principal)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if hit {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// disclosureJSON returns the encoded disclosure, reading through the cache.
// Cache failures are logged and never fail the request.
func (s *server) disclosureJSON(ctx context.Context, schedule pricing.FeeSchedule, principal decimal.Decimal) ([]byte, bool, error) {
	key := cache.DisclosureKey(schedule, principal)

	body, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		zap.L().Warn("disclosure cache get failed", zap.String("key", key), zap.Error(err))
	}
	if ok {
		return body, true, nil
	}

	disclosure, err := pricing.Disclose(schedule, principal)
	if err != nil {
		return nil, false, err
	}
	body, err = json.Marshal(disclosure)
	if err != nil {
		return nil, false, err
	}
	body = append(body, '\n')

	if err := s.cache.Set(ctx, key, body); err != nil {
		zap.L().Warn("disclosure cache set failed", zap.String("key", key), zap.Error(err))
	}
	return body, false, nil
}

type quoteRequest struct {
	FeeScheduleID int64           `json:"fee_schedule_id"`
	Principal     decimal.Decimal `json:"principal"`
	ElapsedDays   *int            `json:"elapsed_days"`
}

type quoteResponse struct {
	FeeScheduleID int64  `json:"fee_schedule_id"`
	Currency      string `json:"currency"`
	pricing.Projection
	TermStatus pricing.TermStatus `json:"term_status,omitempty"`
}

func (s *server) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	rec, err := s.store.GetFeeSchedule(r.Context(), req.FeeScheduleID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	adv := pricing.AdvancementRequest{Principal: req.Principal, Schedule: rec.Schedule}
	if req.ElapsedDays != nil {
		adv = adv.SettlingAfter(*req.ElapsedDays)
	}

	projection, err := pricing.Project(adv)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := quoteResponse{FeeScheduleID: rec.ID, Currency: rec.Schedule.Currency(), Projection: projection}
	if req.ElapsedDays != nil {
		resp.TermStatus = pricing.ClassifyTerm(rec.Schedule, *req.ElapsedDays)
	}
	writeJSON(w, http.StatusOK, resp)
}

type batchQuoteRequest struct {
	FeeScheduleID int64           `json:"fee_schedule_id"`
	Principal     decimal.Decimal `json:"principal"`
	ElapsedDays   []int           `json:"elapsed_days"`
}

type batchQuoteResponse struct {
	FeeScheduleID int64                   `json:"fee_schedule_id"`
	Currency      string                  `json:"currency"`
	Results       []pricing.CostBreakdown `json:"results"`
}

func (s *server) handleQuoteBatch(w http.ResponseWriter, r *http.Request) {
	var req batchQuoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if len(req.ElapsedDays) == 0 {
		writeError(w, r, &requestError{field: "elapsed_days", msg: "must not be empty"})
		return
	}
	if len(req.ElapsedDays) > maxBatchQuote {
		writeError(w, r, &requestError{field: "elapsed_days", msg: "at most " + strconv.Itoa(maxBatchQuote) + " values"})
		return
	}

	rec, err := s.store.GetFeeSchedule(r.Context(), req.FeeScheduleID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	adv := pricing.AdvancementRequest{Principal: req.Principal, Schedule: rec.Schedule}
	results := make([]pricing.CostBreakdown, len(req.ElapsedDays))

	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, days := range req.ElapsedDays {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b, err := pricing.EvaluateAt(adv, days)
			if err != nil {
				return err
			}
			results[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, batchQuoteResponse{
		FeeScheduleID: rec.ID,
		Currency:      rec.Schedule.Currency(),
		Results:       results,
	})
}

type createAdvancementRequest struct {
	FeeScheduleID int64           `json:"fee_schedule_id"`
	Reference     string          `json:"reference"`
	Principal     decimal.Decimal `json:"principal"`
	DrawdownDate  string          `json:"drawdown_date"`
}

func (s *server) handleAdvancementCreate(w http.ResponseWriter, r *http.Request) {
	var req createAdvancementRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	reference := strings.TrimSpace(req.Reference)
	if reference == "" {
		writeError(w, r, &requestError{field: "reference", msg: "is required"})
		return
	}
	drawdown, err := parseDate(req.DrawdownDate, "drawdown_date")
	if err != nil {
		writeError(w, r, err)
		return
	}

	adv, err := s.store.CreateAdvancement(r.Context(), store.NewAdvancement{
		Reference:     reference,
		FeeScheduleID: req.FeeScheduleID,
		Principal:     req.Principal,
		DrawdownDate:  drawdown,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	zap.L().Info("advancement created",
		zap.String("id", adv.ID.String()),
		zap.String("reference", adv.Reference),
		zap.Int64("fee_schedule_id", adv.FeeScheduleID),
	)
	writeJSON(w, http.StatusCreated, newAdvancementView(adv))
}

func (s *server) handleAdvancementGet(w http.ResponseWriter, r *http.Request) {
	adv, err := s.loadAdvancement(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAdvancementView(adv))
}

type statementResponse struct {
	AdvancementID uuid.UUID  `json:"advancement_id"`
	Reference     string     `json:"reference"`
	Currency      string     `json:"currency"`
	SettledOn     *time.Time `json:"settled_on,omitempty"`
	pricing.Statement
}

func (s *server) handleAdvancementStatement(w http.ResponseWriter, r *http.Request) {
	adv, err := s.loadAdvancement(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	on := s.now().UTC()
	if raw := r.URL.Query().Get("on_date"); raw != "" {
		if on, err = parseDate(raw, "on_date"); err != nil {
			writeError(w, r, err)
			return
		}
	}
	// Nothing accrues after settlement.
	if adv.SettledOn != nil && on.After(*adv.SettledOn) {
		on = *adv.SettledOn
	}

	stmt, err := pricing.StatementAt(adv.Request(), adv.DrawdownDate, on)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, statementResponse{
		AdvancementID: adv.ID,
		Reference:     adv.Reference,
		Currency:      adv.Schedule.Currency(),
		SettledOn:     adv.SettledOn,
		Statement:     stmt,
	})
}

type settleRequest struct {
	SettledOn string `json:"settled_on"`
}

func (s *server) handleAdvancementSettle(w http.ResponseWriter, r *http.Request) {
	adv, err := s.loadAdvancement(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req settleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	settledOn, err := parseDate(req.SettledOn, "settled_on")
	if err != nil {
		writeError(w, r, err)
		return
	}

	stmt, err := pricing.StatementAt(adv.Request(), adv.DrawdownDate, settledOn)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.store.RecordSettlement(r.Context(), adv.ID, settledOn, stmt.Breakdown.TotalPayable); err != nil {
		writeError(w, r, err)
		return
	}

	zap.L().Info("advancement settled",
		zap.String("id", adv.ID.String()),
		zap.Int("elapsed_days", stmt.ElapsedDays),
		zap.String("term_status", string(stmt.TermStatus)),
		zap.String("total_payable", stmt.Breakdown.TotalPayable.StringFixed(pricing.MinorUnitPlaces)),
	)
	writeJSON(w, http.StatusOK, statementResponse{
		AdvancementID: adv.ID,
		Reference:     adv.Reference,
		Currency:      adv.Schedule.Currency(),
		Statement:     stmt,
	})
}

func (s *server) loadFeeSchedule(r *http.Request) (store.FeeScheduleRecord, error) {
	id, err := parseScheduleID(chi.URLParam(r, "id"))
	if err != nil {
		return store.FeeScheduleRecord{}, err
	}
	return s.store.GetFeeSchedule(r.Context(), id)
}

func (s *server) loadAdvancement(r *http.Request) (store.Advancement, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return store.Advancement{}, &requestError{field: "id", msg: "invalid advancement id"}
	}
	return s.store.GetAdvancement(r.Context(), id)
}

func parseScheduleID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &requestError{field: "id", msg: "invalid fee schedule id"}
	}
	return id, nil
}

func parseDecimal(raw, field string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, &requestError{field: field, msg: "is required"}
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, &requestError{field: field, msg: "must be a decimal number"}
	}
	return d, nil
}

func parseDate(raw, field string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, &requestError{field: field, msg: "is required"}
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, &requestError{field: field, msg: "must be a date in YYYY-MM-DD form"}
	}
	return t, nil
}
