package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/xraph/taxledger"
	"github.com/xraph/taxledger/entry"
	"github.com/xraph/taxledger/eventlog"
	"github.com/xraph/taxledger/ledger"
	"github.com/xraph/taxledger/report"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // client went away
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeEngineError maps engine errors onto status codes.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case taxledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case taxledger.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"ledgers":   len(s.engine.Owners()),
		"next_tick": s.engine.NextTick().String(),
	})
}

// ──────────────────────────────────────────────────
// Ledgers
// ──────────────────────────────────────────────────

type ledgerSummary struct {
	Owner   string             `json:"owner"`
	Summary string             `json:"summary"`
	Owes    map[string]float64 `json:"owes"`
	Due     map[string]float64 `json:"due"`
}

func (s *Server) handleListLedgers(w http.ResponseWriter, r *http.Request) {
	owners := s.engine.Owners()
	out := make([]ledgerSummary, 0, len(owners))
	for _, owner := range owners {
		l, err := s.engine.Lookup(owner)
		if err != nil {
			continue
		}
		card := l.Card()
		out = append(out, ledgerSummary{
			Owner:   owner,
			Summary: card.Summary(),
			Owes:    card.Owes,
			Due:     card.Due,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"ledgers": out})
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*ledger.Ledger, bool) {
	l, err := s.engine.Lookup(chi.URLParam(r, "owner"))
	if err != nil {
		writeEngineError(w, err)
		return nil, false
	}
	return l, true
}

func (s *Server) handleCard(w http.ResponseWriter, r *http.Request) {
	l, ok := s.lookup(w, r)
	if !ok {
		return
	}
	card := l.Card()
	writeJSON(w, http.StatusOK, map[string]any{
		"card":    card,
		"summary": card.Summary(),
	})
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	l, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(l.Log().Render())) //nolint:errcheck // client went away
		return
	}
	events := l.Log().Events()
	if events == nil {
		events = []eventlog.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"events":    events,
		"truncated": l.Log().Truncated(),
	})
}

func (s *Server) handleOwed(w http.ResponseWriter, r *http.Request) {
	l, ok := s.lookup(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	currency := q.Get("currency")
	if currency == "" {
		writeError(w, http.StatusBadRequest, "currency is required")
		return
	}
	account := q.Get("account")
	rebates := true
	if v := q.Get("rebates"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "rebates must be a boolean")
			return
		}
		rebates = b
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"currency": currency,
		"account":  account,
		"taxes":    l.OwedTaxes(currency, account, rebates),
		"payments": l.OwedPayments(currency, account),
	})
}

// ──────────────────────────────────────────────────
// Reports
// ──────────────────────────────────────────────────

func (s *Server) handleLedgerReport(w http.ResponseWriter, r *http.Request) {
	l, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeReport(w, r, l.Report())
}

func (s *Server) handleRollupReport(w http.ResponseWriter, r *http.Request) {
	ru, err := s.engine.LookupRollup(chi.URLParam(r, "account"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	s.writeReport(w, r, ru.Report())
}

func (s *Server) writeReport(w http.ResponseWriter, r *http.Request, rep *report.Report) {
	kind, err := report.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	q := r.URL.Query()
	currency := q.Get("currency")
	if currency == "" {
		writeError(w, http.StatusBadRequest, "currency is required")
		return
	}

	f := report.Filter{Account: q.Get("account"), Code: q.Get("code")}
	rng, err := parseRange(q.Get("from"), q.Get("to"), q.Get("relative"), rep.Today())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	f.Range = rng

	writeJSON(w, http.StatusOK, map[string]any{
		"kind":     kind,
		"currency": currency,
		"range":    rng,
		"amount":   rep.Query(kind, currency, f),
	})
}

// parseRange reads a day range. A single bound selects one day; no bounds
// select the running total.
func parseRange(from, to, relative string, today int) (*report.Range, error) {
	if from == "" && to == "" {
		return nil, nil
	}
	if from == "" {
		from = to
	}
	if to == "" {
		to = from
	}
	a, err := strconv.ParseFloat(from, 64)
	if err != nil {
		return nil, fmt.Errorf("from: %w", err)
	}
	b, err := strconv.ParseFloat(to, 64)
	if err != nil {
		return nil, fmt.Errorf("to: %w", err)
	}

	rel := false
	if relative != "" {
		if rel, err = strconv.ParseBool(relative); err != nil {
			return nil, errors.New("relative must be a boolean")
		}
	}
	var rng report.Range
	if rel {
		rng = report.Relative(today, a, b)
	} else {
		rng = report.Absolute(a, b)
	}
	return &rng, nil
}

// ──────────────────────────────────────────────────
// Recording
// ──────────────────────────────────────────────────

func decode[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return v, false
	}
	return v, true
}

func writeRecorded(w http.ResponseWriter, recorded bool, err error) {
	if err != nil {
		writeEngineError(w, err)
		return
	}
	status := http.StatusAccepted
	if recorded {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]bool{"recorded": recorded})
}

func (s *Server) handleRecordDebt(w http.ResponseWriter, r *http.Request) {
	d, ok := decode[entry.Debt](w, r)
	if !ok {
		return
	}
	recorded, err := s.engine.RecordDebt(r.Context(), chi.URLParam(r, "owner"), d)
	writeRecorded(w, recorded, err)
}

func (s *Server) handleRecordRebate(w http.ResponseWriter, r *http.Request) {
	rb, ok := decode[entry.Rebate](w, r)
	if !ok {
		return
	}
	recorded, err := s.engine.RecordRebate(r.Context(), chi.URLParam(r, "owner"), rb)
	writeRecorded(w, recorded, err)
}

func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	p, ok := decode[entry.PaymentCredit](w, r)
	if !ok {
		return
	}
	recorded, err := s.engine.RecordPayment(r.Context(), chi.URLParam(r, "owner"), p)
	writeRecorded(w, recorded, err)
}

// ──────────────────────────────────────────────────
// Settlement
// ──────────────────────────────────────────────────

type tickSummary struct {
	Owner       string             `json:"owner"`
	Voided      int                `json:"voided"`
	Settlements int                `json:"settlements"`
	Payouts     int                `json:"payouts"`
	Collections int                `json:"collections"`
	Collected   map[string]float64 `json:"collected,omitempty"`
	PaidOut     map[string]float64 `json:"paid_out,omitempty"`
	Receipt     string             `json:"receipt,omitempty"`
	Error       string             `json:"error,omitempty"`
}

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	results, err := s.engine.TickAll(r.Context())

	out := make([]tickSummary, 0, len(results))
	for _, res := range results {
		ts := tickSummary{
			Owner:       res.Owner,
			Voided:      res.Voided,
			Settlements: res.Settlements,
			Payouts:     res.Payouts,
			Collections: res.Collections,
			Collected:   res.Collected,
			PaidOut:     res.PaidOut,
		}
		if res.Receipt != nil {
			ts.Receipt = res.Receipt.Reference
		}
		if res.TransferErr != nil {
			ts.Error = res.TransferErr.Error()
		}
		out = append(out, ts)
	}

	body := map[string]any{"results": out}
	if err != nil {
		s.logger.Error("tick persisted with errors", "error", err)
		body["error"] = err.Error()
		writeJSON(w, http.StatusInternalServerError, body)
		return
	}
	writeJSON(w, http.StatusOK, body)
}
