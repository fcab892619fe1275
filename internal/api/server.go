// Package api exposes a ledger session over HTTP as JSON.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cleared-dev/hubtab/internal/ledger"
	"github.com/cleared-dev/hubtab/internal/model"
	"github.com/cleared-dev/hubtab/internal/participants"
	"github.com/cleared-dev/hubtab/internal/session"
)

// Server is the hubtab HTTP API.
type Server struct {
	session        *session.Session
	logger         *slog.Logger
	metrics        *metrics
	metricsEnabled bool
}

// NewServer creates a Server over sess.
func NewServer(sess *session.Session, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{session: sess, logger: logger, metrics: newMetrics()}
}

// EnableMetrics mounts /metrics.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := s.session.Err(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "halted", "error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/balances", s.handleBalances)
		r.Get("/history", s.handleHistory)

		r.Get("/participants", s.handleListParticipants)
		r.Post("/participants", s.handleAddParticipant)
		r.Put("/participants/{name}", s.handleRenameParticipant)
		r.Put("/lender", s.handleSetLender)

		r.Post("/borrow", s.handleBorrow)
		r.Post("/repay", s.handleRepay)
		r.Post("/transfer", s.handleTransfer)
		r.Post("/settle", s.handleSettle)
		r.Delete("/transactions/last", s.handleUndo)
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))
	}
	return r
}

// ─── Wire types ─────────────────────────────────────────────────────────────

type balanceJSON struct {
	Name    string `json:"name"`
	Balance int64  `json:"balance"`
}

type balancesResponse struct {
	Lender   string        `json:"lender"`
	Total    int64         `json:"total"`
	Balances []balanceJSON `json:"balances"`
}

type entryJSON struct {
	Timestamp   string `json:"timestamp"`
	Type        string `json:"type"`
	Participant string `json:"participant"`
	Amount      int64  `json:"amount"`
	Balance     int64  `json:"balance"`
	Memo        string `json:"memo"`
}

type actionResponse struct {
	Records int              `json:"records"`
	Message string           `json:"message"`
	State   balancesResponse `json:"state"`
}

type borrowRequest struct {
	Targets []string `json:"targets"`
	Amount  int64    `json:"amount"`
	Split   string   `json:"split"` // per-person or even
	Memo    string   `json:"memo"`
}

type repayRequest struct {
	Payer  string `json:"payer"`
	Amount int64  `json:"amount"`
	Memo   string `json:"memo"`
}

type transferRequest struct {
	Taker   string `json:"taker"`
	Reducer string `json:"reducer"`
	Amount  int64  `json:"amount"`
	Reason  string `json:"reason"`
}

type nameRequest struct {
	Name string `json:"name"`
}

// ─── Handlers ───────────────────────────────────────────────────────────────

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	snap, err := s.session.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.metrics.observe(snap)
	writeJSON(w, http.StatusOK, toBalances(snap))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	snap, err := s.session.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]entryJSON, len(snap.History))
	for i, e := range snap.History {
		out[i] = entryJSON{
			Timestamp:   model.FormatTimestamp(e.Timestamp),
			Type:        string(e.Type),
			Participant: e.Participant,
			Amount:      e.Amount,
			Balance:     e.Balance,
			Memo:        e.Memo,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": out})
}

func (s *Server) handleListParticipants(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"lender":       s.session.Lender(),
		"participants": s.session.Participants(),
	})
}

func (s *Server) handleAddParticipant(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.session.AddParticipant(req.Name); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"participants": s.session.Participants()})
}

func (s *Server) handleRenameParticipant(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.session.RenameParticipant(chi.URLParam(r, "name"), req.Name); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"participants": s.session.Participants()})
}

func (s *Server) handleSetLender(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.session.SetLender(req.Name); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"lender": s.session.Lender()})
}

func (s *Server) handleBorrow(w http.ResponseWriter, r *http.Request) {
	var req borrowRequest
	if !decode(w, r, &req) {
		return
	}
	mode, err := ledger.ParseSplitMode(req.Split)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	res, err := s.session.Borrow(r.Context(), ledger.BorrowParams{
		Targets: req.Targets,
		Amount:  req.Amount,
		Mode:    mode,
		Memo:    req.Memo,
	})
	s.writeResult(w, res, err, "recorded", "pick at least one participant and a positive amount")
}

func (s *Server) handleRepay(w http.ResponseWriter, r *http.Request) {
	var req repayRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := s.session.Repay(r.Context(), req.Payer, req.Amount, req.Memo)
	s.writeResult(w, res, err, "repayment recorded", "amount must be positive")
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := s.session.Transfer(r.Context(), ledger.TransferParams{
		Taker:   req.Taker,
		Reducer: req.Reducer,
		Amount:  req.Amount,
		Reason:  req.Reason,
	})
	s.writeResult(w, res, err, "transfer recorded", "pick two different participants and a positive amount")
}

func (s *Server) handleSettle(w http.ResponseWriter, r *http.Request) {
	res, err := s.session.Settle(r.Context())
	s.writeResult(w, res, err, "balances reset to zero", "nothing to settle")
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	ok, snap, err := s.session.Undo(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.metrics.observe(snap)
	if !ok {
		writeJSON(w, http.StatusOK, actionResponse{Message: "no rows to delete", State: toBalances(snap)})
		return
	}
	writeJSON(w, http.StatusOK, actionResponse{Records: 1, Message: "removed last row", State: toBalances(snap)})
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func (s *Server) writeResult(w http.ResponseWriter, res session.Result, err error, done, skipped string) {
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.metrics.appended(res)
	s.metrics.observe(res.Snapshot)

	msg := done
	if res.Records == 0 {
		msg = skipped
	}
	writeJSON(w, http.StatusOK, actionResponse{Records: res.Records, Message: msg, State: toBalances(res.Snapshot)})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrHalted):
		status = http.StatusServiceUnavailable
		s.metrics.storeErrors.Inc()
	case errors.Is(err, participants.ErrDuplicate):
		status = http.StatusConflict
	case errors.Is(err, participants.ErrUnknown), errors.Is(err, participants.ErrEmptyName):
		status = http.StatusBadRequest
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func toBalances(snap session.Snapshot) balancesResponse {
	out := balancesResponse{Lender: snap.Lender, Total: snap.Total, Balances: make([]balanceJSON, len(snap.Rows))}
	for i, row := range snap.Rows {
		out.Balances[i] = balanceJSON{Name: row.Name, Balance: row.Balance}
	}
	return out
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
