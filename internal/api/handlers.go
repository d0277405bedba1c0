package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"privlib/internal/health"
	"privlib/internal/lifecycle"
)

func (s *Server) listRecords(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	records := s.ctrl.Filtered(r.URL.Query().Get("q"))
	out := make([]recordView, 0, len(records))
	for _, rec := range records {
		out = append(out, newRecordView(rec, now))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getRecord(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.ctrl.Record(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "NotFound", "Book not found")
		return
	}
	writeJSON(w, http.StatusOK, newRecordView(rec, s.now()))
}

func (s *Server) getStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, newStatsView(s.ctrl.Stats()))
}

func (s *Server) getStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Status())
}

// streamStatus sends the current notification, then every change, as
// server-sent events.
func (s *Server) streamStatus(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "StreamingUnsupported", "Streaming unsupported")
		return
	}
	updates, cancel := s.ctrl.Tracker().Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	send := func(v any) bool {
		raw, err := json.Marshal(v)
		if err != nil {
			return false
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", raw); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}
	if !send(s.ctrl.Status()) {
		return
	}
	for {
		select {
		case <-r.Context().Done():
			return
		case st, ok := <-updates:
			if !ok || !send(st) {
				return
			}
		}
	}
}

func (s *Server) getHistory(w http.ResponseWriter, _ *http.Request) {
	now := s.now()
	entries := s.ctrl.History(lifecycle.HistoryLimit)
	out := make([]historyView, 0, len(entries))
	for _, e := range entries {
		out = append(out, historyView{Entry: e, When: humanize.RelTime(e.Time, now, "ago", "from now")})
	}
	writeJSON(w, http.StatusOK, out)
}

type publishRequest struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	ISBN   string `json:"isbn"`
	Pages  string `json:"pages"`
}

func (s *Server) publish(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidInput", "Malformed request body")
		return
	}
	res, err := s.ctrl.Publish(r.Context(), lifecycle.PublishInput{
		Title:  req.Title,
		Author: req.Author,
		ISBN:   req.ISBN,
		Pages:  req.Pages,
	})
	if err != nil {
		writeControllerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":      res.ID,
		"tx_hash": res.TxHash,
	})
}

func (s *Server) disclose(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	d, err := s.ctrl.Disclose(r.Context(), id)
	if err != nil {
		writeControllerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":               d.RecordID,
		"verified_pages":   d.Value,
		"cached":           d.Cached,
		"already_verified": d.AlreadyVerified,
		"tx_hash":          d.TxHash,
	})
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.Refresh(r.Context()); err != nil {
		writeControllerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newStatsView(s.ctrl.Stats()))
}

func (s *Server) checkAvailability(w http.ResponseWriter, r *http.Request) {
	ok, err := s.ctrl.CheckAvailability(r.Context())
	if err != nil {
		writeControllerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"available": ok})
}

func (s *Server) getForm(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Form())
}

func (s *Server) updateForm(w http.ResponseWriter, r *http.Request) {
	var f lifecycle.Form
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidInput", "Malformed request body")
		return
	}
	s.ctrl.UpdateForm(f.Title, f.Author, f.ISBN, f.Pages)
	if f.Open {
		s.ctrl.OpenForm()
	} else {
		s.ctrl.CloseForm()
	}
	writeJSON(w, http.StatusOK, s.ctrl.Form())
}

func (s *Server) submitForm(w http.ResponseWriter, r *http.Request) {
	res, err := s.ctrl.SubmitForm(r.Context())
	if err != nil {
		writeControllerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":      res.ID,
		"tx_hash": res.TxHash,
	})
}

type connectRequest struct {
	Address string `json:"address"`
}

// connect binds the wallet and loads the library, like a wallet connection
// in the browser client.
func (s *Server) connect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidInput", "Malformed request body")
		return
	}
	if err := s.wallet.Connect(req.Address); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidInput", err.Error())
		return
	}
	s.log.Audit("wallet_connected", map[string]interface{}{"address": s.wallet.Address()})
	if err := s.ctrl.Load(r.Context()); err != nil {
		s.log.Warn("initial load failed", zap.Error(err))
	}
	s.getWallet(w, r)
}

func (s *Server) disconnect(w http.ResponseWriter, r *http.Request) {
	s.wallet.Disconnect()
	s.getWallet(w, r)
}

func (s *Server) getWallet(w http.ResponseWriter, _ *http.Request) {
	addr, ok := s.wallet.Account()
	writeJSON(w, http.StatusOK, map[string]any{
		"connected": ok,
		"address":   addr,
		"contract":  s.ctrl.ContractAddress(),
	})
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
		return
	}
	h := s.health.CheckHealth(r.Context())
	code := http.StatusOK
	if h.OverallStatus == health.Unhealthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, health.CreateHealthResponse(h))
}
