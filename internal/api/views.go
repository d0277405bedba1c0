package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"privlib/internal/lifecycle"
	"privlib/internal/record"
)

type recordView struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	ISBN      string `json:"isbn"`
	Pages     uint64 `json:"pages"`
	Creator   string `json:"creator"`
	CreatedAt int64  `json:"created_at"`
	Added     string `json:"added"`
	Disclosed bool   `json:"disclosed"`
	// VerifiedPages is only present once the value was verified on-chain.
	VerifiedPages *uint64 `json:"verified_pages,omitempty"`
}

func newRecordView(r record.Record, now time.Time) recordView {
	v := recordView{
		ID:        r.ID,
		Title:     r.Title,
		Author:    r.Author,
		ISBN:      r.ISBN,
		Pages:     r.PublicValue1,
		Creator:   r.Creator,
		CreatedAt: r.CreatedAt,
		Added:     humanize.RelTime(time.Unix(r.CreatedAt, 0), now, "ago", "from now"),
		Disclosed: r.Disclosed,
	}
	if value, ok := r.Revealed(); ok {
		v.VerifiedPages = &value
	}
	return v
}

type statsView struct {
	record.Stats
	AvgPagesText string `json:"avg_pages_text"`
	Summary      string `json:"summary"`
}

func newStatsView(st record.Stats) statsView {
	return statsView{
		Stats:        st,
		AvgPagesText: humanize.CommafWithDigits(st.AvgPages, 1),
		Summary: humanize.Comma(int64(st.TotalBooks)) + " books, " +
			humanize.Comma(int64(st.VerifiedBooks)) + " verified",
	}
}

type historyView struct {
	lifecycle.Entry
	When string `json:"when"`
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	var body errorBody
	body.Error.Code = code
	body.Error.Message = message
	writeJSON(w, status, body)
}

// writeControllerError maps a classified workflow failure to a response.
func writeControllerError(w http.ResponseWriter, err error) {
	kind := lifecycle.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case lifecycle.NotConnected:
		status = http.StatusUnauthorized
	case lifecycle.InvalidInput:
		status = http.StatusBadRequest
	case lifecycle.Busy, lifecycle.UserCancelled:
		status = http.StatusConflict
	case lifecycle.LedgerWriteFailure, lifecycle.DisclosureFailure, lifecycle.ReloadFailure:
		status = http.StatusBadGateway
	}
	writeError(w, status, kind.String(), err.Error())
}
