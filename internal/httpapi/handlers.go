package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/DoyleJ11/yahtzee-backend/internal/apperr"
	"github.com/DoyleJ11/yahtzee-backend/internal/archive"
	"github.com/DoyleJ11/yahtzee-backend/internal/engine"
	"github.com/DoyleJ11/yahtzee-backend/internal/hub"
	"github.com/DoyleJ11/yahtzee-backend/internal/lobby"
	"github.com/DoyleJ11/yahtzee-backend/internal/types"
)

const (
	requestTimeout     = 3 * time.Second
	defaultResultLimit = 20
)

// ResultLister reads archived games. *archive.Store and archive.Nop satisfy it.
type ResultLister interface {
	Recent(ctx context.Context, limit int) ([]archive.GameRecord, error)
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// GetGame returns the public view of a live game.
func GetGame(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code, err := engine.ValidateCode(chi.URLParam(r, "code"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		lb, err := h.Get(ctx, code)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		reply := make(chan lobby.View, 1)
		if err := lb.Send(ctx, lobby.GetState{Reply: reply}); err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		select {
		case v := <-reply:
			writeJSON(w, http.StatusOK, v.Game)
		case <-lb.Done():
			writeError(w, http.StatusNotFound, apperr.GameNotFound(code))
		case <-ctx.Done():
			writeError(w, http.StatusServiceUnavailable, ctx.Err())
		}
	}
}

func Stats(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		st, err := h.Stats(ctx)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

// Results lists recently finished games, newest first.
func Results(results ResultLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultResultLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				writeError(w, http.StatusBadRequest,
					apperr.Validation("limit must be a positive integer", map[string]any{"field": "limit"}))
				return
			}
			limit = n
		}

		games, err := results.Recent(r.Context(), limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, games)
	}
}

func statusFor(err error) int {
	switch apperr.CodeOf(err) {
	case apperr.CodeGameNotFound:
		return http.StatusNotFound
	case apperr.CodeValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError uses the websocket error body so clients parse one shape.
func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, types.Failure(err).Error)
}
