package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/yahtzee-backend/internal/apperr"
	"github.com/DoyleJ11/yahtzee-backend/internal/archive"
	"github.com/DoyleJ11/yahtzee-backend/internal/hub"
	pub "github.com/DoyleJ11/yahtzee-backend/pkg/types"
)

type fakeLister struct {
	games []archive.GameRecord
	err   error
	limit int
}

func (f *fakeLister) Recent(_ context.Context, limit int) ([]archive.GameRecord, error) {
	f.limit = limit
	return f.games, f.err
}

func newTestRouter(t *testing.T, results ResultLister) (*hub.Hub, http.Handler) {
	t.Helper()
	h := hub.NewHub(context.Background(), hub.Options{})
	t.Cleanup(h.Shutdown)
	return h, SetupRoutes(Deps{Hub: h, Results: results, AllowedOrigins: []string{"http://localhost:5173"}})
}

func get(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) apperr.Code {
	t.Helper()
	var body struct {
		Code apperr.Code `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Code
}

func TestHealthz(t *testing.T) {
	_, r := newTestRouter(t, nil)
	rec := get(t, r, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetGame(t *testing.T) {
	h, r := newTestRouter(t, nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	lb, err := h.Create(ctx, "ada")
	require.NoError(t, err)

	t.Run("found", func(t *testing.T) {
		rec := get(t, r, "/games/"+lb.Code())
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var g pub.Game
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &g))
		assert.Equal(t, lb.Code(), g.GameCode)
		assert.Equal(t, "LOBBY", g.Phase)
		require.Len(t, g.Players, 1)
		assert.Equal(t, "ada", g.Players[0].Name)
		assert.True(t, g.Players[0].IsHost)
	})

	t.Run("lowercase code", func(t *testing.T) {
		rec := get(t, r, "/games/"+strings.ToLower(lb.Code()))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unknown", func(t *testing.T) {
		code := "ZZZZZZ"
		if lb.Code() == code {
			code = "YYYYYY"
		}
		rec := get(t, r, "/games/"+code)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, apperr.CodeGameNotFound, errorBody(t, rec))
	})

	t.Run("malformed", func(t *testing.T) {
		rec := get(t, r, "/games/abc1")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, apperr.CodeValidation, errorBody(t, rec))
	})
}

func TestStats(t *testing.T) {
	h, r := newTestRouter(t, nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := h.Create(ctx, "ada")
	require.NoError(t, err)
	_, err = h.Create(ctx, "bob")
	require.NoError(t, err)

	rec := get(t, r, "/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	var st pub.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, pub.Stats{TotalGames: 2, ActiveGames: 0, Players: 2}, st)
}

func TestResults(t *testing.T) {
	lister := &fakeLister{games: []archive.GameRecord{{
		Code: "ABCDEF",
		Players: []archive.PlayerResult{
			{Name: "ada", Total: 250, Rank: 1},
			{Name: "bob", Total: 180, Rank: 2},
		},
	}}}
	_, r := newTestRouter(t, lister)

	rec := get(t, r, "/results")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, defaultResultLimit, lister.limit)

	var games []archive.GameRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &games))
	require.Len(t, games, 1)
	assert.Equal(t, "ABCDEF", games[0].Code)
	assert.Len(t, games[0].Players, 2)

	rec = get(t, r, "/results?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, lister.limit)

	for _, bad := range []string{"0", "-1", "ten"} {
		rec = get(t, r, "/results?limit="+bad)
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
	}

	lister.err = errors.New("db down")
	rec = get(t, r, "/results")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, apperr.CodeInternal, errorBody(t, rec))
}

func TestResults_DefaultsToEmptyArchive(t *testing.T) {
	_, r := newTestRouter(t, nil)
	rec := get(t, r, "/results")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCORS(t *testing.T) {
	_, r := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/stats", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/stats", nil)
	req.Header.Set("Origin", "http://evil.test")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
