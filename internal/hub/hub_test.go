package hub

import (
	"context"
	"regexp"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/DoyleJ11/yahtzee-backend/internal/apperr"
	"github.com/DoyleJ11/yahtzee-backend/internal/engine"
	"github.com/DoyleJ11/yahtzee-backend/internal/lobby"
	"github.com/DoyleJ11/yahtzee-backend/internal/types"
)

type fakeClock struct{ ns atomic.Int64 }

func newFakeClock(t time.Time) *fakeClock {
	c := &fakeClock{}
	c.ns.Store(t.UnixNano())
	return c
}

func (c *fakeClock) Now() time.Time { return time.Unix(0, c.ns.Load()) }

func (c *fakeClock) Advance(d time.Duration) { c.ns.Add(int64(d)) }

func newTestHub(t *testing.T, opts Options) *Hub {
	t.Helper()
	h := NewHub(context.Background(), opts)
	t.Cleanup(h.Shutdown)
	return h
}

func joinPlayer(t *testing.T, lb *lobby.Lobby, clientID, name string) chan types.ServerMessage {
	t.Helper()
	out := make(chan types.ServerMessage, 16)
	reply := make(chan error, 1)
	err := lb.Request(context.Background(), lobby.Join{Bind: lobby.Bind{
		ClientID: clientID, Name: name, Outbox: out, Reply: reply,
	}}, reply)
	require.NoError(t, err)
	return out
}

func TestHub_Create_Get_SamePointer(t *testing.T) {
	ctx := context.Background()
	h := newTestHub(t, Options{})

	lb1, err := h.Create(ctx, "ada")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[A-Z]{6}$`), lb1.Code())

	lb2, err := h.Get(ctx, lb1.Code())
	require.NoError(t, err)
	assert.Same(t, lb1, lb2)

	_, err = h.Get(ctx, "NOPENO")
	assert.Equal(t, apperr.CodeGameNotFound, apperr.CodeOf(err))
}

func TestHub_Create_RegeneratesOnCollision(t *testing.T) {
	codes := []string{"AAAAAA", "AAAAAA", "BBBBBB"}
	var i atomic.Int32
	h := newTestHub(t, Options{GenerateCode: func() (string, error) {
		return codes[i.Add(1)-1], nil
	}})

	first, err := h.Create(context.Background(), "ada")
	require.NoError(t, err)
	second, err := h.Create(context.Background(), "bob")
	require.NoError(t, err)

	assert.Equal(t, "AAAAAA", first.Code())
	assert.Equal(t, "BBBBBB", second.Code())
}

func TestHub_RemoveIfEmpty(t *testing.T) {
	ctx := context.Background()
	h := newTestHub(t, Options{})
	lb, err := h.Create(ctx, "ada")
	require.NoError(t, err)

	h.Inbox() <- RemoveIfEmpty{Code: lb.Code()}
	_, err = h.Get(ctx, lb.Code())
	require.NoError(t, err, "a session with players is kept")

	// The host never bound a connection; leaving the last seat empties it.
	out := joinPlayer(t, lb, "c2", "bob")
	require.NoError(t, lb.Send(ctx, lobby.Leave{ClientID: "c2"}))
	for range out {
	}

	// ada has no connection, so remove her through a bound client.
	hostOut := make(chan types.ServerMessage, 16)
	reply := make(chan error, 1)
	require.NoError(t, lb.Request(ctx, lobby.Attach{Bind: lobby.Bind{
		ClientID: "c1", Name: "ada", Outbox: hostOut, Reply: reply,
	}}, reply))
	require.NoError(t, lb.Send(ctx, lobby.Leave{ClientID: "c1"}))

	require.Eventually(t, func() bool {
		_, err := h.Get(ctx, lb.Code())
		return apperr.CodeOf(err) == apperr.CodeGameNotFound
	}, time.Second, 10*time.Millisecond)

	select {
	case <-lb.Done():
	case <-time.After(time.Second):
		t.Fatalf("removed lobby was not stopped")
	}
}

func TestHub_Discard(t *testing.T) {
	ctx := context.Background()
	h := newTestHub(t, Options{GenerateCode: func() (string, error) { return "AAAAAA", nil }})

	lb, err := h.Create(ctx, "ada")
	require.NoError(t, err)
	h.Discard(lb)

	select {
	case <-lb.Done():
	case <-time.After(time.Second):
		t.Fatalf("discarded lobby still running")
	}
	_, err = h.Get(ctx, "AAAAAA")
	assert.Equal(t, apperr.CodeGameNotFound, apperr.CodeOf(err))
	st, err := h.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, st.TotalGames)

	// A stale discard leaves the session now holding the code alone.
	fresh, err := h.Create(ctx, "bob")
	require.NoError(t, err)
	h.Discard(lb)
	got, err := h.Get(ctx, "AAAAAA")
	require.NoError(t, err)
	assert.Same(t, fresh, got)
}

func TestHub_LoggerNames(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := newTestHub(t, Options{Logger: zap.New(core)})

	lb, err := h.Create(context.Background(), "ada")
	require.NoError(t, err)
	joinPlayer(t, lb, "c2", "bob")

	created := logs.FilterMessage("session created").All()
	require.Len(t, created, 1)
	assert.Equal(t, "hub", created[0].LoggerName)

	require.Eventually(t, func() bool {
		return logs.FilterMessage("player joined").Len() == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "lobby", logs.FilterMessage("player joined").All()[0].LoggerName)
}

func TestHub_SweepEvictsIdleSessions(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	h := newTestHub(t, Options{
		IdleTimeout:   30 * time.Minute,
		SweepInterval: 5 * time.Millisecond,
		Now:           clock.Now,
	})

	idle, err := h.Create(ctx, "ada")
	require.NoError(t, err)
	busy, err := h.Create(ctx, "bob")
	require.NoError(t, err)

	clock.Advance(20 * time.Minute)
	joinPlayer(t, busy, "c2", "cy")
	clock.Advance(20 * time.Minute)

	require.Eventually(t, func() bool {
		_, err := h.Get(ctx, idle.Code())
		return err != nil
	}, time.Second, 10*time.Millisecond)

	_, err = h.Get(ctx, busy.Code())
	require.NoError(t, err, "recently active session survives")

	select {
	case <-idle.Done():
	case <-time.After(time.Second):
		t.Fatalf("evicted lobby was not stopped")
	}
}

func TestHub_Stats(t *testing.T) {
	ctx := context.Background()
	h := newTestHub(t, Options{})

	lb, err := h.Create(ctx, "ada")
	require.NoError(t, err)
	_, err = h.Create(ctx, "bob")
	require.NoError(t, err)
	joinPlayer(t, lb, "c2", "cy")

	hostOut := make(chan types.ServerMessage, 16)
	reply := make(chan error, 1)
	require.NoError(t, lb.Request(ctx, lobby.Attach{Bind: lobby.Bind{
		ClientID: "c1", Name: "ada", Outbox: hostOut, Reply: reply,
	}}, reply))
	actReply := make(chan error, 1)
	require.NoError(t, lb.Request(ctx, lobby.Action{
		ClientID: "c1",
		Cmd:      engine.Command{Type: engine.CmdStartGame},
		Reply:    actReply,
	}, actReply))

	st, err := h.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.TotalGames)
	assert.Equal(t, 1, st.ActiveGames)
	assert.Equal(t, 3, st.Players)
}

func TestHub_ShutdownStopsLobbies(t *testing.T) {
	h := NewHub(context.Background(), Options{})
	lb, err := h.Create(context.Background(), "ada")
	require.NoError(t, err)

	h.Shutdown()

	select {
	case <-lb.Done():
	case <-time.After(time.Second):
		t.Fatalf("lobby survived hub shutdown")
	}
	_, err = h.Create(context.Background(), "bob")
	assert.Error(t, err)
}

func TestGenerateCode(t *testing.T) {
	for range 50 {
		code, err := GenerateCode()
		require.NoError(t, err)
		_, err = engine.ValidateCode(code)
		require.NoError(t, err, code)
	}
}
