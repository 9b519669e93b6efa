package hub

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/yahtzee-backend/internal/apperr"
	"github.com/DoyleJ11/yahtzee-backend/internal/engine"
	"github.com/DoyleJ11/yahtzee-backend/internal/lobby"
	pub "github.com/DoyleJ11/yahtzee-backend/pkg/types"
)

const (
	DefaultIdleTimeout   = 30 * time.Minute
	DefaultSweepInterval = 5 * time.Minute
)

var errShuttingDown = apperr.New(apperr.CodeInternal, "Server is shutting down")

type HubMsg interface{ isHubMsg() }

type CreateSession struct {
	Host  string
	Reply chan CreateResult
}

type CreateResult struct {
	Lobby *lobby.Lobby
	Err   error
}

type GetSession struct {
	Code  string
	Reply chan *lobby.Lobby
}

// RemoveIfEmpty drops the session only if its roster is still empty when
// the hub gets to it.
type RemoveIfEmpty struct {
	Code string
}

// DiscardSession drops a session whose host never got attached. It only
// acts while Lobby is still the one registered under its code.
type DiscardSession struct {
	Lobby *lobby.Lobby
}

type GetStats struct {
	Reply chan pub.Stats
}

type ShutdownHub struct{}

func (CreateSession) isHubMsg()  {}
func (GetSession) isHubMsg()     {}
func (RemoveIfEmpty) isHubMsg()  {}
func (DiscardSession) isHubMsg() {}
func (GetStats) isHubMsg()       {}
func (ShutdownHub) isHubMsg()    {}

type Options struct {
	IdleTimeout   time.Duration
	SweepInterval time.Duration
	Recorder      lobby.Recorder
	Logger        *zap.Logger
	Now           func() time.Time
	// GenerateCode defaults to GenerateCode.
	GenerateCode func() (string, error)
}

type Hub struct {
	inbox   chan HubMsg
	lobbies map[string]*lobby.Lobby
	opts    Options
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewHub(parent context.Context, opts Options) *Hub {
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = DefaultSweepInterval
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.GenerateCode == nil {
		opts.GenerateCode = GenerateCode
	}

	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:   make(chan HubMsg, 64),
		lobbies: make(map[string]*lobby.Lobby),
		opts:    opts,
		log:     opts.Logger.Named("hub"),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) Done() <-chan struct{} { return h.done }

func (h *Hub) loop() {
	defer close(h.done)
	ticker := time.NewTicker(h.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case <-ticker.C:
			h.sweep()

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateSession:
				lb, err := h.create(msg.Host)
				msg.Reply <- CreateResult{Lobby: lb, Err: err}

			case GetSession:
				msg.Reply <- h.lobbies[msg.Code] // May be nil

			case RemoveIfEmpty:
				lb := h.lobbies[msg.Code]
				if lb == nil || lb.PlayerCount() > 0 {
					break
				}
				delete(h.lobbies, msg.Code)
				lb.Close()
				h.log.Info("session removed", zap.String("game_code", msg.Code))

			case DiscardSession:
				code := msg.Lobby.Code()
				if h.lobbies[code] == msg.Lobby {
					delete(h.lobbies, code)
					h.log.Info("session discarded", zap.String("game_code", code))
				}
				msg.Lobby.Close()

			case GetStats:
				msg.Reply <- h.stats()

			case ShutdownHub:
				h.shutdown()
				h.cancel()
				return
			}
		}
	}
}

func (h *Hub) create(host string) (*lobby.Lobby, error) {
	var code string
	for {
		c, err := h.opts.GenerateCode()
		if err != nil {
			return nil, apperr.Wrap(apperr.CodeInternal, "An internal error occurred", err)
		}
		if h.lobbies[c] == nil {
			code = c
			break
		}
		h.log.Debug("collision on code, regenerating", zap.String("game_code", c))
	}

	s := engine.NewSession(code, engine.NewPlayer(host, "", true), engine.WithClock(h.opts.Now))
	lb := lobby.NewLobby(h.ctx, lobby.Config{
		Session:  s,
		Recorder: h.opts.Recorder,
		Logger:   h.opts.Logger.Named("lobby"),
		OnEmpty:  h.removeIfEmpty,
	})
	h.lobbies[code] = lb
	h.log.Info("session created", zap.String("game_code", code), zap.String("host", host))
	return lb, nil
}

// removeIfEmpty is handed to lobbies; it never blocks the caller.
func (h *Hub) removeIfEmpty(code string) {
	go func() {
		select {
		case h.inbox <- RemoveIfEmpty{Code: code}:
		case <-h.ctx.Done():
		}
	}()
}

// sweep evicts every session idle for longer than the idle timeout, whatever
// its player count.
func (h *Hub) sweep() {
	cutoff := h.opts.Now().Add(-h.opts.IdleTimeout)
	evicted := 0
	for code, lb := range h.lobbies {
		if lb.LastActivity().After(cutoff) {
			continue
		}
		delete(h.lobbies, code)
		lb.Close()
		evicted++
		h.log.Info("session evicted",
			zap.String("game_code", code),
			zap.Time("last_activity", lb.LastActivity()))
	}
	if evicted > 0 {
		h.log.Info("sweep finished", zap.Int("evicted", evicted), zap.Int("remaining", len(h.lobbies)))
	}
}

func (h *Hub) stats() pub.Stats {
	st := pub.Stats{TotalGames: len(h.lobbies)}
	for _, lb := range h.lobbies {
		if lb.Started() {
			st.ActiveGames++
		}
		st.Players += lb.PlayerCount()
	}
	return st
}

func (h *Hub) shutdown() {
	for _, lb := range h.lobbies {
		select {
		case lb.Inbox() <- lobby.Shutdown{}:
		default:
			lb.Close()
		}
	}
	clear(h.lobbies)
}

// Create starts a new session hosted by host and returns its lobby.
func (h *Hub) Create(ctx context.Context, host string) (*lobby.Lobby, error) {
	reply := make(chan CreateResult, 1)
	if err := h.send(ctx, CreateSession{Host: host, Reply: reply}); err != nil {
		return nil, err
	}
	select {
	case res := <-reply:
		return res.Lobby, res.Err
	case <-h.done:
		return nil, errShuttingDown
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Get returns the lobby for code or a GAME_NOT_FOUND error.
func (h *Hub) Get(ctx context.Context, code string) (*lobby.Lobby, error) {
	reply := make(chan *lobby.Lobby, 1)
	if err := h.send(ctx, GetSession{Code: code, Reply: reply}); err != nil {
		return nil, err
	}
	select {
	case lb := <-reply:
		if lb == nil {
			return nil, apperr.GameNotFound(code)
		}
		return lb, nil
	case <-h.done:
		return nil, errShuttingDown
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *Hub) Stats(ctx context.Context) (pub.Stats, error) {
	reply := make(chan pub.Stats, 1)
	if err := h.send(ctx, GetStats{Reply: reply}); err != nil {
		return pub.Stats{}, err
	}
	select {
	case st := <-reply:
		return st, nil
	case <-h.done:
		return pub.Stats{}, errShuttingDown
	case <-ctx.Done():
		return pub.Stats{}, ctx.Err()
	}
}

// Discard drops lb when its host could not be attached to it.
func (h *Hub) Discard(lb *lobby.Lobby) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := h.send(ctx, DiscardSession{Lobby: lb}); err != nil {
		lb.Close()
	}
}

// Shutdown stops every lobby and the hub itself.
func (h *Hub) Shutdown() {
	select {
	case h.inbox <- ShutdownHub{}:
	case <-h.done:
	}
	<-h.done
}

func (h *Hub) send(ctx context.Context, m HubMsg) error {
	select {
	case h.inbox <- m:
		return nil
	case <-h.done:
		return errShuttingDown
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GenerateCode returns six random uppercase letters.
func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	code := make([]byte, engine.CodeLength)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}
