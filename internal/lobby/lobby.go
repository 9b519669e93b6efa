package lobby

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/yahtzee-backend/internal/apperr"
	"github.com/DoyleJ11/yahtzee-backend/internal/archive"
	"github.com/DoyleJ11/yahtzee-backend/internal/engine"
	"github.com/DoyleJ11/yahtzee-backend/internal/types"
	pub "github.com/DoyleJ11/yahtzee-backend/pkg/types"
)

const (
	inboxSize     = 64
	recordTimeout = 10 * time.Second
)

type Msg interface{ isLobbyMsg() }

// Bind ties a connection to a player name. Outbox receives every frame the
// lobby sends that connection; the lobby closes it when the binding ends.
// Reply must have room for one value.
type Bind struct {
	ClientID string
	Name     string
	Outbox   chan types.ServerMessage
	Reply    chan error
}

// Attach binds the host connection of a freshly created lobby.
type Attach struct{ Bind }

func (Attach) isLobbyMsg() {}

type Join struct{ Bind }

func (Join) isLobbyMsg() {}

type Rejoin struct{ Bind }

func (Rejoin) isLobbyMsg() {}

// Action runs a game command on behalf of a bound connection.
type Action struct {
	ClientID string
	Cmd      engine.Command
	Reply    chan error
}

func (Action) isLobbyMsg() {}

type Leave struct{ ClientID string }

func (Leave) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

type View struct {
	Game       pub.Game
	NumClients int
}

// Recorder stores finished games. *archive.Store and archive.Nop satisfy it.
type Recorder interface {
	Record(ctx context.Context, r archive.Result) error
}

type Config struct {
	Session  *engine.Session
	Recorder Recorder
	Logger   *zap.Logger
	// OnEmpty is called from the lobby goroutine once the roster is empty.
	// It must not block.
	OnEmpty func(code string)
}

type client struct {
	name   string
	outbox chan types.ServerMessage
}

type Lobby struct {
	code      string
	inbox     chan Msg
	session   *engine.Session
	clients   map[string]*client
	recorder  Recorder
	log       *zap.Logger
	onEmpty   func(code string)
	startedAt time.Time

	lastActivity atomic.Int64
	players      atomic.Int32
	started      atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func NewLobby(parent context.Context, cfg Config) *Lobby {
	ctx, cancel := context.WithCancel(parent)

	rec := cfg.Recorder
	if rec == nil {
		rec = archive.Nop{}
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	onEmpty := cfg.OnEmpty
	if onEmpty == nil {
		onEmpty = func(string) {}
	}

	l := &Lobby{
		code:     cfg.Session.Code,
		inbox:    make(chan Msg, inboxSize),
		session:  cfg.Session,
		clients:  make(map[string]*client),
		recorder: rec,
		log:      log.With(zap.String("game_code", cfg.Session.Code)),
		onEmpty:  onEmpty,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	l.publish()

	go l.loop()
	return l
}

func (l *Lobby) loop() {
	defer close(l.done)
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			// Figures are published before replying so a caller that got its
			// reply also sees the counters that reply implies.
			switch msg := m.(type) {
			case Attach:
				err := l.attach(msg.Bind)
				l.publish()
				msg.Reply <- err

			case Join:
				err := l.join(msg.Bind)
				l.publish()
				msg.Reply <- err

			case Rejoin:
				err := l.rejoin(msg.Bind)
				l.publish()
				msg.Reply <- err

			case Action:
				err := l.action(msg)
				l.publish()
				msg.Reply <- err

			case Leave:
				l.leave(msg.ClientID)
				l.publish()

			case GetState:
				msg.Reply <- View{
					Game:       GameView(l.session),
					NumClients: len(l.clients),
				}

			case Shutdown:
				l.shutdown()
				return
			}
		}
	}
}

func (l *Lobby) attach(b Bind) error {
	p := l.session.PlayerByName(b.Name)
	if p == nil || !p.IsHost || l.session.Started() {
		return apperr.InvalidAction("host-game", "Lobby is not waiting for its host")
	}
	if l.bound(b.Name) {
		return engine.ErrPlayerNameTaken.WithDetails(map[string]any{"playerName": b.Name})
	}
	l.register(b)
	l.send(b.ClientID, types.Success(pub.EvtJoinLobby, pub.JoinLobby{Game: GameView(l.session), Player: PlayerView(p)}))
	l.log.Info("game hosted", zap.String("player", p.Name))
	return nil
}

func (l *Lobby) join(b Bind) error {
	p := engine.NewPlayer(b.Name, l.session.NextColor(), false)
	if err := l.session.AddPlayer(p); err != nil {
		return err
	}
	l.register(b)
	l.send(b.ClientID, types.Success(pub.EvtJoinLobby, pub.JoinLobby{Game: GameView(l.session), Player: PlayerView(p)}))
	l.broadcast(types.Success(pub.EvtPlayerJoin, pub.PlayerJoin{Player: PlayerView(p)}))
	l.log.Info("player joined", zap.String("player", p.Name), zap.Int("players", len(l.session.Players)))
	return nil
}

func (l *Lobby) rejoin(b Bind) error {
	wasFinished := l.session.Finished()
	if _, err := l.session.ReconnectPlayer(b.Name); err != nil {
		return err
	}
	p := l.session.PlayerByName(b.Name)
	l.register(b)
	l.send(b.ClientID, types.Success(pub.EvtJoinLobby, pub.JoinLobby{Game: GameView(l.session), Player: PlayerView(p)}))
	l.broadcast(types.Success(pub.EvtPlayerRejoined, pub.PlayerJoin{Player: PlayerView(p)}))
	l.log.Info("player rejoined", zap.String("player", p.Name))
	if !wasFinished && l.session.Finished() {
		l.finish()
	}
	return nil
}

// action resolves the connection to its player before applying the command,
// so a rejoin under a new connection keeps working.
func (l *Lobby) action(a Action) error {
	c, ok := l.clients[a.ClientID]
	if !ok {
		return apperr.New(apperr.CodeNotConnected, "Not connected to any game")
	}
	if l.session.PlayerByName(c.name) == nil {
		return &apperr.Error{
			Code:    apperr.CodePlayerNotFound,
			Message: "Player " + c.name + " not found",
			Details: map[string]any{"playerName": c.name},
		}
	}

	cmd := a.Cmd
	cmd.Player = c.name
	events, err := engine.Apply(l.session, cmd)
	if err != nil {
		l.log.Debug("command rejected",
			zap.String("player", c.name),
			zap.String("command", string(cmd.Type)),
			zap.Error(err))
		return err
	}

	if engine.ContainsEvent(events, engine.EvtGameStarted) {
		l.startedAt = l.session.LastActivityAt
		l.log.Info("game started", zap.Int("players", len(l.session.Players)))
	}
	for _, ev := range events {
		if ev.Type == engine.EvtGameFinished {
			l.record(ev.Standings)
		}
		l.broadcast(wireEvent(l.session, ev))
	}
	return nil
}

func (l *Lobby) leave(clientID string) {
	c, ok := l.clients[clientID]
	if !ok {
		return
	}
	delete(l.clients, clientID)
	close(c.outbox)
	l.depart(c.name)
}

// depart handles a player whose connection went away. Started games keep the
// seat for a rejoin; lobbies drop the player.
func (l *Lobby) depart(name string) {
	if l.bound(name) {
		return
	}
	p := l.session.PlayerByName(name)
	if p == nil {
		return
	}

	if l.session.Started() {
		if !p.Connected {
			return
		}
		wasFinished := l.session.Finished()
		if _, err := l.session.DisconnectPlayer(name); err != nil {
			l.log.Warn("disconnect failed", zap.String("player", name), zap.Error(err))
			return
		}
		l.broadcast(types.Success(pub.EvtPlayerLeftInGame, pub.PlayerLeftInGame{
			Player:     PlayerView(p),
			PlayerTurn: l.session.Turn.CurrentPlayerIndex,
		}))
		l.log.Info("player disconnected", zap.String("player", name))
		if !wasFinished && l.session.Finished() {
			l.finish()
		}
		return
	}

	left, err := l.session.RemovePlayer(name)
	if err != nil {
		l.log.Warn("remove failed", zap.String("player", name), zap.Error(err))
		return
	}
	l.log.Info("player left", zap.String("player", name), zap.Int("players", left))
	if left == 0 {
		l.players.Store(0)
		l.onEmpty(l.code)
		return
	}
	l.broadcast(types.Success(pub.EvtPlayerLeft, pub.PlayerLeft{Game: GameView(l.session)}))
}

// finish announces a game that ended because the last player with open
// cells left, rather than through a score selection.
func (l *Lobby) finish() {
	ev := engine.Event{Type: engine.EvtGameFinished, Next: -1, Standings: l.session.Standings()}
	l.record(ev.Standings)
	l.broadcast(wireEvent(l.session, ev))
}

func (l *Lobby) record(standings []engine.Standing) {
	res := archive.Result{
		Code:       l.code,
		StartedAt:  l.startedAt,
		FinishedAt: l.session.LastActivityAt,
		Standings:  standings,
	}
	l.log.Info("game finished", zap.Int("players", len(standings)))
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := l.recorder.Record(ctx, res); err != nil {
			l.log.Error("archive game", zap.Error(err))
		}
	}()
}

func (l *Lobby) register(b Bind) {
	l.clients[b.ClientID] = &client{name: b.Name, outbox: b.Outbox}
}

func (l *Lobby) bound(name string) bool {
	for _, c := range l.clients {
		if c.name == name {
			return true
		}
	}
	return false
}

func (l *Lobby) send(clientID string, m types.ServerMessage) {
	c, ok := l.clients[clientID]
	if !ok {
		return
	}
	select {
	case c.outbox <- m:
	default:
		l.drop([]string{clientID})
	}
}

func (l *Lobby) broadcast(m types.ServerMessage) {
	var slow []string
	for id, c := range l.clients {
		select {
		case c.outbox <- m:
			//ok
		default:
			// Client is slow/full - drop them.
			slow = append(slow, id)
		}
	}
	l.drop(slow)
}

func (l *Lobby) drop(ids []string) {
	for _, id := range ids {
		c, ok := l.clients[id]
		if !ok {
			continue
		}
		l.log.Warn("dropping slow client", zap.String("client_id", id), zap.String("player", c.name))
		delete(l.clients, id)
		close(c.outbox)
		l.depart(c.name)
	}
}

func (l *Lobby) shutdown() {
	bye := types.Failure(apperr.GameNotFound(l.code))
	for id, c := range l.clients {
		select {
		case c.outbox <- bye:
		default:
		}
		close(c.outbox) // Tell client no more frames
		delete(l.clients, id)
	}
	l.cancel()
}

// publish exposes the figures the hub reads without going through the inbox.
func (l *Lobby) publish() {
	l.lastActivity.Store(l.session.LastActivityAt.UnixNano())
	l.players.Store(int32(len(l.session.Players)))
	l.started.Store(l.session.Started())
}

// Expose the inbox so tests or WS layer can send messages.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

func (l *Lobby) Code() string { return l.code }

func (l *Lobby) LastActivity() time.Time { return time.Unix(0, l.lastActivity.Load()) }

func (l *Lobby) PlayerCount() int { return int(l.players.Load()) }

func (l *Lobby) Started() bool { return l.started.Load() }

func (l *Lobby) Done() <-chan struct{} { return l.done }

// Close stops the lobby. Bound connections get a fatal error first.
func (l *Lobby) Close() { l.cancel() }

// Send delivers m unless the lobby has stopped or ctx ends first.
func (l *Lobby) Send(ctx context.Context, m Msg) error {
	select {
	case l.inbox <- m:
		return nil
	case <-l.done:
		return apperr.GameNotFound(l.code)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Request sends m and waits for its reply.
func (l *Lobby) Request(ctx context.Context, m Msg, reply <-chan error) error {
	if err := l.Send(ctx, m); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-l.done:
		select {
		case err := <-reply:
			return err
		default:
			return apperr.GameNotFound(l.code)
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}
