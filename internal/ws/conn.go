package ws

import (
	"context"
	"encoding/json"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/DoyleJ11/yahtzee-backend/internal/apperr"
	"github.com/DoyleJ11/yahtzee-backend/internal/engine"
	"github.com/DoyleJ11/yahtzee-backend/internal/hub"
	"github.com/DoyleJ11/yahtzee-backend/internal/lobby"
	"github.com/DoyleJ11/yahtzee-backend/internal/types"
	pub "github.com/DoyleJ11/yahtzee-backend/pkg/types"
)

// conn is one websocket client. The lobby and writerDone fields are only
// touched by the read loop goroutine.
type conn struct {
	id     string
	hub    *hub.Hub
	ws     *websocket.Conn
	opts   Options
	log    *zap.Logger
	cancel context.CancelFunc

	lobby      *lobby.Lobby
	writerDone chan struct{}
}

func (c *conn) handle(ctx context.Context, data []byte) {
	var cm types.ClientMessage
	if err := json.Unmarshal(data, &cm); err != nil || cm.Event == "" {
		c.fail(ctx, "", apperr.Validation("Malformed message", nil))
		return
	}

	var err error
	switch cm.Event {
	case pub.EvtHostGame:
		err = c.host(ctx, cm.Data)
	case pub.EvtJoinGame:
		err = c.join(ctx, cm.Data, false)
	case pub.EvtRejoinGame:
		err = c.join(ctx, cm.Data, true)
	default:
		var cmd engine.Command
		cmd, err = toEngineCommand(cm)
		if err == nil {
			err = c.act(ctx, cmd)
		}
	}
	if err != nil {
		c.fail(ctx, cm.RequestID, err)
	}
}

func (c *conn) host(ctx context.Context, data json.RawMessage) error {
	if c.lobby != nil {
		return apperr.InvalidAction(pub.EvtHostGame, "Already connected to a game")
	}
	name, err := decodeName(data)
	if err != nil {
		return err
	}
	if name, err = engine.ValidateName(name); err != nil {
		return err
	}
	lb, err := c.hub.Create(ctx, name)
	if err != nil {
		return err
	}
	err = c.bind(ctx, lb, name, func(b lobby.Bind) lobby.Msg { return lobby.Attach{Bind: b} })
	if err != nil {
		// Nobody else knows the code yet.
		c.hub.Discard(lb)
	}
	return err
}

func (c *conn) join(ctx context.Context, data json.RawMessage, rejoin bool) error {
	event := pub.EvtJoinGame
	if rejoin {
		event = pub.EvtRejoinGame
	}
	if c.lobby != nil {
		return apperr.InvalidAction(event, "Already connected to a game")
	}

	var req pub.JoinRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return apperr.Validation("Expected gameCode and username", map[string]any{"field": "data"})
	}
	code, err := engine.ValidateCode(req.GameCode)
	if err != nil {
		return err
	}
	name, err := engine.ValidateName(req.Username)
	if err != nil {
		return err
	}
	lb, err := c.hub.Get(ctx, code)
	if err != nil {
		return err
	}

	if rejoin {
		return c.bind(ctx, lb, name, func(b lobby.Bind) lobby.Msg { return lobby.Rejoin{Bind: b} })
	}
	return c.bind(ctx, lb, name, func(b lobby.Bind) lobby.Msg { return lobby.Join{Bind: b} })
}

// bind registers this connection with lb under name. The writer goroutine
// only starts once the lobby has accepted the binding.
func (c *conn) bind(ctx context.Context, lb *lobby.Lobby, name string, wrap func(lobby.Bind) lobby.Msg) error {
	outbox := make(chan types.ServerMessage, outboxSize)
	reply := make(chan error, 1)
	msg := wrap(lobby.Bind{ClientID: c.id, Name: name, Outbox: outbox, Reply: reply})
	if err := lb.Request(ctx, msg, reply); err != nil {
		return err
	}

	c.lobby = lb
	c.writerDone = make(chan struct{})
	go c.writer(outbox, c.writerDone)
	c.log.Info("connection bound", zap.String("game_code", lb.Code()), zap.String("player", name))
	return nil
}

func (c *conn) act(ctx context.Context, cmd engine.Command) error {
	if c.lobby == nil {
		return apperr.New(apperr.CodeNotConnected, "Not connected to any game")
	}
	reply := make(chan error, 1)
	return c.lobby.Request(ctx, lobby.Action{ClientID: c.id, Cmd: cmd, Reply: reply}, reply)
}

// unbind tells the lobby the connection is gone and waits for the writer to
// drain. Faults are logged and swallowed.
func (c *conn) unbind() {
	if c.lobby == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), leaveTimeout)
	defer cancel()
	if err := c.lobby.Send(ctx, lobby.Leave{ClientID: c.id}); err != nil && apperr.CodeOf(err) != apperr.CodeGameNotFound {
		c.log.Warn("leave failed", zap.Error(err))
	}
	select {
	case <-c.writerDone:
	case <-c.lobby.Done():
	case <-ctx.Done():
	}
	c.lobby = nil
}

func (c *conn) fail(ctx context.Context, requestID string, err error) {
	e := apperr.From(err)
	if e.Code == apperr.CodeInternal {
		c.log.Error("request failed", zap.Error(err))
	}
	if err := c.write(ctx, types.Failure(e).WithRequestID(requestID)); err != nil {
		c.log.Debug("write error frame", zap.Error(err))
	}
	if e.Code.Fatal() && c.lobby != nil {
		// The lobby is gone; a later host or join may bind again.
		c.lobby = nil
	}
}

func (c *conn) write(ctx context.Context, m types.ServerMessage) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, c.opts.WriteTimeout)
	defer cancel()
	return c.ws.Write(ctx, websocket.MessageText, payload)
}

func toEngineCommand(m types.ClientMessage) (engine.Command, error) {
	switch m.Event {
	case pub.EvtStartGame:
		return engine.Command{Type: engine.CmdStartGame}, nil
	case pub.EvtRollDice:
		return engine.Command{Type: engine.CmdRollDice}, nil
	case pub.EvtSkip:
		return engine.Command{Type: engine.CmdSkipTurn}, nil
	case pub.EvtLockDice:
		i, err := decodeIndex(m.Data, "index")
		if err != nil {
			return engine.Command{}, err
		}
		return engine.Command{Type: engine.CmdLockDice, Index: i}, nil
	case pub.EvtSelectScore:
		i, err := decodeIndex(m.Data, "rowIndex")
		if err != nil {
			return engine.Command{}, err
		}
		return engine.Command{Type: engine.CmdSelectScore, Index: i}, nil
	default:
		return engine.Command{}, apperr.InvalidAction(m.Event, "Unknown event")
	}
}

// decodeName accepts either a bare JSON string or {"username": "..."}.
func decodeName(raw json.RawMessage) (string, error) {
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return name, nil
	}
	var req pub.HostRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return "", apperr.Validation("Player name is required", map[string]any{"field": "playerName"})
	}
	return req.Username, nil
}

// decodeIndex accepts either a bare number or an object holding it under
// field.
func decodeIndex(raw json.RawMessage, field string) (int, error) {
	invalid := apperr.Validation("Expected a numeric "+field, map[string]any{"field": field})
	var i int
	if err := json.Unmarshal(raw, &i); err == nil {
		return i, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return 0, invalid
	}
	v, ok := obj[field]
	if !ok {
		return 0, invalid
	}
	if err := json.Unmarshal(v, &i); err != nil {
		return 0, invalid
	}
	return i, nil
}
