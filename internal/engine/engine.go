package engine

import (
	"github.com/DoyleJ11/yahtzee-backend/internal/apperr"
)

var (
	ErrNotYourTurn        = apperr.New(apperr.CodeNotYourTurn, "It's not your turn")
	ErrGameAlreadyStarted = apperr.New(apperr.CodeGameAlreadyStarted, "Game has already started")
	ErrGameFull           = apperr.New(apperr.CodeGameFull, "Game is full")
	ErrPlayerNotHost      = apperr.New(apperr.CodePlayerNotHost, "Only the host can start the game")
	ErrPlayerNameTaken    = apperr.New(apperr.CodePlayerNameTaken, "Player name is already taken")
	ErrUnsupportedCommand = apperr.New(apperr.CodeInvalidAction, "Unsupported command")
)

type CommandType string

const (
	CmdStartGame   CommandType = "StartGame"
	CmdRollDice    CommandType = "RollDice"
	CmdLockDice    CommandType = "LockDice"
	CmdSelectScore CommandType = "SelectScore"
	CmdSkipTurn    CommandType = "SkipTurn"
)

/*
	CmdStartGame   -> EvtGameStarted
	CmdRollDice    -> EvtDiceRolled
	CmdLockDice    -> EvtDiceLocked
	CmdSelectScore -> EvtScoreSelected, then EvtGameFinished once every connected card is full
	CmdSkipTurn    -> EvtTurnSkipped

	Next on an event is the seat holding the turn after it was applied.
*/

// Command is a player intent. Player is the acting player's name; Index is
// the die index for CmdLockDice and the category row for CmdSelectScore.
type Command struct {
	Type   CommandType
	Player string
	Index  int
}

type EventType string

const (
	EvtGameStarted   EventType = "GameStarted"
	EvtDiceRolled    EventType = "DiceRolled"
	EvtDiceLocked    EventType = "DiceLocked"
	EvtScoreSelected EventType = "ScoreSelected"
	EvtTurnSkipped   EventType = "TurnSkipped"
	EvtGameFinished  EventType = "GameFinished"
)

type Event struct {
	Type      EventType
	PlayerID  int
	Index     int
	RollCount int
	Next      int
	Dice      [NumDice]Die
	Scores    [NumCategories]ScoreCell
	Standings []Standing
}

// Apply validates cmd against the session, mutates it and reports what
// happened. Every rejection is decided before anything is mutated, so a
// domain error leaves the session unchanged; INTERNAL_ERROR means a turn
// invariant broke after the card was written.
func Apply(s *Session, cmd Command) ([]Event, error) {
	switch cmd.Type {
	case CmdStartGame:
		if err := s.StartGame(cmd.Player); err != nil {
			return nil, err
		}
		return []Event{{Type: EvtGameStarted, Next: s.Turn.CurrentPlayerIndex}}, nil

	case CmdRollDice:
		p, err := s.RollDice(cmd.Player)
		if err != nil {
			return nil, err
		}
		return []Event{{
			Type:      EvtDiceRolled,
			PlayerID:  p.ID,
			RollCount: s.Turn.DiceRollCount,
			Next:      s.Turn.CurrentPlayerIndex,
			Dice:      p.Dice,
			Scores:    p.Scores,
		}}, nil

	case CmdLockDice:
		p, err := s.LockDice(cmd.Player, cmd.Index)
		if err != nil {
			return nil, err
		}
		return []Event{{
			Type:     EvtDiceLocked,
			PlayerID: p.ID,
			Index:    cmd.Index,
			Next:     s.Turn.CurrentPlayerIndex,
			Dice:     p.Dice,
		}}, nil

	case CmdSelectScore:
		p, cells, err := s.SelectScore(cmd.Player, Category(cmd.Index))
		if err != nil {
			return nil, err
		}
		events := []Event{{
			Type:     EvtScoreSelected,
			PlayerID: p.ID,
			Index:    cmd.Index,
			Next:     s.Turn.CurrentPlayerIndex,
			Scores:   cells,
		}}
		if s.Turn.Phase == PhaseFinished {
			events = append(events, Event{Type: EvtGameFinished, Next: -1, Standings: s.Standings()})
		}
		return events, nil

	case CmdSkipTurn:
		p, err := s.SkipTurn(cmd.Player)
		if err != nil {
			return nil, err
		}
		return []Event{{Type: EvtTurnSkipped, PlayerID: p.ID, Next: s.Turn.CurrentPlayerIndex}}, nil

	default:
		return nil, ErrUnsupportedCommand
	}
}
