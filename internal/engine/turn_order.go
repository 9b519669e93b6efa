package engine

import "errors"

var (
	errNotInLobby       = errors.New("game can only be started from lobby phase")
	errNoPlayers        = errors.New("cannot start game with no players")
	errCannotRoll       = errors.New("cannot roll dice at this time")
	errCannotSelect     = errors.New("cannot select score at this time")
	errCannotSkip       = errors.New("cannot skip turn without rolling dice")
	errNoConnectedSeats = errors.New("no connected players")
)

type Phase string

const (
	PhaseLobby    Phase = "LOBBY"
	PhaseActive   Phase = "ACTIVE"
	PhaseFinished Phase = "FINISHED"
)

type TurnPhase string

const (
	TurnWaiting   TurnPhase = "WAITING"
	TurnRolling   TurnPhase = "ROLLING"
	TurnSelecting TurnPhase = "SELECTING"
)

const MaxRolls = 3

// TurnState decides whose turn it is and which actions are legal. It knows
// seats only by index; the session supplies connectivity.
type TurnState struct {
	Phase              Phase
	TurnPhase          TurnPhase
	CurrentPlayerIndex int
	DiceRollCount      int
}

func NewTurnState() TurnState {
	return TurnState{Phase: PhaseLobby, TurnPhase: TurnWaiting}
}

func (t *TurnState) StartGame(players int) error {
	if t.Phase != PhaseLobby {
		return errNotInLobby
	}
	if players < 1 {
		return errNoPlayers
	}
	t.Phase = PhaseActive
	t.TurnPhase = TurnRolling
	t.CurrentPlayerIndex = 0
	t.DiceRollCount = 0
	return nil
}

func (t *TurnState) CanRollDice() bool {
	return t.Phase == PhaseActive && t.TurnPhase == TurnRolling && t.DiceRollCount < MaxRolls
}

func (t *TurnState) CanSelectScore() bool {
	return t.Phase == PhaseActive && t.TurnPhase == TurnSelecting
}

func (t *TurnState) CanSkipTurn() bool {
	return t.Phase == PhaseActive && t.DiceRollCount > 0
}

// RollDice counts a roll; the third roll forces a selection.
func (t *TurnState) RollDice() error {
	if !t.CanRollDice() {
		return errCannotRoll
	}
	t.DiceRollCount++
	if t.DiceRollCount >= MaxRolls {
		t.TurnPhase = TurnSelecting
	}
	return nil
}

func (t *TurnState) SelectScore(players int, connected func(int) bool) error {
	if !t.CanSelectScore() {
		return errCannotSelect
	}
	return t.nextPlayer(players, connected)
}

func (t *TurnState) SkipTurn(players int, connected func(int) bool) error {
	if !t.CanSkipTurn() {
		return errCannotSkip
	}
	return t.nextPlayer(players, connected)
}

func (t *TurnState) FinishGame() {
	t.Phase = PhaseFinished
	t.TurnPhase = TurnWaiting
	t.DiceRollCount = 0
}

func (t *TurnState) nextPlayer(players int, connected func(int) bool) error {
	t.TurnPhase = TurnRolling
	t.DiceRollCount = 0
	if !t.Advance(players, connected) {
		return errNoConnectedSeats
	}
	return nil
}

// Advance moves CurrentPlayerIndex to the next connected seat after the
// current one, wrapping around and visiting each seat at most once. The
// current seat is chosen again only if it is the sole connected seat. It
// returns false and leaves the index alone when no seat is connected.
func (t *TurnState) Advance(players int, connected func(int) bool) bool {
	if players <= 0 {
		return false
	}
	for step := 1; step <= players; step++ {
		next := (t.CurrentPlayerIndex + step) % players
		if connected(next) {
			t.CurrentPlayerIndex = next
			return true
		}
	}
	return false
}
