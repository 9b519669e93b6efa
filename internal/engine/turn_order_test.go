package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connectedSeats(seats ...bool) func(int) bool {
	return func(i int) bool { return seats[i] }
}

func TestTurnState_RollsForceSelection(t *testing.T) {
	ts := NewTurnState()
	assert.False(t, ts.CanRollDice())
	require.ErrorIs(t, ts.RollDice(), errCannotRoll)

	require.NoError(t, ts.StartGame(2))
	assert.False(t, ts.CanSkipTurn())
	for i := 1; i <= MaxRolls; i++ {
		require.NoError(t, ts.RollDice())
		assert.Equal(t, i, ts.DiceRollCount)
	}
	assert.Equal(t, TurnSelecting, ts.TurnPhase)
	assert.True(t, ts.CanSelectScore())
	assert.ErrorIs(t, ts.RollDice(), errCannotRoll)

	require.NoError(t, ts.SelectScore(2, connectedSeats(true, true)))
	assert.Equal(t, 1, ts.CurrentPlayerIndex)
	assert.Equal(t, TurnRolling, ts.TurnPhase)
	assert.Equal(t, 0, ts.DiceRollCount)
}

func TestTurnState_StartGame(t *testing.T) {
	ts := NewTurnState()
	assert.ErrorIs(t, ts.StartGame(0), errNoPlayers)
	require.NoError(t, ts.StartGame(1))
	assert.ErrorIs(t, ts.StartGame(1), errNotInLobby)
}

func TestTurnState_SelectRequiresSelecting(t *testing.T) {
	ts := NewTurnState()
	require.NoError(t, ts.StartGame(2))
	require.NoError(t, ts.RollDice())
	assert.ErrorIs(t, ts.SelectScore(2, connectedSeats(true, true)), errCannotSelect)

	require.NoError(t, ts.SkipTurn(2, connectedSeats(true, true)))
	assert.Equal(t, 1, ts.CurrentPlayerIndex)
	assert.ErrorIs(t, ts.SkipTurn(2, connectedSeats(true, true)), errCannotSkip)
}

func TestTurnState_Advance(t *testing.T) {
	cases := []struct {
		name    string
		current int
		seats   []bool
		want    int
		wantOK  bool
	}{
		{name: "next seat", current: 0, seats: []bool{true, true, true}, want: 1, wantOK: true},
		{name: "wraps", current: 2, seats: []bool{true, true, true}, want: 0, wantOK: true},
		{name: "skips disconnected", current: 0, seats: []bool{true, false, false, true}, want: 3, wantOK: true},
		{name: "sole connected keeps turn", current: 1, seats: []bool{false, true, false}, want: 1, wantOK: true},
		{name: "nobody connected", current: 1, seats: []bool{false, false, false}, want: 1, wantOK: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := TurnState{Phase: PhaseActive, CurrentPlayerIndex: tc.current}
			ok := ts.Advance(len(tc.seats), connectedSeats(tc.seats...))
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, ts.CurrentPlayerIndex)
		})
	}
}

func TestTurnState_FinishGame(t *testing.T) {
	ts := NewTurnState()
	require.NoError(t, ts.StartGame(1))
	require.NoError(t, ts.RollDice())
	ts.FinishGame()
	assert.Equal(t, PhaseFinished, ts.Phase)
	assert.Zero(t, ts.DiceRollCount)
	assert.False(t, ts.CanRollDice())
	assert.False(t, ts.CanSkipTurn())
}
