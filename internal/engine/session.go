package engine

import (
	"math/rand/v2"
	"slices"
	"time"

	"golang.org/x/text/cases"

	"github.com/DoyleJ11/yahtzee-backend/internal/apperr"
)

const MaxPlayers = 6

// Session is one game: the roster in turn order plus the turn state. It is
// not safe for concurrent use; the owning lobby serialises access.
type Session struct {
	Code           string
	Players        []*Player
	Turn           TurnState
	CreatedAt      time.Time
	LastActivityAt time.Time

	rng Roller
	now func() time.Time
}

type Option func(*Session)

func WithRoller(r Roller) Option {
	return func(s *Session) { s.rng = r }
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

func NewSession(code string, host *Player, opts ...Option) *Session {
	s := &Session{
		Code: code,
		Turn: NewTurnState(),
		rng:  rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.CreatedAt = s.now()
	s.LastActivityAt = s.CreatedAt
	if host != nil {
		if host.Color == "" {
			host.Color = s.NextColor()
		}
		host.SetHost(true)
		s.Players = append(s.Players, host)
	}
	return s
}

func (s *Session) Started() bool {
	return s.Turn.Phase != PhaseLobby
}

func (s *Session) PlayerByName(name string) *Player {
	for _, p := range s.Players {
		if p.Name == name {
			return p
		}
	}
	return nil
}

func (s *Session) CurrentPlayer() *Player {
	if s.Turn.Phase != PhaseActive {
		return nil
	}
	i := s.Turn.CurrentPlayerIndex
	if i < 0 || i >= len(s.Players) {
		return nil
	}
	return s.Players[i]
}

func (s *Session) Host() *Player {
	for _, p := range s.Players {
		if p.IsHost {
			return p
		}
	}
	return nil
}

func (s *Session) Colors() []string {
	out := make([]string, 0, len(s.Players))
	for _, p := range s.Players {
		out = append(out, p.Color)
	}
	return out
}

// NameTaken compares names with Unicode case folding.
func (s *Session) NameTaken(name string) bool {
	folded := cases.Fold().String(name)
	for _, p := range s.Players {
		if cases.Fold().String(p.Name) == folded {
			return true
		}
	}
	return false
}

func (s *Session) AddPlayer(p *Player) error {
	if s.Started() {
		return ErrGameAlreadyStarted
	}
	if len(s.Players) >= MaxPlayers {
		return ErrGameFull
	}
	if s.NameTaken(p.Name) {
		return ErrPlayerNameTaken.WithDetails(map[string]any{"playerName": p.Name})
	}
	p.SetHost(len(s.Players) == 0)
	s.Players = append(s.Players, p)
	s.touch()
	return nil
}

// RemovePlayer drops a player from the roster and returns how many remain.
// A lobby host hands the role to the next player in roster order.
func (s *Session) RemovePlayer(name string) (int, error) {
	idx := slices.IndexFunc(s.Players, func(p *Player) bool { return p.Name == name })
	if idx < 0 {
		return len(s.Players), playerNotFound(name)
	}
	removed := s.Players[idx]
	s.Players = slices.Delete(s.Players, idx, idx+1)

	if removed.IsHost && s.Turn.Phase == PhaseLobby && len(s.Players) > 0 {
		s.Players[0].SetHost(true)
	}
	if s.Turn.Phase == PhaseActive {
		s.repairTurnAfterRemoval(idx)
	}
	s.touch()
	return len(s.Players), nil
}

func (s *Session) repairTurnAfterRemoval(idx int) {
	cur := s.Turn.CurrentPlayerIndex
	switch {
	case len(s.Players) == 0:
		s.Turn.CurrentPlayerIndex = 0
	case idx < cur:
		s.Turn.CurrentPlayerIndex = cur - 1
	case idx == cur:
		// Step back one seat so Advance lands on whoever now sits at idx.
		s.Turn.CurrentPlayerIndex = (idx - 1 + len(s.Players)) % len(s.Players)
		s.restartTurn()
	}
}

// StartGame is host-only. Ids follow roster order.
func (s *Session) StartGame(name string) error {
	if s.Started() {
		return ErrGameAlreadyStarted
	}
	p := s.PlayerByName(name)
	if p == nil {
		return playerNotFound(name)
	}
	if !p.IsHost {
		return ErrPlayerNotHost
	}
	if err := s.Turn.StartGame(len(s.Players)); err != nil {
		return apperr.InvalidAction("start-game", err.Error())
	}
	for i, pl := range s.Players {
		pl.ID = i
		pl.Reset()
		pl.Reconnect()
	}
	s.touch()
	return nil
}

func (s *Session) RollDice(name string) (*Player, error) {
	p, err := s.turnOwner("roll-dice", name)
	if err != nil {
		return nil, err
	}
	if !s.Turn.CanRollDice() {
		return nil, apperr.InvalidAction("roll-dice", "Cannot roll dice at this time")
	}
	if err := p.RollDice(s.rng); err != nil {
		return nil, err
	}
	if err := s.Turn.RollDice(); err != nil {
		return nil, apperr.InvalidAction("roll-dice", err.Error())
	}
	p.PreviewScores()
	s.touch()
	return p, nil
}

// LockDice requires at least one roll this turn so stale dice from the
// previous turn cannot be held.
func (s *Session) LockDice(name string, index int) (*Player, error) {
	p, err := s.turnOwner("lock-dice", name)
	if err != nil {
		return nil, err
	}
	if s.Turn.DiceRollCount == 0 {
		return nil, apperr.InvalidAction("lock-dice", "Cannot lock dice before rolling")
	}
	if err := p.LockDice(index); err != nil {
		return nil, err
	}
	s.touch()
	return p, nil
}

// SelectScore scores the current dice in row, then either passes the turn
// or finishes the game. The returned cells are the player's card after the
// selection.
func (s *Session) SelectScore(name string, row Category) (*Player, [NumCategories]ScoreCell, error) {
	var cells [NumCategories]ScoreCell
	p, err := s.turnOwner("select-score", name)
	if err != nil {
		return nil, cells, err
	}
	if !row.Valid() {
		return nil, cells, apperr.InvalidAction("select-score", "Invalid score row index")
	}
	if !s.Turn.CanSelectScore() {
		return nil, cells, apperr.InvalidAction("select-score", "Cannot select score at this time")
	}
	if p.Scores[row].State == CellSelected {
		return nil, cells, apperr.InvalidAction("select-score", "Score already selected")
	}

	if err := p.SelectScore(row, Score(p.DiceValues(), row)); err != nil {
		return nil, cells, err
	}
	p.ClearPreview()
	p.UnlockDice()
	cells = p.Scores
	s.touch()

	if s.finishIfComplete() {
		return p, cells, nil
	}
	// Someone connected still has an open cell, so the advance finds a seat.
	if err := s.Turn.SelectScore(len(s.Players), s.playable); err != nil {
		return nil, cells, apperr.Wrap(apperr.CodeInternal, "An internal error occurred", err)
	}
	s.beginTurn()
	return p, cells, nil
}

// SkipTurn discards any preview and passes the turn.
func (s *Session) SkipTurn(name string) (*Player, error) {
	p, err := s.turnOwner("skip", name)
	if err != nil {
		return nil, err
	}
	if !s.Turn.CanSkipTurn() {
		return nil, apperr.InvalidAction("skip", "Cannot skip at this time")
	}
	p.ClearPreview()
	p.UnlockDice()
	if err := s.Turn.SkipTurn(len(s.Players), s.playable); err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "An internal error occurred", err)
	}
	s.beginTurn()
	s.touch()
	return p, nil
}

// DisconnectPlayer keeps the seat but takes the player out of the rotation.
// It reports whether the turn moved to someone else. When everyone left
// connected has a full card the game finishes instead.
func (s *Session) DisconnectPlayer(name string) (bool, error) {
	p := s.PlayerByName(name)
	if p == nil {
		return false, playerNotFound(name)
	}
	wasCurrent := s.CurrentPlayer() == p
	p.Disconnect()
	s.touch()
	if !wasCurrent {
		s.finishIfComplete()
		return false, nil
	}
	p.ClearPreview()
	p.UnlockDice()
	return s.restartTurn(), nil
}

// ReconnectPlayer puts a disconnected player of a started game back into
// the rotation. If nobody held a valid turn the reconnecting player's seat
// picks it up. It reports whether the turn moved.
func (s *Session) ReconnectPlayer(name string) (bool, error) {
	if !s.Started() {
		return false, apperr.InvalidAction("rejoin-game", "Game has not started")
	}
	p := s.PlayerByName(name)
	if p == nil {
		return false, playerNotFound(name)
	}
	if p.Connected {
		return false, ErrPlayerNameTaken.WithDetails(map[string]any{"playerName": name})
	}
	p.Reconnect()
	s.touch()
	if cur := s.CurrentPlayer(); cur == nil || cur.Connected {
		return false, nil
	}
	return s.restartTurn(), nil
}

func (s *Session) Finished() bool {
	return s.Turn.Phase == PhaseFinished
}

// AllComplete reports whether every connected player has filled their card.
// Disconnected players are skipped in the rotation and cannot fill theirs.
func (s *Session) AllComplete() bool {
	any := false
	for _, p := range s.Players {
		if !p.Connected {
			continue
		}
		any = true
		if !Complete(p.Scores) {
			return false
		}
	}
	return any
}

type Standing struct {
	PlayerID   int
	Name       string
	Color      string
	Total      int
	UpperBonus int
	Rank       int
}

// Standings ranks every player by total, best first; ties share a rank.
func (s *Session) Standings() []Standing {
	out := make([]Standing, 0, len(s.Players))
	for _, p := range s.Players {
		out = append(out, Standing{
			PlayerID:   p.ID,
			Name:       p.Name,
			Color:      p.Color,
			Total:      p.Total(),
			UpperBonus: UpperBonus(p.Scores),
		})
	}
	slices.SortStableFunc(out, func(a, b Standing) int { return b.Total - a.Total })
	for i := range out {
		if i > 0 && out[i].Total == out[i-1].Total {
			out[i].Rank = out[i-1].Rank
			continue
		}
		out[i].Rank = i + 1
	}
	return out
}

func (s *Session) turnOwner(action, name string) (*Player, error) {
	if s.Turn.Phase != PhaseActive {
		return nil, apperr.InvalidAction(action, "Game is not active")
	}
	cur := s.CurrentPlayer()
	if cur == nil || cur.Name != name {
		return nil, ErrNotYourTurn
	}
	return cur, nil
}

// restartTurn gives the turn to the next playable seat with a fresh roll
// count, or finishes the game when no connected player has an open cell.
// It returns false when the turn did not move.
func (s *Session) restartTurn() bool {
	s.Turn.TurnPhase = TurnRolling
	s.Turn.DiceRollCount = 0
	if s.finishIfComplete() {
		return false
	}
	if !s.Turn.Advance(len(s.Players), s.playable) {
		return false
	}
	s.beginTurn()
	return true
}

func (s *Session) finishIfComplete() bool {
	if s.Turn.Phase != PhaseActive || !s.AllComplete() {
		return false
	}
	s.Turn.FinishGame()
	return true
}

func (s *Session) beginTurn() {
	if p := s.CurrentPlayer(); p != nil {
		p.UnlockDice()
	}
}

// playable reports whether seat i can take a turn: connected with at least
// one open cell.
func (s *Session) playable(i int) bool {
	p := s.Players[i]
	return p.Connected && !Complete(p.Scores)
}

func (s *Session) touch() {
	s.LastActivityAt = s.now()
}

func playerNotFound(name string) *apperr.Error {
	return &apperr.Error{
		Code:    apperr.CodePlayerNotFound,
		Message: "Player " + name + " not found",
		Details: map[string]any{"playerName": name},
	}
}
