package engine

import (
	"github.com/DoyleJ11/yahtzee-backend/internal/apperr"
)

type CellState string

const (
	CellDefault  CellState = "DEFAULT"
	CellRolling  CellState = "ROLLING" // client-side animation only, never set here
	CellFlashing CellState = "FLASHING"
	CellSelected CellState = "SELECTED"
)

type Die struct {
	Value  int
	Locked bool
}

type ScoreCell struct {
	Score int
	State CellState
}

// Roller yields uniform integers in [0, n). *math/rand/v2.Rand satisfies it.
type Roller interface {
	IntN(n int) int
}

type Player struct {
	ID        int
	Name      string
	Color     string
	IsHost    bool
	Connected bool
	Dice      [NumDice]Die
	Scores    [NumCategories]ScoreCell
}

func NewPlayer(name, color string, host bool) *Player {
	p := &Player{
		Name:      name,
		Color:     color,
		IsHost:    host,
		Connected: true,
	}
	p.Reset()
	return p
}

// Reset puts the player back to the start-of-game dice and score card.
func (p *Player) Reset() {
	for i := range p.Dice {
		p.Dice[i] = Die{Value: i + 1}
	}
	for i := range p.Scores {
		p.Scores[i] = ScoreCell{State: CellDefault}
	}
}

func (p *Player) RollDice(r Roller) error {
	if !p.Connected {
		return apperr.InvalidAction("roll-dice", "Disconnected player cannot roll dice")
	}
	for i := range p.Dice {
		if p.Dice[i].Locked {
			continue
		}
		p.Dice[i].Value = r.IntN(6) + 1
	}
	return nil
}

func (p *Player) LockDice(index int) error {
	if index < 0 || index >= NumDice {
		return apperr.InvalidAction("lock-dice", "Invalid dice index")
	}
	p.Dice[index].Locked = !p.Dice[index].Locked
	return nil
}

func (p *Player) UnlockDice() {
	for i := range p.Dice {
		p.Dice[i].Locked = false
	}
}

func (p *Player) SelectScore(row Category, score int) error {
	if !row.Valid() {
		return apperr.InvalidAction("select-score", "Invalid score row index")
	}
	if p.Scores[row].State == CellSelected {
		return apperr.InvalidAction("select-score", "Score already selected")
	}
	p.Scores[row] = ScoreCell{Score: score, State: CellSelected}
	return nil
}

// PreviewScores shows what the current dice would score in every open
// category.
func (p *Player) PreviewScores() {
	preview := ScoreAll(p.DiceValues())
	for c, cell := range p.Scores {
		if cell.State == CellSelected {
			continue
		}
		if preview[c] == 0 {
			p.Scores[c] = ScoreCell{State: CellDefault}
			continue
		}
		p.Scores[c] = ScoreCell{Score: preview[c], State: CellFlashing}
	}
}

// ClearPreview discards every unconfirmed cell.
func (p *Player) ClearPreview() {
	for c, cell := range p.Scores {
		if cell.State != CellSelected {
			p.Scores[c] = ScoreCell{State: CellDefault}
		}
	}
}

func (p *Player) DiceValues() [NumDice]int {
	var out [NumDice]int
	for i, d := range p.Dice {
		out[i] = d.Value
	}
	return out
}

func (p *Player) Total() int {
	return Total(p.Scores)
}

func (p *Player) Disconnect() { p.Connected = false }

func (p *Player) Reconnect() { p.Connected = true }

func (p *Player) SetHost(host bool) { p.IsHost = host }
