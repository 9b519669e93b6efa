package archive

import (
	"time"

	"github.com/DoyleJ11/yahtzee-backend/internal/engine"
)

type GameRecord struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Code       string         `gorm:"size:6;index;not null" json:"gameCode"`
	StartedAt  time.Time      `gorm:"not null" json:"startedAt"`
	FinishedAt time.Time      `gorm:"not null;index" json:"finishedAt"`
	CreatedAt  time.Time      `gorm:"not null" json:"-"`
	Players    []PlayerResult `gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE" json:"players"`
}

type PlayerResult struct {
	ID         uint   `gorm:"primaryKey" json:"-"`
	GameID     uint   `gorm:"index;not null" json:"-"`
	PlayerID   int    `gorm:"not null" json:"playerId"`
	Name       string `gorm:"size:20;not null" json:"name"`
	Color      string `gorm:"size:7;not null" json:"color"`
	Total      int    `gorm:"not null" json:"total"`
	UpperBonus int    `gorm:"not null" json:"upperBonus"`
	Rank       int    `gorm:"not null" json:"rank"`
}

// Result is a finished game as handed over by its lobby.
type Result struct {
	Code       string
	StartedAt  time.Time
	FinishedAt time.Time
	Standings  []engine.Standing
}

func (r Result) record() GameRecord {
	rec := GameRecord{
		Code:       r.Code,
		StartedAt:  r.StartedAt.UTC(),
		FinishedAt: r.FinishedAt.UTC(),
		Players:    make([]PlayerResult, 0, len(r.Standings)),
	}
	for _, s := range r.Standings {
		rec.Players = append(rec.Players, PlayerResult{
			PlayerID:   s.PlayerID,
			Name:       s.Name,
			Color:      s.Color,
			Total:      s.Total,
			UpperBonus: s.UpperBonus,
			Rank:       s.Rank,
		})
	}
	return rec
}
