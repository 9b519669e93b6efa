package lobby

import (
	"github.com/DoyleJ11/yahtzee-backend/internal/engine"
	"github.com/DoyleJ11/yahtzee-backend/internal/types"
	pub "github.com/DoyleJ11/yahtzee-backend/pkg/types"
)

func GameView(s *engine.Session) pub.Game {
	return pub.Game{
		GameCode:      s.Code,
		Players:       playerViews(s.Players),
		GameStarted:   s.Started(),
		Phase:         string(s.Turn.Phase),
		TurnPhase:     string(s.Turn.TurnPhase),
		PlayerTurn:    s.Turn.CurrentPlayerIndex,
		DiceRollCount: s.Turn.DiceRollCount,
		CreatedAt:     s.CreatedAt.UnixMilli(),
	}
}

func PlayerView(p *engine.Player) pub.Player {
	return pub.Player{
		ID:           p.ID,
		Name:         p.Name,
		Color:        p.Color,
		IsHost:       p.IsHost,
		Disconnected: !p.Connected,
		Dices:        diceView(p.Dice),
		Scores:       scoresView(p.Scores),
	}
}

func StandingsView(standings []engine.Standing) []pub.Standing {
	out := make([]pub.Standing, 0, len(standings))
	for _, s := range standings {
		out = append(out, pub.Standing{
			PlayerID:   s.PlayerID,
			Name:       s.Name,
			Color:      s.Color,
			Total:      s.Total,
			UpperBonus: s.UpperBonus,
			Rank:       s.Rank,
		})
	}
	return out
}

func playerViews(players []*engine.Player) []pub.Player {
	out := make([]pub.Player, 0, len(players))
	for _, p := range players {
		out = append(out, PlayerView(p))
	}
	return out
}

func diceView(dice [engine.NumDice]engine.Die) []pub.Die {
	out := make([]pub.Die, len(dice))
	for i, d := range dice {
		out[i] = pub.Die{Value: d.Value, Locked: d.Locked}
	}
	return out
}

func scoresView(cells [engine.NumCategories]engine.ScoreCell) []pub.Score {
	out := make([]pub.Score, len(cells))
	for i, c := range cells {
		out[i] = pub.Score{Score: c.Score, State: string(c.State)}
	}
	return out
}

// wireEvent turns an engine event into the frame broadcast to the room.
func wireEvent(s *engine.Session, ev engine.Event) types.ServerMessage {
	switch ev.Type {
	case engine.EvtGameStarted:
		return types.Success(pub.EvtGameStarted, pub.GameStarted{Players: playerViews(s.Players)})
	case engine.EvtDiceRolled:
		return types.Success(pub.EvtDiceRoll, pub.DiceRoll{
			Dice:      diceView(ev.Dice),
			Scores:    scoresView(ev.Scores),
			PlayerID:  ev.PlayerID,
			RollCount: ev.RollCount,
		})
	case engine.EvtDiceLocked:
		return types.Success(pub.EvtDiceLocked, pub.DiceLocked{
			PlayerID: ev.PlayerID,
			Index:    ev.Index,
			Dice:     diceView(ev.Dice),
		})
	case engine.EvtScoreSelected:
		return types.Success(pub.EvtScoreSelected, pub.ScoreSelected{
			Scores:     scoresView(ev.Scores),
			PlayerID:   ev.PlayerID,
			RowIndex:   ev.Index,
			PlayerTurn: ev.Next,
		})
	case engine.EvtTurnSkipped:
		return types.Success(pub.EvtPlayerSkipped, pub.PlayerSkipped{
			PlayerID:   ev.PlayerID,
			PlayerTurn: ev.Next,
		})
	case engine.EvtGameFinished:
		return types.Success(pub.EvtGameFinished, pub.GameFinished{Standings: StandingsView(ev.Standings)})
	default:
		return types.Success(string(ev.Type), nil)
	}
}
