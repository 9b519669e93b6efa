package types

// Die:
//   value: 1..6
//   locked: boolean
type Die struct {
	Value  int  `json:"value"`
	Locked bool `json:"locked"`
}

// Score:
//   score: number
//   state: "DEFAULT" | "ROLLING" | "FLASHING" | "SELECTED"
type Score struct {
	Score int    `json:"score"`
	State string `json:"state"`
}

// Player is the public view of a seat. Id is assigned when the game starts,
// so it is 0 for every player still in the lobby.
type Player struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	Color        string  `json:"color"`
	IsHost       bool    `json:"isHost"`
	Disconnected bool    `json:"disconnected"`
	Dices        []Die   `json:"dices"`
	Scores       []Score `json:"scores"`
}

// Game:
//   gameCode: 6 uppercase letters
//   players: Player[]
//   gameStarted: boolean
//   phase: "LOBBY" | "ACTIVE" | "FINISHED"
//   turnPhase: "WAITING" | "ROLLING" | "SELECTING"
//   playerTurn: index into players
//   diceRollCount: 0..3
type Game struct {
	GameCode      string   `json:"gameCode"`
	Players       []Player `json:"players"`
	GameStarted   bool     `json:"gameStarted"`
	Phase         string   `json:"phase"`
	TurnPhase     string   `json:"turnPhase"`
	PlayerTurn    int      `json:"playerTurn"`
	DiceRollCount int      `json:"diceRollCount"`
	CreatedAt     int64    `json:"createdAt"`
}

type Standing struct {
	PlayerID   int    `json:"playerId"`
	Name       string `json:"name"`
	Color      string `json:"color"`
	Total      int    `json:"total"`
	UpperBonus int    `json:"upperBonus"`
	Rank       int    `json:"rank"`
}

type Stats struct {
	TotalGames  int `json:"totalGames"`
	ActiveGames int `json:"activeGames"`
	Players     int `json:"players"`
}
