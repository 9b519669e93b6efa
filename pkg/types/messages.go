package types

// Client -> Server
// host-game:
//   "name" | { username: string }
//
// join-game, rejoin-game:
//   gameCode: string
//   username: string
//
// start-game, roll-dice, skip: no data
//
// lock-dice:
//   index: 0..4
//
// select-score:
//   rowIndex: 0..12

const (
	EvtHostGame    = "host-game"
	EvtJoinGame    = "join-game"
	EvtRejoinGame  = "rejoin-game"
	EvtStartGame   = "start-game"
	EvtRollDice    = "roll-dice"
	EvtLockDice    = "lock-dice"
	EvtSelectScore = "select-score"
	EvtSkip        = "skip"
)

type JoinRequest struct {
	GameCode string `json:"gameCode"`
	Username string `json:"username"`
}

type HostRequest struct {
	Username string `json:"username"`
}

// Server -> Client
// Every frame is wrapped in an envelope carrying success, timestamp and
// either data or error. Errors go to the sender only.

const (
	EvtJoinLobby        = "join-lobby"
	EvtPlayerJoin       = "player-join"
	EvtPlayerRejoined   = "player-rejoined"
	EvtGameStarted      = "game-started"
	EvtDiceRoll         = "dice-roll"
	EvtDiceLocked       = "dice-locked"
	EvtScoreSelected    = "score-selected"
	EvtPlayerSkipped    = "player-skipped"
	EvtPlayerLeft       = "player-left"
	EvtPlayerLeftInGame = "player-left-ingame"
	EvtGameFinished     = "game-finished"
	EvtActionError      = "action-error"
	EvtError            = "error"
)

type JoinLobby struct {
	Game   Game   `json:"game"`
	Player Player `json:"player"`
}

type PlayerJoin struct {
	Player Player `json:"player"`
}

type GameStarted struct {
	Players []Player `json:"players"`
}

type DiceRoll struct {
	Dice      []Die   `json:"dice"`
	Scores    []Score `json:"scores"`
	PlayerID  int     `json:"playerId"`
	RollCount int     `json:"rollCount"`
}

type DiceLocked struct {
	PlayerID int   `json:"playerId"`
	Index    int   `json:"index"`
	Dice     []Die `json:"dice"`
}

type ScoreSelected struct {
	Scores     []Score `json:"scores"`
	PlayerID   int     `json:"playerId"`
	RowIndex   int     `json:"rowIndex"`
	PlayerTurn int     `json:"playerTurn"`
}

type PlayerSkipped struct {
	PlayerID   int `json:"playerId"`
	PlayerTurn int `json:"playerTurn"`
}

type PlayerLeft struct {
	Game Game `json:"game"`
}

type PlayerLeftInGame struct {
	Player     Player `json:"player"`
	PlayerTurn int    `json:"playerTurn"`
}

type GameFinished struct {
	Standings []Standing `json:"standings"`
}
