package types

import (
	"encoding/json"
	"time"

	"github.com/DoyleJ11/yahtzee-backend/internal/apperr"
	pub "github.com/DoyleJ11/yahtzee-backend/pkg/types"
)

type ClientMessage struct {
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data,omitempty"`
	RequestID string          `json:"requestId,omitempty"`
}

type ErrorBody struct {
	Code    apperr.Code    `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Fatal   bool           `json:"fatal"`
}

type ServerMessage struct {
	Event     string     `json:"event"`
	Success   bool       `json:"success"`
	Data      any        `json:"data,omitempty"`
	Error     *ErrorBody `json:"error,omitempty"`
	RequestID string     `json:"requestId,omitempty"`
	Timestamp int64      `json:"timestamp"`
}

func Success(event string, data any) ServerMessage {
	return ServerMessage{
		Event:     event,
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}
}

// Failure builds the reply for err. Fatal errors travel on "error", the rest
// on "action-error". Internal causes are never exposed.
func Failure(err error) ServerMessage {
	e := apperr.From(err)
	event := pub.EvtActionError
	if e.Code.Fatal() {
		event = pub.EvtError
	}
	return ServerMessage{
		Event:   event,
		Success: false,
		Error: &ErrorBody{
			Code:    e.Code,
			Message: e.Message,
			Details: e.Details,
			Fatal:   e.Code.Fatal(),
		},
		Timestamp: time.Now().UnixMilli(),
	}
}

func (m ServerMessage) WithRequestID(id string) ServerMessage {
	m.RequestID = id
	return m
}
