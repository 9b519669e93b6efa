// Package apperr defines the error taxonomy shared by the game engine and
// the connection layer.
package apperr

import "errors"

// Code is a machine-readable error code sent to clients.
type Code string

const (
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeGameNotFound       Code = "GAME_NOT_FOUND"
	CodeGameAlreadyStarted Code = "GAME_ALREADY_STARTED"
	CodeGameFull           Code = "GAME_FULL"
	CodePlayerNotFound     Code = "PLAYER_NOT_FOUND"
	CodePlayerNameTaken    Code = "PLAYER_NAME_TAKEN"
	CodeNotYourTurn        Code = "NOT_YOUR_TURN"
	CodePlayerNotHost      Code = "PLAYER_NOT_HOST"
	CodeInvalidAction      Code = "INVALID_ACTION"
	CodeNotConnected       Code = "NOT_CONNECTED_TO_GAME"
	CodeInternal           Code = "INTERNAL_ERROR"
)

// Fatal reports whether a client should treat the error as the end of its
// session.
func (c Code) Fatal() bool {
	return c == CodeGameNotFound
}

// Error is a domain error with a code and optional structured details.
type Error struct {
	Code    Code
	Message string
	Details map[string]any
	Cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error with the same code, so sentinels declared with New
// work with errors.Is even after WithDetails copies them.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetails returns a copy of e carrying the given details.
func (e *Error) WithDetails(details map[string]any) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func Validation(message string, details map[string]any) *Error {
	return &Error{Code: CodeValidation, Message: message, Details: details}
}

func GameNotFound(code string) *Error {
	return &Error{
		Code:    CodeGameNotFound,
		Message: "Game with code " + code + " not found",
		Details: map[string]any{"gameCode": code},
	}
}

func InvalidAction(action, reason string) *Error {
	return &Error{
		Code:    CodeInvalidAction,
		Message: "Invalid action: " + action + ". " + reason,
		Details: map[string]any{"action": action, "reason": reason},
	}
}

// From converts any error into a domain error. Errors outside the taxonomy
// become INTERNAL_ERROR with a generic message; err is kept as
// the cause for logging and never sent to clients.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(CodeInternal, "An internal error occurred", err)
}

// CodeOf returns the code of err, or CodeInternal for foreign errors.
func CodeOf(err error) Code {
	return From(err).Code
}
