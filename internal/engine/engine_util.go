package engine

import (
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/DoyleJ11/yahtzee-backend/internal/apperr"
)

const (
	CodeLength    = 6
	MaxNameLength = 20
)

var (
	namePattern = regexp.MustCompile(`^[a-zA-Z0-9\s\-_]+$`)
	codePattern = regexp.MustCompile(`^[A-Z]{6}$`)
)

// Palette is the set of player colors, in assignment preference order.
var Palette = []string{
	"#1976d2",
	"#e53935",
	"#8e24aa",
	"#311b92",
	"#1a237e",
	"#0097a7",
	"#43a047",
	"#f9a825",
	"#cddc39",
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

// ValidateName trims name and checks it against the allowed length and
// character set. It returns the trimmed name.
func ValidateName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	switch {
	case trimmed == "":
		return "", apperr.Validation("Player name is required", map[string]any{"field": "playerName"})
	case utf8.RuneCountInString(trimmed) > MaxNameLength:
		return "", apperr.Validation("Player name must be at most 20 characters", map[string]any{"field": "playerName"})
	case !namePattern.MatchString(trimmed):
		return "", apperr.Validation("Player name contains invalid characters", map[string]any{"field": "playerName"})
	}
	return trimmed, nil
}

// ValidateCode accepts six letters in any case and returns them upper-cased.
func ValidateCode(code string) (string, error) {
	upper := strings.ToUpper(strings.TrimSpace(code))
	if !codePattern.MatchString(upper) {
		return "", apperr.Validation("Game code must be 6 letters", map[string]any{"field": "gameCode"})
	}
	return upper, nil
}

// PickColor returns a random palette color not in used. Once the palette is
// exhausted colors repeat.
func PickColor(used []string, r Roller) string {
	free := make([]string, 0, len(Palette))
	for _, c := range Palette {
		if !slices.Contains(used, c) {
			free = append(free, c)
		}
	}
	if len(free) == 0 {
		free = Palette
	}
	return free[r.IntN(len(free))]
}

// NextColor picks a color for a new player joining s.
func (s *Session) NextColor() string {
	return PickColor(s.Colors(), s.rng)
}
