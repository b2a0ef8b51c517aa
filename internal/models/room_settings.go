// internal/models/room_settings.go
package models

import "fmt"

// RoomSettings captures the room configuration a match is bootstrapped from:
// seat counts, fill policy, AI difficulty, scoring mode and phase timers.
type RoomSettings struct {
	MinPlayers int `json:"minPlayers"`
	MaxPlayers int `json:"maxPlayers"`

	// IsPracticeMode fills empty seats with local CPU players only.
	IsPracticeMode bool `json:"isPracticeMode"`
	// IsRandomJoin and IsAutoStart fill the room to MaxPlayers instead of MinPlayers.
	IsRandomJoin bool `json:"isRandomJoin"`
	IsAutoStart  bool `json:"isAutoStart"`

	// Difficulty filters comp players by compatible skill ranks. Empty means no filter.
	Difficulty string `json:"difficulty"`
	// PracticeDifficulty is the difficulty of CPU seats in practice mode.
	PracticeDifficulty string `json:"practiceDifficulty"`

	// ShowInstructions switches to the demo deck, enables predefined hands and disables the peek deadline.
	ShowInstructions bool `json:"showInstructions"`

	// IsClearAndCollect selects collect mode for the initial peek; false is clear mode.
	IsClearAndCollect bool `json:"isClearAndCollect"`

	// InitialPeekSec is the initial peek deadline; 0 falls back to the server default.
	InitialPeekSec int `json:"initialPeekSec"`
}

// DefaultRoomSettings returns the settings new rooms start with.
func DefaultRoomSettings() RoomSettings {
	return RoomSettings{
		MinPlayers:         2,
		MaxPlayers:         4,
		PracticeDifficulty: DifficultyMedium,
		IsClearAndCollect:  true,
	}
}

// FillsToMax reports whether any fill-to-max flag is set.
func (s RoomSettings) FillsToMax() bool {
	return s.IsPracticeMode || s.IsRandomJoin || s.IsAutoStart
}

// TargetSeats returns the number of seats a match should have.
func (s RoomSettings) TargetSeats() int {
	if s.FillsToMax() {
		return s.MaxPlayers
	}
	return s.MinPlayers
}

var validDifficulties = map[string]bool{
	"":               true,
	DifficultyEasy:   true,
	DifficultyMedium: true,
	DifficultyHard:   true,
	DifficultyExpert: true,
}

// Update applies the provided settings to the room. Keys that are absent or nil are
// ignored and the old value persists. Values are type checked and validated.
func (s *RoomSettings) Update(newSettings map[string]interface{}) error {
	var ok bool

	assignBool := func(field *bool, key string) error {
		if val, exists := newSettings[key]; exists && val != nil {
			*field, ok = val.(bool)
			if !ok {
				return fmt.Errorf("invalid type for %s", key)
			}
		}
		return nil
	}

	assignInt := func(field *int, key string, minVal int) error {
		if val, exists := newSettings[key]; exists && val != nil {
			// JSON numbers decode as float64
			switch v := val.(type) {
			case float64:
				*field = int(v)
			case int:
				*field = v
			default:
				return fmt.Errorf("invalid type for %s", key)
			}
			if *field < minVal {
				return fmt.Errorf("%s must be at least %d", key, minVal)
			}
		}
		return nil
	}

	assignDifficulty := func(field *string, key string) error {
		if val, exists := newSettings[key]; exists && val != nil {
			str, isStr := val.(string)
			if !isStr {
				return fmt.Errorf("invalid type for %s", key)
			}
			if !validDifficulties[str] {
				return fmt.Errorf("unknown %s %q", key, str)
			}
			*field = str
		}
		return nil
	}

	for key, field := range map[string]*bool{
		"isPracticeMode":    &s.IsPracticeMode,
		"isRandomJoin":      &s.IsRandomJoin,
		"isAutoStart":       &s.IsAutoStart,
		"showInstructions":  &s.ShowInstructions,
		"isClearAndCollect": &s.IsClearAndCollect,
	} {
		if err := assignBool(field, key); err != nil {
			return err
		}
	}
	if err := assignInt(&s.MinPlayers, "minPlayers", 1); err != nil {
		return err
	}
	if err := assignInt(&s.MaxPlayers, "maxPlayers", 1); err != nil {
		return err
	}
	if err := assignInt(&s.InitialPeekSec, "initialPeekSec", 0); err != nil {
		return err
	}
	if err := assignDifficulty(&s.Difficulty, "difficulty"); err != nil {
		return err
	}
	if err := assignDifficulty(&s.PracticeDifficulty, "practiceDifficulty"); err != nil {
		return err
	}

	if s.MinPlayers > s.MaxPlayers {
		return fmt.Errorf("minPlayers (%d) must not exceed maxPlayers (%d)", s.MinPlayers, s.MaxPlayers)
	}
	return nil
}

// ParseSettings applies updates to a copy of current and returns it. current is left
// untouched when validation fails.
func ParseSettings(updates map[string]interface{}, current RoomSettings) (RoomSettings, error) {
	settings := current
	err := settings.Update(updates)
	return settings, err
}
