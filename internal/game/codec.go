package game

import (
	"encoding/json"
	"fmt"

	"github.com/talgya/hexempire/internal/gameerr"
)

// Marshal serializes the full state. Unmarshal(Marshal(s)) reproduces s
// exactly, including nil versus empty collections.
func Marshal(s *GameState) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal game %s: %w", s.ID, err)
	}
	return data, nil
}

// Unmarshal decodes a state produced by Marshal without validating it.
func Unmarshal(data []byte) (*GameState, error) {
	var s GameState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, gameerr.Wrap(gameerr.CodeCorruptSnapshot, err)
	}
	if s.Map == nil {
		return nil, gameerr.Integrity(gameerr.CodeCorruptSnapshot, "state has no map")
	}
	return &s, nil
}
