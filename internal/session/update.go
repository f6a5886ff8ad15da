package session

import (
	"github.com/talgya/hexempire/internal/engine"
	"github.com/talgya/hexempire/internal/game"
	"github.com/talgya/hexempire/internal/gameerr"
	"github.com/talgya/hexempire/internal/units"
)

// Update is pushed to subscribers after every accepted action and turn
// advance. A rejection carries only Rejection and is delivered to PlayerID.
// State is shared between subscribers and must be treated as read-only.
type Update struct {
	GameID       string              `json:"game_id"`
	Turn         int                 `json:"turn"`
	Phase        string              `json:"phase,omitempty"`
	Digest       string              `json:"digest,omitempty"`
	PlayerID     string              `json:"player_id,omitempty"`
	Action       engine.ActionKind   `json:"action,omitempty"`
	State        *game.GameState     `json:"state,omitempty"`
	Events       []engine.Event      `json:"events,omitempty"`
	Combat       *units.CombatResult `json:"combat,omitempty"`
	TurnAdvanced bool                `json:"turn_advanced,omitempty"`
	Rejection    *gameerr.Descriptor `json:"rejection,omitempty"`
}
