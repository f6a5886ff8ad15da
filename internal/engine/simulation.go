package engine

import (
	"encoding/hex"
	"fmt"

	"lukechampine.com/blake3"

	"github.com/talgya/hexempire/internal/game"
)

// Event is a notable occurrence in a game.
type Event struct {
	Turn        int    `json:"turn"`
	Description string `json:"description"`
	Category    string `json:"category"` // "move", "combat", "city", "production", "research", "unit", "economy", "elimination", "victory"
}

func newEvent(turn int, category, format string, args ...any) Event {
	return Event{Turn: turn, Category: category, Description: fmt.Sprintf(format, args...)}
}

// Digest is a hex BLAKE3 hash of the serialized state. Two peers holding the
// same state compute the same digest, so clients can detect desync.
func Digest(s *game.GameState) (string, error) {
	data, err := game.Marshal(s)
	if err != nil {
		return "", err
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
