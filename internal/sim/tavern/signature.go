package tavern

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
)

// StateSignature hashes the canonical JSON rendering of the game state plus
// the random stream snapshot. Two runs that produce the same signature after
// the same steps are byte-for-byte the same game; the replay harness compares
// these across paired runs.
func (s *Sim) StateSignature() (string, error) {
	payload := struct {
		Random any `json:"random"`
		State  any `json:"state"`
	}{Random: s.rng.Snapshot(), State: s.state}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("signature render: %w", err)
	}
	// encoding/json sorts map keys, so the rendering is already canonical.
	sum := sha256.Sum256(raw)
	return fmt.Sprintf("%x", sum[:]), nil
}
