package reference

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/slexa/internal/core"
)

type finishEntry struct {
	ID      scalar `yaml:"finish_id"`
	Finish1 scalar `yaml:"finish_1"`
	Finish2 scalar `yaml:"finish_2"`

	// Older finish tables spell the labels without the underscore.
	LegacyFinish1 scalar `yaml:"finish1"`
	LegacyFinish2 scalar `yaml:"finish2"`
}

// LoadFinishes reads the finish table: a list of finish_id, finish_1 and an
// optional finish_2. The first entry wins for a repeated id.
func LoadFinishes(path string) (map[string]core.FinishLabel, error) {
	var entries []finishEntry
	if err := decodeFile(path, &entries); err != nil {
		return nil, fmt.Errorf("finish table: %w", err)
	}

	out := make(map[string]core.FinishLabel, len(entries))
	for i, e := range entries {
		id := strings.TrimSpace(string(e.ID))
		if id == "" {
			return nil, fmt.Errorf("finish table %s: entry %d has no finish_id", path, i)
		}
		if _, dup := out[id]; dup {
			continue
		}
		label := core.FinishLabel{Primary: string(e.Finish1), Secondary: string(e.Finish2)}
		if label.Primary == "" {
			label.Primary = string(e.LegacyFinish1)
		}
		if label.Secondary == "" {
			label.Secondary = string(e.LegacyFinish2)
		}
		out[id] = label
	}
	return out, nil
}
