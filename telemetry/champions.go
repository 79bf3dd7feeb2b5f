package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// ChampionEntry records a high-fitness organism observed during a run.
type ChampionEntry struct {
	OrganismID    int     `json:"organism_id"`
	SpeciesID     int     `json:"species_id"`
	Fitness       float64 `json:"fitness"`
	AbsoluteScore float64 `json:"absolute_score"`
	TimeAlive     int     `json:"time_alive"`
	Nodes         int     `json:"nodes"`
	Links         int     `json:"links"`
	Tick          int32   `json:"tick"`
}

// Champions keeps the best organisms seen over a run, sorted by fitness.
// An organism can appear at most once; a later sighting with higher fitness
// replaces the earlier entry.
type Champions struct {
	entries []ChampionEntry
	maxSize int
}

// NewChampions creates a champion board with the given capacity.
func NewChampions(maxSize int) *Champions {
	return &Champions{maxSize: maxSize}
}

// Consider evaluates an organism sighting for the board. Returns true if the
// entry was admitted.
func (ch *Champions) Consider(entry ChampionEntry) bool {
	for i, existing := range ch.entries {
		if existing.OrganismID != entry.OrganismID {
			continue
		}
		if entry.Fitness <= existing.Fitness {
			return false
		}
		ch.entries = append(ch.entries[:i], ch.entries[i+1:]...)
		break
	}

	idx := sort.Search(len(ch.entries), func(i int) bool {
		return ch.entries[i].Fitness < entry.Fitness
	})
	if len(ch.entries) >= ch.maxSize && idx >= ch.maxSize {
		return false
	}

	ch.entries = append(ch.entries, ChampionEntry{})
	copy(ch.entries[idx+1:], ch.entries[idx:])
	ch.entries[idx] = entry

	if len(ch.entries) > ch.maxSize {
		ch.entries = ch.entries[:ch.maxSize]
	}
	return true
}

// Size returns the number of entries on the board.
func (ch *Champions) Size() int {
	return len(ch.entries)
}

// Top returns the highest-fitness entry. The second return is false when the
// board is empty.
func (ch *Champions) Top() (ChampionEntry, bool) {
	if len(ch.entries) == 0 {
		return ChampionEntry{}, false
	}
	return ch.entries[0], true
}

// Entries returns the board in descending fitness order.
func (ch *Champions) Entries() []ChampionEntry {
	return ch.entries
}

// MarshalJSON serializes the board.
func (ch *Champions) MarshalJSON() ([]byte, error) {
	return json.MarshalIndent(ch.entries, "", "  ")
}

// LoadChampionsFromFile reads a champions JSON file written by a previous
// run.
func LoadChampionsFromFile(path string, maxSize int) (*Champions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading champions: %w", err)
	}

	var entries []ChampionEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing champions JSON: %w", err)
	}

	if maxSize < len(entries) {
		maxSize = len(entries)
	}
	ch := NewChampions(maxSize)
	for _, e := range entries {
		ch.Consider(e)
	}
	return ch, nil
}
