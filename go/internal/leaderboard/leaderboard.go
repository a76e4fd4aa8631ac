package leaderboard

import (
	"sort"

	"github.com/mcdev12/typerace/go/internal/models"
)

// Entry pairs a player with their published record.
type Entry struct {
	PlayerID string              `json:"player_id"`
	Record   models.PlayerRecord `json:"record"`
}

// Rank returns exactly the finished players, ordered by WPM descending.
// Players with equal WPM appear in unspecified order; no secondary sort key
// is applied, so callers must not rely on tie order being stable. The input
// map is never mutated.
func Rank(players map[string]models.PlayerRecord) []Entry {
	entries := make([]Entry, 0, len(players))
	for id, record := range players {
		if record.Finished {
			entries = append(entries, Entry{PlayerID: id, Record: record})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Record.WPM > entries[j].Record.WPM
	})
	return entries
}
