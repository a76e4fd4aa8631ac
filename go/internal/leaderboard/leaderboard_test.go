package leaderboard

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mcdev12/typerace/go/internal/models"
)

func TestRankOrdersByWPMDescending(t *testing.T) {
	players := map[string]models.PlayerRecord{
		"p1": {WPM: 40, Finished: true},
		"p2": {WPM: 55, Finished: true},
		"p3": {WPM: 48, Finished: true},
	}

	got := Rank(players)

	wantOrder := []string{"p2", "p3", "p1"}
	gotOrder := make([]string, len(got))
	for i, entry := range got {
		gotOrder[i] = entry.PlayerID
	}
	if diff := cmp.Diff(wantOrder, gotOrder); diff != "" {
		t.Errorf("Rank() order mismatch (-want +got):\n%s", diff)
	}
}

func TestRankExcludesUnfinishedPlayers(t *testing.T) {
	players := map[string]models.PlayerRecord{
		"done":    {WPM: 30, Finished: true},
		"racing":  {WPM: 90, Progress: 0.5},
		"stalled": {Progress: 0.1},
	}

	got := Rank(players)

	if len(got) != 1 {
		t.Fatalf("Rank() returned %d entries, want 1", len(got))
	}
	if got[0].PlayerID != "done" {
		t.Errorf("Rank() returned %q, want %q", got[0].PlayerID, "done")
	}
}

// Equal WPM values have no defined order, so this only asserts membership
// and that WPM never increases down the board.
func TestRankTiedWPM(t *testing.T) {
	players := map[string]models.PlayerRecord{
		"a": {WPM: 42, Finished: true},
		"b": {WPM: 42, Finished: true},
		"c": {WPM: 60, Finished: true},
	}

	got := Rank(players)

	if len(got) != 3 {
		t.Fatalf("Rank() returned %d entries, want 3", len(got))
	}
	if got[0].PlayerID != "c" {
		t.Errorf("Rank() first entry = %q, want %q", got[0].PlayerID, "c")
	}
	for i := 1; i < len(got); i++ {
		if got[i].Record.WPM > got[i-1].Record.WPM {
			t.Errorf("Rank() WPM increased from %v to %v at index %d", got[i-1].Record.WPM, got[i].Record.WPM, i)
		}
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	players := map[string]models.PlayerRecord{
		"p1": {WPM: 40, Finished: true},
		"p2": {WPM: 55},
	}
	want := map[string]models.PlayerRecord{
		"p1": {WPM: 40, Finished: true},
		"p2": {WPM: 55},
	}

	Rank(players)

	if diff := cmp.Diff(want, players); diff != "" {
		t.Errorf("Rank() mutated its input (-want +got):\n%s", diff)
	}
}

func TestRankEmptySnapshot(t *testing.T) {
	if got := Rank(nil); len(got) != 0 {
		t.Errorf("Rank(nil) = %v, want empty", got)
	}
}
