package models

// PlayerRecord is the full per-player state published to the room store.
// Writers always replace the whole record, never individual fields, so the
// last full write for a player wins and partial-update races cannot occur.
type PlayerRecord struct {
	Typed    string  `json:"typed"`
	Progress float64 `json:"progress"` // fraction of the reference text typed, [0,1]
	Accuracy float64 `json:"accuracy"` // percent of typed characters correct, [0,100]
	WPM      float64 `json:"wpm"`
	Finished bool    `json:"finished"`
}

// NewPlayerRecord returns the zeroed record published when a player joins.
// Accuracy starts at 100 because nothing has been mistyped yet.
func NewPlayerRecord() PlayerRecord {
	return PlayerRecord{Accuracy: 100}
}
