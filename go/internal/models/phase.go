package models

// Phase defines the lifecycle phase of a room session. A session's Finished
// phase means this player's own race is over for ranking display; other
// players in the room may still be racing.
type Phase string

const (
	PhaseLobby     Phase = "LOBBY"
	PhaseCountdown Phase = "COUNTDOWN"
	PhaseRacing    Phase = "RACING"
	PhaseFinished  Phase = "FINISHED"
)

// IsValid reports whether p is a known phase.
func (p Phase) IsValid() bool {
	switch p {
	case PhaseLobby, PhaseCountdown, PhaseRacing, PhaseFinished:
		return true
	}
	return false
}
