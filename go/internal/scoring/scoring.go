package scoring

import "time"

// Result holds the fields derived from one typed submission.
type Result struct {
	CorrectCount int
	Accuracy     float64 // percent, [0,100]
	Progress     float64 // fraction of the reference typed, [0,1]
	WPM          float64
	Finished     bool
}

// Score derives accuracy, progress, WPM and completion for a typed prefix
// against the reference text. Characters are compared positionally, so a
// wrong character early on counts against accuracy even once the player
// types past it. elapsed is the time since this player's race started; zero
// or negative means the race has not started yet and WPM is 0.
//
// Score is pure and safe to call concurrently. Callers must not pass a
// prefix longer than the reference; sessions clamp input before scoring.
func Score(typed, reference string, elapsed time.Duration) Result {
	correct := 0
	for i := 0; i < len(typed); i++ {
		if typed[i] == reference[i] {
			correct++
		}
	}

	accuracy := 100.0
	if len(typed) > 0 {
		accuracy = 100 * float64(correct) / float64(len(typed))
	}

	var wpm float64
	if ms := elapsed.Milliseconds(); ms > 0 {
		// Standard typing metric: one "word" is five characters.
		wpm = (float64(len(typed)) / 5) * (60000 / float64(ms))
	}

	return Result{
		CorrectCount: correct,
		Accuracy:     accuracy,
		Progress:     float64(len(typed)) / float64(len(reference)),
		WPM:          wpm,
		Finished:     len(typed) == len(reference),
	}
}
