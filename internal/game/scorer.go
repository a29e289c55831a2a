package game

import "time"

const (
	baseScore  = 100
	speedBonus = 50
)

// Score computes the points for one answer. Wrong answers earn nothing.
// Correct answers earn the base plus a bonus proportional to how much of
// the question window was left when the answer arrived: an answer at the
// deadline earns exactly the base, an instant answer earns base + bonus.
//
// remaining is clamped to [0, max] first, so a late-but-accepted answer
// can never go negative and a clock skew can never exceed the cap.
func Score(correct bool, remaining, max time.Duration) int {
	if !correct {
		return 0
	}
	if max <= 0 {
		return baseScore
	}
	if remaining < 0 {
		remaining = 0
	}
	if remaining > max {
		remaining = max
	}
	bonus := int(remaining.Seconds() / max.Seconds() * speedBonus)
	return baseScore + bonus
}
