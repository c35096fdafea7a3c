package memory

import (
	"math"
	"time"
)

// FadingThreshold is the decay score below which a memory is eligible for
// automatic archival.
const FadingThreshold = 0.1

// DecayScore combines recency and access frequency: 0.0 means should
// archive, 1.0 and above means very alive.
func DecayScore(m Memory, now time.Time) float64 {
	return recency(m, now) * frequency(m)
}

// recency is 0.5^(days since last access / half-life), 1.0 for classes
// that never decay.
func recency(m Memory, now time.Time) float64 {
	halfLife, ok := m.DecayClass.HalfLifeDays()
	if !ok {
		return 1.0
	}
	days := now.Sub(m.LastAccessed).Hours() / 24
	return math.Pow(0.5, days/halfLife)
}

// frequency is log2(access_count + 1), so a single access scores 1.0.
func frequency(m Memory) float64 {
	return math.Log2(float64(m.AccessCount) + 1)
}

// IsFading reports whether a memory has decayed below the archival
// threshold. Always false for DecayNever regardless of age or access count.
func IsFading(m Memory, now time.Time) bool {
	if m.DecayClass == DecayNever {
		return false
	}
	return DecayScore(m, now) < FadingThreshold
}
