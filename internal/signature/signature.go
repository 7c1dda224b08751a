// Package signature derives the numeric signature a message is scored on.
package signature

import "unicode/utf16"

// MaxLength caps the message length considered by Extract.
const MaxLength = 512

// Signature is the sparse feature set derived from a message.
// Positions and Elevations always have the same length.
type Signature struct {
	Positions  []int     `json:"positions"`
	Elevations []float64 `json:"elevations"`
}

// Extract derives a signature from the message length alone.
// Positions are fixed placeholders; content does not vary them yet.
func Extract(message string) Signature {
	return FromLength(Length(message))
}

// FromLength builds the signature for a message of n UTF-16 code units.
// Replay tooling uses it to re-score logged decisions without the text.
func FromLength(n int) Signature {
	l := min(max(n, 0), MaxLength)
	e1 := clamp(l/8, 5, 30)
	e2 := clamp(l/4, 10, 40)

	return Signature{
		Positions:  []int{1, 2},
		Elevations: []float64{float64(e1), float64(e2)},
	}
}

// Length counts UTF-16 code units, so astral-plane runes count twice.
// Invalid UTF-8 bytes decode to U+FFFD and count once.
func Length(message string) int {
	n := 0
	for _, r := range message {
		n += utf16.RuneLen(r)
	}
	return n
}

// Sum returns the total of all elevations. Empty signatures sum to 0.
func (s Signature) Sum() float64 {
	var sum float64
	for _, e := range s.Elevations {
		sum += e
	}
	return sum
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
