package policy

// Alg identifies a crypto suite. The set is closed: adding a suite means
// adding a band to Bands and a case to planFor together.
type Alg string

const (
	AlgFull       Alg = "ed25519+x25519+aes256gcm+hmac-sha256"
	AlgSignedOnly Alg = "p256-ecdsa-only"
	AlgNone       Alg = "none"
)

// Band is the score tier a message falls into.
type Band string

const (
	BandHigh   Band = "high"
	BandMedium Band = "medium"
	BandLow    Band = "low"
)

// CryptoPlan declares which crypto posture applies to a message.
// Alg, E2EEncrypted, Signed and Hop0 come from the band as a unit;
// the only way to obtain a plan is ComputePlan.
type CryptoPlan struct {
	Alg          Alg      `json:"alg"`
	E2EEncrypted bool     `json:"e2eEncrypted"`
	Signed       bool     `json:"signed"`
	Hop0         bool     `json:"hop0"`
	Notes        []string `json:"notes"`
}

// Bands holds the strict lower bounds of the high and medium tiers.
type Bands struct {
	HighAbove   float64 `yaml:"high_above"   json:"high_above"`
	MediumAbove float64 `yaml:"medium_above" json:"medium_above"`
}

// DefaultBands returns the 0.7 / 0.3 split.
func DefaultBands() Bands {
	return Bands{HighAbove: 0.7, MediumAbove: 0.3}
}

// Classify returns the band for a route score. First match wins and
// comparisons are strict, so a score equal to a bound drops a tier.
func (b Bands) Classify(routeScore float64) Band {
	switch {
	case routeScore > b.HighAbove:
		return BandHigh
	case routeScore > b.MediumAbove:
		return BandMedium
	default:
		return BandLow
	}
}

// ComputePlan selects the crypto plan for a route score using the default bands.
// messageLength is accepted for diagnostics and does not affect the decision.
func ComputePlan(routeScore float64, messageLength int) CryptoPlan {
	return DefaultBands().Plan(routeScore, messageLength)
}

// Plan selects the crypto plan for a route score using these bands.
func (b Bands) Plan(routeScore float64, messageLength int) CryptoPlan {
	return planFor(b.Classify(routeScore))
}

// AlgFor returns the suite bound to a band name. ok is false for names
// outside high, medium and low.
func AlgFor(band string) (alg Alg, ok bool) {
	switch Band(band) {
	case BandHigh, BandMedium, BandLow:
		return planFor(Band(band)).Alg, true
	}
	return "", false
}

func planFor(band Band) CryptoPlan {
	switch band {
	case BandHigh:
		return CryptoPlan{
			Alg:          AlgFull,
			E2EEncrypted: true,
			Signed:       true,
			Hop0:         true,
			Notes: []string{
				"High routeScore: treat as important cognitive packet.",
				"Apply full Smart Atom E2E crypto from hop 0.",
			},
		}
	case BandMedium:
		return CryptoPlan{
			Alg:          AlgSignedOnly,
			E2EEncrypted: false,
			Signed:       true,
			Hop0:         true,
			Notes: []string{
				"Medium routeScore: still trusted but not highest priority.",
				"Sign from hop 0, encrypt at edge if needed.",
			},
		}
	default:
		return CryptoPlan{
			Alg:          AlgNone,
			E2EEncrypted: false,
			Signed:       false,
			Hop0:         false,
			Notes: []string{
				"Low routeScore: likely noise / spam / telemetry.",
				"Mesh may drop or treat as plaintext for stats only.",
			},
		}
	}
}
