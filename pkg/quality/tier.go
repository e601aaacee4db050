package quality

import "fmt"

// Tier is a severity classification for a single parameter or for the
// overall water quality. Tiers are ordered: a higher rank is worse.
// TierUnknown sits outside the four-tier scale and is only produced by
// aggregation over an empty parameter set.
type Tier int

const (
	TierUnknown Tier = iota
	TierExcellent
	TierGood
	TierWarning
	TierDanger
)

// Rank returns the severity rank of the tier. Higher is worse.
// TierUnknown ranks below every real tier.
func (t Tier) Rank() int {
	return int(t)
}

// String returns the lowercase tier name used in API payloads and logs.
func (t Tier) String() string {
	switch t {
	case TierExcellent:
		return "excellent"
	case TierGood:
		return "good"
	case TierWarning:
		return "warning"
	case TierDanger:
		return "danger"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the tier as its string name.
func (t Tier) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON decodes a tier from its string name.
func (t *Tier) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"excellent"`:
		*t = TierExcellent
	case `"good"`:
		*t = TierGood
	case `"warning"`:
		*t = TierWarning
	case `"danger"`:
		*t = TierDanger
	case `"unknown"`:
		*t = TierUnknown
	default:
		return fmt.Errorf("unknown tier %s", data)
	}
	return nil
}

// Overall aggregates per-parameter tiers into one worst-case tier.
// The result is the highest-ranked tier present and is invariant under
// reordering of the input. An empty input yields TierUnknown so callers can
// distinguish "nothing tracked" from any real classification.
func Overall(tiers []Tier) Tier {
	if len(tiers) == 0 {
		return TierUnknown
	}
	worst := TierExcellent
	for _, t := range tiers {
		if t.Rank() > worst.Rank() {
			worst = t
		}
	}
	return worst
}
