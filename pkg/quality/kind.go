// Package quality implements the water-quality classification core: parameter
// classification against fixed safety thresholds, worst-case status
// aggregation, alert derivation, and bounded per-parameter history.
// The package is pure and performs no I/O.
package quality

// ParameterKind identifies one of the four tracked water parameters.
type ParameterKind string

const (
	KindTDS         ParameterKind = "tds"
	KindTemperature ParameterKind = "temperature"
	KindTurbidity   ParameterKind = "turbidity"
	KindPH          ParameterKind = "ph"
)

// AllKinds returns the tracked parameter kinds in stable display order.
func AllKinds() []ParameterKind {
	return []ParameterKind{KindTDS, KindTemperature, KindTurbidity, KindPH}
}

// Valid reports whether k is one of the four tracked kinds.
func (k ParameterKind) Valid() bool {
	switch k {
	case KindTDS, KindTemperature, KindTurbidity, KindPH:
		return true
	}
	return false
}

// Unit returns the display unit for the kind. Turbidity is reported in NTU,
// which applies to the scaled value only.
func (k ParameterKind) Unit() string {
	switch k {
	case KindTDS:
		return "ppm"
	case KindTemperature:
		return "°C"
	case KindTurbidity:
		return "NTU"
	default:
		return ""
	}
}

// DisplayName returns the human-facing name for the kind.
func (k ParameterKind) DisplayName() string {
	switch k {
	case KindTDS:
		return "Total Dissolved Solids"
	case KindTemperature:
		return "Temperature"
	case KindTurbidity:
		return "Turbidity"
	case KindPH:
		return "pH Level"
	default:
		return string(k)
	}
}
