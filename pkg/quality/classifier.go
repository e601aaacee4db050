package quality

// Classify maps a parameter value to its severity tier. It is total: any
// numeric input resolves to a tier, with out-of-physical-range values landing
// in TierDanger. Turbidity must be the scaled NTU value, never the raw
// sensor unit.
//
// TDS and turbidity are one-sided monotonic scales with half-open bands.
// Temperature and pH have symmetric two-sided ideal ranges expressed as
// nested closed intervals; membership is tested innermost first (excellent,
// then good, then warning), so the order of the checks is load-bearing.
func Classify(kind ParameterKind, value float64) Tier {
	switch kind {
	case KindTDS:
		switch {
		case value < 0:
			return TierDanger
		case value < 300:
			return TierExcellent
		case value < 600:
			return TierGood
		case value < 900:
			return TierWarning
		default:
			return TierDanger
		}

	case KindTemperature:
		switch {
		case value >= 20 && value <= 25:
			return TierExcellent
		case value >= 15 && value <= 30:
			return TierGood
		case value >= 10 && value <= 35:
			return TierWarning
		default:
			return TierDanger
		}

	case KindTurbidity:
		switch {
		case value < 0:
			return TierDanger
		case value < 1:
			return TierExcellent
		case value < 4:
			return TierGood
		case value < 10:
			return TierWarning
		default:
			return TierDanger
		}

	case KindPH:
		switch {
		case value >= 6.5 && value <= 8.5:
			return TierExcellent
		case value >= 6.0 && value <= 9.0:
			return TierGood
		case value >= 5.5 && value <= 9.5:
			return TierWarning
		default:
			return TierDanger
		}

	default:
		return TierUnknown
	}
}

// Band describes one classifier threshold band for display purposes.
type Band struct {
	Tier  Tier   `json:"tier"`
	Range string `json:"range"`
}

// Standards returns the classifier threshold reference per kind, in tier
// order from excellent to danger, for the standards card on the dashboard.
func Standards() map[ParameterKind][]Band {
	return map[ParameterKind][]Band{
		KindTDS: {
			{TierExcellent, "< 300 ppm"},
			{TierGood, "300-600 ppm"},
			{TierWarning, "600-900 ppm"},
			{TierDanger, "> 900 ppm"},
		},
		KindTemperature: {
			{TierExcellent, "20-25°C"},
			{TierGood, "15-30°C"},
			{TierWarning, "10-15°C or 30-35°C"},
			{TierDanger, "< 10°C or > 35°C"},
		},
		KindTurbidity: {
			{TierExcellent, "< 1 NTU"},
			{TierGood, "1-4 NTU"},
			{TierWarning, "4-10 NTU"},
			{TierDanger, "> 10 NTU"},
		},
		KindPH: {
			{TierExcellent, "6.5-8.5"},
			{TierGood, "6.0-9.0"},
			{TierWarning, "5.5-6.0 or 9.0-9.5"},
			{TierDanger, "< 5.5 or > 9.5"},
		},
	}
}
