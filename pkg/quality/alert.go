package quality

import "time"

// Alert is a transient notice that one parameter is outside the safe band.
// Alerts are recomputed from scratch for every reading and replace the
// previous list; nothing is deduplicated or persisted across readings.
type Alert struct {
	Timestamp time.Time     `json:"timestamp"`
	ID        string        `json:"id"`
	Kind      ParameterKind `json:"kind"`
	Severity  Tier          `json:"severity"`
	Message   string        `json:"message"`
	Unit      string        `json:"unit"`
	Value     float64       `json:"value"`
}

// GenerateAlerts derives the alert list for one reading. Evaluation order is
// stable (tds, ph, turbidity, temperature) and each parameter contributes at
// most one alert. Missing parameters are skipped. The alert cut points are
// a separate table from Classify; the two differ at some boundaries and
// must not be unified.
func GenerateAlerts(r *RawReading, now time.Time) []Alert {
	var alerts []Alert
	if r == nil {
		return alerts
	}

	if r.TDS != nil {
		v := *r.TDS
		switch {
		case v > 900:
			alerts = append(alerts, Alert{
				ID:        "tds-high",
				Kind:      KindTDS,
				Severity:  TierDanger,
				Message:   "High TDS level detected",
				Value:     v,
				Unit:      KindTDS.Unit(),
				Timestamp: now,
			})
		case v > 600:
			alerts = append(alerts, Alert{
				ID:        "tds-warning",
				Kind:      KindTDS,
				Severity:  TierWarning,
				Message:   "High TDS level detected",
				Value:     v,
				Unit:      KindTDS.Unit(),
				Timestamp: now,
			})
		}
	}

	if r.PH != nil {
		v := *r.PH
		switch {
		case v < 5.5 || v > 9.5:
			alerts = append(alerts, Alert{
				ID:        "ph-danger",
				Kind:      KindPH,
				Severity:  TierDanger,
				Message:   "pH level outside safe range",
				Value:     v,
				Unit:      KindPH.Unit(),
				Timestamp: now,
			})
		case (v >= 5.5 && v < 6.0) || (v > 9.0 && v <= 9.5):
			alerts = append(alerts, Alert{
				ID:        "ph-warning",
				Kind:      KindPH,
				Severity:  TierWarning,
				Message:   "pH level outside safe range",
				Value:     v,
				Unit:      KindPH.Unit(),
				Timestamp: now,
			})
		}
	}

	if r.Turbidity != nil {
		v := ScaleTurbidity(*r.Turbidity)
		switch {
		case v > 10:
			alerts = append(alerts, Alert{
				ID:        "turbidity-danger",
				Kind:      KindTurbidity,
				Severity:  TierDanger,
				Message:   "High turbidity detected",
				Value:     v,
				Unit:      KindTurbidity.Unit(),
				Timestamp: now,
			})
		case v >= 4 && v <= 10:
			alerts = append(alerts, Alert{
				ID:        "turbidity-warning",
				Kind:      KindTurbidity,
				Severity:  TierWarning,
				Message:   "High turbidity detected",
				Value:     v,
				Unit:      KindTurbidity.Unit(),
				Timestamp: now,
			})
		}
	}

	if r.Temperature != nil {
		v := *r.Temperature
		switch {
		case v < 10 || v > 35:
			alerts = append(alerts, Alert{
				ID:        "temperature-danger",
				Kind:      KindTemperature,
				Severity:  TierDanger,
				Message:   "Water temperature outside safe range",
				Value:     v,
				Unit:      KindTemperature.Unit(),
				Timestamp: now,
			})
		case (v >= 10 && v < 15) || (v > 30 && v <= 35):
			alerts = append(alerts, Alert{
				ID:        "temperature-warning",
				Kind:      KindTemperature,
				Severity:  TierWarning,
				Message:   "Water temperature outside safe range",
				Value:     v,
				Unit:      KindTemperature.Unit(),
				Timestamp: now,
			})
		}
	}

	return alerts
}
