package quality

// TurbidityScale converts the raw turbidity sensor unit to NTU. Every
// consumer (classification, alerting, charting, display) sees only the
// scaled value.
const TurbidityScale = 0.01

// RawReading is one snapshot of all tracked parameters as delivered by the
// transport. Field names match the sensor payload. Fields are pointers so a
// missing value can be told apart from zero; a missing parameter is excluded
// from classification and aggregation for that cycle.
type RawReading struct {
	TDS         *float64 `json:"TDS,omitempty"`
	Temperature *float64 `json:"Temperature,omitempty"`
	Turbidity   *float64 `json:"Turbidity,omitempty"` // raw sensor unit, see TurbidityScale
	PH          *float64 `json:"pH,omitempty"`
}

// ScaleTurbidity converts a raw turbidity sensor value to NTU.
func ScaleTurbidity(raw float64) float64 {
	return raw * TurbidityScale
}

// Empty reports whether the reading carries no values at all.
func (r *RawReading) Empty() bool {
	return r == nil || (r.TDS == nil && r.Temperature == nil && r.Turbidity == nil && r.PH == nil)
}

// Values returns the present parameters keyed by kind, with turbidity already
// scaled to NTU. Missing fields are omitted from the map.
func (r *RawReading) Values() map[ParameterKind]float64 {
	values := make(map[ParameterKind]float64, 4)
	if r == nil {
		return values
	}
	if r.TDS != nil {
		values[KindTDS] = *r.TDS
	}
	if r.Temperature != nil {
		values[KindTemperature] = *r.Temperature
	}
	if r.Turbidity != nil {
		values[KindTurbidity] = ScaleTurbidity(*r.Turbidity)
	}
	if r.PH != nil {
		values[KindPH] = *r.PH
	}
	return values
}
