package validation

import (
	"encoding/json"
	"math"
)

// nullable maps undefined measures to JSON null
func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// MarshalJSON writes undefined measures as null
func (m Metrics) MarshalJSON() ([]byte, error) {
	type plain Metrics
	return json.Marshal(struct {
		plain
		R2          *float64 `json:"r2"`
		RMSE        *float64 `json:"rmse"`
		MAE         *float64 `json:"mae"`
		MaxAbsError *float64 `json:"max_abs_error"`
		MAPE        *float64 `json:"mape"`
	}{plain(m), nullable(m.R2), nullable(m.RMSE), nullable(m.MAE), nullable(m.MaxAbsError), nullable(m.MAPE)})
}

// MarshalJSON writes an undefined fold R2 as null
func (f FoldResult) MarshalJSON() ([]byte, error) {
	type plain FoldResult
	return json.Marshal(struct {
		plain
		R2 *float64 `json:"r2"`
	}{plain(f), nullable(f.R2)})
}

// MarshalJSON writes undefined cross-validation scores as null
func (r Report) MarshalJSON() ([]byte, error) {
	type plain Report
	return json.Marshal(struct {
		plain
		CVR2 *float64 `json:"cv_r2"`
		CVQ2 *float64 `json:"cv_q2"`
	}{plain(r), nullable(r.CVR2), nullable(r.CVQ2)})
}
