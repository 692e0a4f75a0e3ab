package forecaster

import "time"

// Results holds a forecast, or in-sample fit, with its interval bounds per date
type Results struct {
	T        []time.Time `json:"time"`
	Forecast []float64   `json:"forecast"`
	Lower    []float64   `json:"lower"`
	Upper    []float64   `json:"upper"`

	// Holidays names the public holiday on each date, empty when there is none. Nil when
	// annotation is disabled.
	Holidays []string `json:"holidays,omitempty"`
}

// Row is a single forecast date as presented in tables and exports
type Row struct {
	Date      time.Time `json:"date"`
	Predicted float64   `json:"predicted"`
	Lower     float64   `json:"lower"`
	Upper     float64   `json:"upper"`
	Holiday   string    `json:"holiday,omitempty"`
}

func (r *Results) Len() int {
	if r == nil {
		return 0
	}
	return len(r.T)
}

// Rows pivots the results into one row per date
func (r *Results) Rows() []Row {
	rows := make([]Row, 0, r.Len())
	for i := 0; i < r.Len(); i++ {
		row := Row{
			Date:      r.T[i],
			Predicted: r.Forecast[i],
			Lower:     r.Lower[i],
			Upper:     r.Upper[i],
		}
		if i < len(r.Holidays) {
			row.Holiday = r.Holidays[i]
		}
		rows = append(rows, row)
	}
	return rows
}
