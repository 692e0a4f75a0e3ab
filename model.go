package forecaster

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/aouyang1/chronos/sarima"
)

// Model represents a serializeable summary of a fit storing the forecaster options, the training
// range and the estimated SARIMA parameters
type Model struct {
	Options        *Options     `json:"options"`
	TrainStartTime time.Time    `json:"train_start_time"`
	TrainEndTime   time.Time    `json:"train_end_time"`
	SARIMA         sarima.Model `json:"sarima"`
}

func (m Model) TablePrint(w io.Writer, prefix, indent string) error {
	if _, err := fmt.Fprintf(w, "%s%sSARIMA%s:\n", prefix, indentExpand(indent, 0), m.SARIMA.Order); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%sTraining: %s to %s (%d days)\n",
		prefix, indentExpand(indent, 1),
		m.TrainStartTime.Format(time.DateOnly), m.TrainEndTime.Format(time.DateOnly),
		m.SARIMA.NObs,
	); err != nil {
		return err
	}

	if m.Options != nil {
		if _, err := fmt.Fprintf(w, "%s%sConfidence: %.3f    History Window: %d\n",
			prefix, indentExpand(indent, 1), m.Options.Confidence, m.Options.HistoryWindow); err != nil {
			return err
		}
		if m.Options.SARIMAOptions != nil {
			if _, err := fmt.Fprintf(w, "%s%sEnforce Stationarity: %t    Enforce Invertibility: %t\n",
				prefix, indentExpand(indent, 1),
				m.Options.SARIMAOptions.EnforceStationarity,
				m.Options.SARIMAOptions.EnforceInvertibility,
			); err != nil {
				return err
			}
		}
	}

	if _, err := fmt.Fprintf(w, "%s%sSigma2: %.3f    LogLik: %.3f    AIC: %.3f    BIC: %.3f\n",
		prefix, indentExpand(indent, 1),
		m.SARIMA.Sigma2, m.SARIMA.LogLik, m.SARIMA.AIC, m.SARIMA.BIC,
	); err != nil {
		return err
	}

	if m.SARIMA.Scores != nil {
		if _, err := fmt.Fprintf(w, "%s%sScores:\n", prefix, indentExpand(indent, 0)); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s%sMAPE: %.3f    MSE: %.3f    R2: %.3f\n",
			prefix, indentExpand(indent, 1),
			m.SARIMA.Scores.MAPE,
			m.SARIMA.Scores.MSE,
			m.SARIMA.Scores.R2,
		); err != nil {
			return err
		}
	}

	return m.tablePrintCoef(w, prefix, indent, 0)
}

func (m Model) tablePrintCoef(wr io.Writer, prefix, indent string, indentGrowth int) error {
	if _, err := fmt.Fprintf(wr, "%s%sCoefficients:\n", prefix, indentExpand(indent, indentGrowth)); err != nil {
		return err
	}
	tbl := tabwriter.NewWriter(wr, 0, 0, 1, ' ', tabwriter.AlignRight)
	if _, err := fmt.Fprintf(tbl, "%s%sTerm\tLag\tValue\t\n", prefix, indentExpand(indent, indentGrowth+1)); err != nil {
		return err
	}

	terms := []struct {
		name string
		lag  int
		coef []float64
	}{
		{name: "ar", lag: 1, coef: m.SARIMA.AR},
		{name: "seasonal_ar", lag: m.SARIMA.Order.M, coef: m.SARIMA.SAR},
		{name: "ma", lag: 1, coef: m.SARIMA.MA},
		{name: "seasonal_ma", lag: m.SARIMA.Order.M, coef: m.SARIMA.SMA},
	}
	for _, term := range terms {
		for i, c := range term.coef {
			if _, err := fmt.Fprintf(tbl, "%s%s%s\t%d\t%.3f\t\n",
				prefix, indentExpand(indent, indentGrowth+1),
				term.name, (i+1)*term.lag, c); err != nil {
				return err
			}
		}
	}
	return tbl.Flush()
}

func indentExpand(indent string, growth int) string {
	indentByte := []byte(indent)
	out := make([]byte, 0, len(indent)*growth)
	for i := 0; i < growth; i++ {
		out = append(out, indentByte...)
	}
	return string(out)
}
