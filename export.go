package forecaster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	ExportFilename    = "previsao_vendas.csv"
	ExportContentType = "text/csv"

	XLSXFilename    = "previsao_vendas.xlsx"
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	XLSXSheet       = "previsao"
)

var (
	ErrExportHeader = errors.New("unexpected export header")
	ErrExportRow    = errors.New("malformed export row")
)

// ExportHeader is the column order of the CSV export
var ExportHeader = []string{"date", "predicted", "lower", "upper"}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteCSV writes one row per forecast date with the date as the first column. Values use the
// shortest representation that parses back to the same float.
func WriteCSV(w io.Writer, res *Results) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return fmt.Errorf("unable to write export header, %w", err)
	}
	for _, row := range res.Rows() {
		record := []string{
			row.Date.Format(time.DateOnly),
			formatFloat(row.Predicted),
			formatFloat(row.Lower),
			formatFloat(row.Upper),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("unable to write export row, %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses an export written by WriteCSV
func ReadCSV(r io.Reader) (*Results, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(ExportHeader)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w, %w", ErrExportHeader, err)
	}
	for i, col := range ExportHeader {
		if header[i] != col {
			return nil, fmt.Errorf("column %d is %q not %q, %w", i, header[i], col, ErrExportHeader)
		}
	}

	res := &Results{}
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d, %w, %w", line, ErrExportRow, err)
		}

		date, err := time.ParseInLocation(time.DateOnly, record[0], time.UTC)
		if err != nil {
			return nil, fmt.Errorf("line %d: %q, %w", line, record[0], ErrExportRow)
		}
		vals := make([]float64, 3)
		for i := range vals {
			vals[i], err = strconv.ParseFloat(record[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %q, %w", line, record[i+1], ErrExportRow)
			}
		}
		res.T = append(res.T, date)
		res.Forecast = append(res.Forecast, vals[0])
		res.Lower = append(res.Lower, vals[1])
		res.Upper = append(res.Upper, vals[2])
	}
	return res, nil
}

// WriteXLSX writes the forecast rows to a single sheet workbook with a holiday column.
func WriteXLSX(w io.Writer, res *Results) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", XLSXSheet); err != nil {
		return err
	}

	header := []interface{}{"date", "predicted", "lower", "upper", "holiday"}
	if err := f.SetSheetRow(XLSXSheet, "A1", &header); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(XLSXSheet, "A1", "E1", bold); err != nil {
		return err
	}

	rows := res.Rows()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{
			row.Date.Format(time.DateOnly),
			row.Predicted,
			row.Lower,
			row.Upper,
			row.Holiday,
		}
		if err := f.SetSheetRow(XLSXSheet, cell, &values); err != nil {
			return err
		}
	}

	if len(rows) > 0 {
		numFmt := "#,##0.00"
		numStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
		if err != nil {
			return err
		}
		last, err := excelize.CoordinatesToCellName(4, len(rows)+1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(XLSXSheet, "B2", last, numStyle); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(XLSXSheet, "A", "E", 14); err != nil {
		return err
	}
	if err := f.SetPanes(XLSXSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}
