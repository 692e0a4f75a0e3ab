package http

import (
	"embed"
	"encoding/base64"
	"html/template"
	"strconv"
	"time"

	forecaster "github.com/aouyang1/chronos"
	"github.com/aouyang1/chronos/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(
	template.New("page").
		Funcs(template.FuncMap{
			"date": func(t time.Time) string { return t.Format(time.DateOnly) },
			"num":  func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) },
		}).
		ParseFS(templateFS, "templates/*.html"),
)

// pageData is everything the single page template can show. At most one of Error, Preview and
// Output is set; none means the idle state.
type pageData struct {
	Horizon    int
	MinHorizon int
	MaxHorizon int

	Error        string
	Preview      *service.Preview
	Output       *service.Output
	ShowHolidays bool
}

func (p pageData) DownloadName() string {
	return forecaster.ExportFilename
}

// DownloadURL embeds the csv export in a data uri so the page needs no second request
func (p pageData) DownloadURL() template.URL {
	if p.Output == nil {
		return ""
	}
	return template.URL("data:" + forecaster.ExportContentType + ";charset=utf-8;base64," +
		base64.StdEncoding.EncodeToString(p.Output.CSV))
}
