// Command chronos-cli forecasts a daily sales csv offline and writes the same exports as the
// web page.
//
//	chronos-cli -in vendas.csv -horizon 30 -out previsao_vendas.csv -html chart.html
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	forecaster "github.com/aouyang1/chronos"
	"github.com/aouyang1/chronos/internal/config"
	"github.com/aouyang1/chronos/internal/logging"
	"github.com/aouyang1/chronos/internal/service"
	"github.com/pkg/profile"
)

var ErrMissingInput = errors.New("an input csv is required")

type cliOptions struct {
	in       string
	horizon  int
	out      string
	xlsx     string
	html     string
	country  string
	profile  string
	logLevel string
	quiet    bool
}

func parseFlags(args []string, stderr io.Writer) (*cliOptions, error) {
	cfg := config.Default()
	opt := &cliOptions{}

	fs := flag.NewFlagSet("chronos-cli", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opt.in, "in", "", "input csv with a date column followed by a value column, - for stdin")
	fs.IntVar(&opt.horizon, "horizon", cfg.Forecast.DefaultHorizon,
		fmt.Sprintf("days to forecast, between %d and %d", cfg.Forecast.MinHorizon, cfg.Forecast.MaxHorizon))
	fs.StringVar(&opt.out, "out", forecaster.ExportFilename, "forecast csv output, - for stdout")
	fs.StringVar(&opt.xlsx, "xlsx", "", "optional forecast spreadsheet output")
	fs.StringVar(&opt.html, "html", "", "optional chart html output")
	fs.StringVar(&opt.country, "holidays", cfg.Forecast.HolidayCountry, "holiday calendar to annotate forecast dates: br, us or empty")
	fs.StringVar(&opt.profile, "profile", "", "write a cpu or mem profile to the working directory")
	fs.StringVar(&opt.logLevel, "log-level", "warn", "log level")
	fs.BoolVar(&opt.quiet, "quiet", false, "do not print the model summary")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opt.in == "" {
		return nil, ErrMissingInput
	}
	switch opt.profile {
	case "", "cpu", "mem":
	default:
		return nil, fmt.Errorf("unknown profile mode %q", opt.profile)
	}
	return opt, nil
}

func main() {
	os.Exit(cli(os.Args[1:]))
}

// cli runs the command and returns the exit code. Profiles are flushed before it returns.
func cli(args []string) int {
	opt, err := parseFlags(args, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "chronos-cli: %v\n", err)
		return 2
	}

	switch opt.profile {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.Quiet).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.Quiet).Stop()
	}

	if err := run(context.Background(), opt, os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "chronos-cli: %v\n", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, opt *cliOptions, stdin io.Reader, stdout, stderr io.Writer) error {
	logger, err := logging.New(config.LoggingConfig{Level: opt.logLevel, Format: "console"}, stderr)
	if err != nil {
		return err
	}

	fcCfg := config.Default().Forecast
	fcCfg.HolidayCountry = opt.country
	svc, err := service.NewForecastService(service.OptionsFromConfig(fcCfg), nil, logger)
	if err != nil {
		return err
	}

	in := stdin
	if opt.in != "-" {
		f, err := os.Open(opt.in)
		if err != nil {
			return fmt.Errorf("unable to open input, %w", err)
		}
		defer f.Close()
		in = f
	}

	out, err := svc.Run(ctx, in, opt.horizon)
	if err != nil {
		return err
	}

	if err := writeOutput(opt.out, stdout, func(w io.Writer) error {
		_, err := w.Write(out.CSV)
		return err
	}); err != nil {
		return err
	}
	if opt.xlsx != "" {
		if err := writeOutput(opt.xlsx, stdout, out.WriteXLSX); err != nil {
			return err
		}
	}
	if opt.html != "" {
		if err := writeOutput(opt.html, stdout, func(w io.Writer) error {
			_, err := w.Write(out.ChartHTML)
			return err
		}); err != nil {
			return err
		}
	}

	if !opt.quiet {
		if err := out.Model.TablePrint(stderr, "", "  "); err != nil {
			return err
		}
	}
	logger.Info().
		Str("run_id", out.RunID).
		Dur("fit_duration", out.FitDuration).
		Int("horizon", out.Horizon).
		Str("first_day", out.Rows[0].Date.Format(time.DateOnly)).
		Msg("forecast written")
	return nil
}

// writeOutput writes to path, or to stdout when path is -
func writeOutput(path string, stdout io.Writer, write func(io.Writer) error) error {
	if path == "-" {
		return write(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create %s, %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("unable to write %s, %w", path, err)
	}
	return f.Close()
}
