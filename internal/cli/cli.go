// Package cli общий запуск консольных утилит progress и export.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/DevN0mad/TodoProgress/internal/models"
	"github.com/DevN0mad/TodoProgress/internal/report"
	"github.com/DevN0mad/TodoProgress/internal/services"
)

// Коды завершения процесса.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// Variant вариант утилиты: вывод сводки или выгрузка в файл.
type Variant int

const (
	VariantProgress Variant = iota
	VariantExport
)

// NewFetcherFunc создает клиента API, подменяется в тестах.
type NewFetcherFunc func(opts services.OpenAPIOpts, logger *slog.Logger) services.ReportFetcher

func defaultFetcher(opts services.OpenAPIOpts, logger *slog.Logger) services.ReportFetcher {
	return services.Init(opts, logger)
}

// Command разобранные аргументы запуска.
type Command struct {
	Variant    Variant
	EmployeeID int
	BaseURL    string
	Timeout    time.Duration
	Debug      bool
	Format     report.Format
	OutputDir  string
}

// Runner запускает утилиту с заданными потоками вывода.
type Runner struct {
	Variant    Variant
	Stdout     io.Writer
	Stderr     io.Writer
	NewFetcher NewFetcherFunc
}

// Run разбирает аргументы, выполняет команду и возвращает код завершения.
// args включает имя программы, как os.Args.
func (r Runner) Run(ctx context.Context, args []string) int {
	app, cmd := r.newApp()

	if _, err := app.Parse(args[1:]); err != nil {
		fmt.Fprintf(r.Stderr, "Error: %s\n", err)
		app.Usage(nil)
		return ExitUsage
	}

	id, err := models.ParseEmployeeID(cmd.rawID)
	if err != nil {
		fmt.Fprintf(r.Stderr, "Error: %s\n", err)
		return ExitUsage
	}
	cmd.EmployeeID = id

	format, err := report.ParseFormat(cmd.rawFormat)
	if err != nil {
		fmt.Fprintf(r.Stderr, "Error: %s\n", err)
		return ExitUsage
	}
	cmd.Format = format

	if err := r.execute(ctx, cmd.Command); err != nil {
		fmt.Fprintf(r.Stderr, "Error: %s\n", err)
		if errors.Is(err, models.ErrInvalidArgument) {
			return ExitUsage
		}
		return ExitFailure
	}
	return ExitOK
}

type parsedCommand struct {
	Command
	rawID     string
	rawFormat string
}

func (r Runner) newApp() (*kingpin.Application, *parsedCommand) {
	cmd := &parsedCommand{Command: Command{Variant: r.Variant}, rawFormat: string(report.FormatCSV)}

	var app *kingpin.Application
	switch r.Variant {
	case VariantExport:
		app = kingpin.New("export", "Export an employee's todo list to a file named after the employee id.")
	default:
		app = kingpin.New("progress", "Print an employee's todo list progress.")
	}
	app.DefaultEnvars()
	app.UsageWriter(r.Stderr)
	app.ErrorWriter(r.Stderr)

	app.Flag("base-url", "Todo API base URL.").Default(services.DefaultBaseURL).StringVar(&cmd.BaseURL)
	app.Flag("timeout", "HTTP client timeout.").Default("30s").DurationVar(&cmd.Timeout)
	app.Flag("debug", "Enable debug logging.").BoolVar(&cmd.Debug)

	if r.Variant == VariantExport {
		formats := make([]string, 0, len(report.Formats))
		for _, f := range report.Formats {
			formats = append(formats, string(f))
		}
		app.Flag("format", "Export file format.").Default(string(report.FormatCSV)).EnumVar(&cmd.rawFormat, formats...)
		app.Flag("output-dir", "Directory where the export file is written.").Default(".").StringVar(&cmd.OutputDir)
	}

	app.Arg("employee-id", "Employee id.").Required().StringVar(&cmd.rawID)

	return app, cmd
}

func (r Runner) execute(ctx context.Context, cmd Command) error {
	logger := newLogger(r.Stderr, cmd.Debug)

	newFetcher := r.NewFetcher
	if newFetcher == nil {
		newFetcher = defaultFetcher
	}
	fetcher := newFetcher(services.OpenAPIOpts{BaseURL: cmd.BaseURL, Timeout: cmd.Timeout}, logger)

	rep, err := fetcher.FetchReport(ctx, cmd.EmployeeID)
	if err != nil {
		logger.Debug("Fetch report failed", "employee_id", cmd.EmployeeID, "error", err)
		return err
	}

	switch cmd.Variant {
	case VariantExport:
		path, err := report.Export(rep, cmd.Format, cmd.OutputDir)
		if err != nil {
			logger.Debug("Export failed", "employee_id", cmd.EmployeeID, "format", cmd.Format, "error", err)
			return err
		}
		fmt.Fprintf(r.Stdout, "Data exported to %s\n", path)
	default:
		if err := report.WriteConsole(r.Stdout, rep); err != nil {
			return err
		}
	}
	return nil
}

// newLogger логгер для утилит: stderr, чтобы не смешивать с отчетом.
// Без --debug пишутся только ошибки.
func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelError
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
