package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/DevN0mad/TodoProgress/internal/models"
	"github.com/DevN0mad/TodoProgress/internal/report"
)

// ReportFetcher получает отчет по сотруднику.
type ReportFetcher interface {
	FetchReport(ctx context.Context, employeeID int) (models.ProgressReport, error)
}

// FileSender доставляет готовый файл отчета.
type FileSender interface {
	SendFile(ctx context.Context, path string) error
}

// DailyJobOpts параметры необходимые для работы сервиса.
type DailyJobOpts struct {
	Hour        int    `mapstructure:"hour" yaml:"hour" validate:"min=0,max=23"`
	Minute      int    `mapstructure:"minute" yaml:"minute" validate:"min=0,max=59"`
	EmployeeIDs []int  `mapstructure:"employee_ids" yaml:"employee_ids" validate:"required,min=1,dive,min=1"`
	Format      string `mapstructure:"format" yaml:"format" validate:"omitempty,oneof=csv xlsx"`
	SaveDir     string `mapstructure:"save_dir" yaml:"save_dir" validate:"required"`
}

// DailyJobService каждый день в заданное время выгружает отчеты и отправляет их.
type DailyJobService struct {
	sender      FileSender
	fetcher     ReportFetcher
	employeeIDs []int
	format      report.Format
	saveDir     string
	hour        int
	minute      int
	timezone    *time.Location
	now         func() time.Time
	logger      *slog.Logger
}

// NewDailyJobService создаёт сервис для ежедневной выгрузки отчетов.
func NewDailyJobService(
	sender FileSender,
	fetcher ReportFetcher,
	opts DailyJobOpts,
	logger *slog.Logger,
) (*DailyJobService, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if sender == nil {
		return nil, fmt.Errorf("file sender is required")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("report fetcher is required")
	}
	if len(opts.EmployeeIDs) == 0 {
		return nil, fmt.Errorf("at least one employee id is required")
	}
	if opts.SaveDir == "" {
		return nil, fmt.Errorf("save dir is required")
	}

	format := report.FormatCSV
	if opts.Format != "" {
		f, err := report.ParseFormat(opts.Format)
		if err != nil {
			return nil, fmt.Errorf("daily job format: %w", err)
		}
		format = f
	}

	logger.Info("Daily job configured",
		"hour", opts.Hour,
		"minute", opts.Minute,
		"timezone", time.Local.String(),
		"employees", len(opts.EmployeeIDs),
		"format", format,
		"save_dir", opts.SaveDir)

	return &DailyJobService{
		sender:      sender,
		fetcher:     fetcher,
		employeeIDs: append([]int(nil), opts.EmployeeIDs...),
		format:      format,
		saveDir:     opts.SaveDir,
		hour:        opts.Hour,
		minute:      opts.Minute,
		timezone:    time.Local,
		now:         time.Now,
		logger:      logger,
	}, nil
}

// Start запускает цикл выгрузки.
func (d *DailyJobService) Start(ctx context.Context) {
	nextRun := d.nextRunTime()
	timer := time.NewTimer(time.Until(nextRun))
	d.logger.Info("Next run scheduled", "at", nextRun.Format(time.RFC3339))

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Shutdown requested")
			timer.Stop()
			return
		case <-timer.C:
			if paths, err := d.RunOnce(ctx); err != nil {
				d.logger.Error("Daily report run failed", "error", err, "sent", len(paths))
			} else {
				d.logger.Info("Daily reports sent successfully", "files", len(paths))
			}

			nextRun = d.nextRunTime()
			timer.Reset(time.Until(nextRun))
			d.logger.Info("Next run scheduled", "at", nextRun.Format(time.RFC3339))
		}
	}
}

// RunOnce выгружает и отправляет отчет по каждому сотруднику по очереди.
// Первая ошибка прерывает запуск, уже отправленные файлы возвращаются.
func (d *DailyJobService) RunOnce(ctx context.Context) ([]string, error) {
	var sent []string

	for _, id := range d.employeeIDs {
		rep, err := d.fetcher.FetchReport(ctx, id)
		if err != nil {
			return sent, fmt.Errorf("fetch report for employee %d: %w", id, err)
		}

		path, err := report.Export(rep, d.format, d.saveDir)
		if err != nil {
			return sent, fmt.Errorf("export report for employee %d: %w", id, err)
		}

		if err := d.sender.SendFile(ctx, path); err != nil {
			return sent, fmt.Errorf("send report for employee %d: %w", id, err)
		}

		d.logger.Info("Report delivered", "employee_id", id, "path", path)
		sent = append(sent, path)
	}

	return sent, nil
}

// nextRunTime вычисляет ближайшее время
func (d *DailyJobService) nextRunTime() time.Time {
	now := d.now().In(d.timezone)
	today := time.Date(now.Year(), now.Month(), now.Day(), d.hour, d.minute, 0, 0, d.timezone)

	if now.After(today) {
		return today.AddDate(0, 0, 1)
	}
	return today
}
