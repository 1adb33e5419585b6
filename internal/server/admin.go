package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/DevN0mad/TodoProgress/internal/models"
	"github.com/DevN0mad/TodoProgress/internal/report"
	"github.com/DevN0mad/TodoProgress/internal/services"
)

const APIv1Prefix = "/api/v1/"

// AdminServerOpts параметры для настройки административного сервера.
type AdminServerOpts struct {
	Address             string `mapstructure:"address" yaml:"address" validate:"required"`
	ReadTimeoutSeconds  int    `mapstructure:"read_timeout_seconds" yaml:"read_timeout_seconds" validate:"min=0"`
	WriteTimeoutSeconds int    `mapstructure:"write_timeout_seconds" yaml:"write_timeout_seconds" validate:"min=0"`
	IdleTimeoutSeconds  int    `mapstructure:"idle_timeout_seconds" yaml:"idle_timeout_seconds" validate:"min=0"`
}

// JobRunner запускает выгрузку отчетов вне расписания.
type JobRunner interface {
	RunOnce(ctx context.Context) ([]string, error)
}

// AdminServer отдает отчеты по HTTP и запускает выгрузку вручную.
type AdminServer struct {
	logger  *slog.Logger
	opts    *AdminServerOpts
	srv     *http.Server
	fetcher services.ReportFetcher
	job     JobRunner
}

// NewAdminServer создаёт новый административный сервер.
func NewAdminServer(logger *slog.Logger, fetcher services.ReportFetcher, job JobRunner, opts *AdminServerOpts) *AdminServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminServer{
		logger:  logger,
		opts:    opts,
		fetcher: fetcher,
		job:     job,
	}
}

// reportResponse тело ответа /api/v1/report.
type reportResponse struct {
	Employee  models.Employee `json:"employee"`
	Completed int             `json:"completed"`
	Total     int             `json:"total"`
	Tasks     []models.Task   `json:"tasks"`
}

// runResponse тело ответа /api/v1/run.
type runResponse struct {
	Files []string `json:"files"`
	Error string   `json:"error,omitempty"`
}

// Register регистрирует маршруты административного сервера.
func (h *AdminServer) Register(mux *http.ServeMux) {
	mux.HandleFunc(withPrefix("report"), h.handleReport)
	mux.HandleFunc(withPrefix("export"), h.handleExport)
	mux.HandleFunc(withPrefix("run"), h.handleRun)
}

// handleReport обрабатывает запросы на получение отчёта.
func (h *AdminServer) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.logger.Warn("Method not allowed", "method", r.Method, "path", r.URL.Path)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rep, ok := h.fetchReport(w, r)
	if !ok {
		return
	}

	tasks := rep.Tasks
	if tasks == nil {
		tasks = []models.Task{}
	}

	writeJSON(w, http.StatusOK, reportResponse{
		Employee:  rep.Employee,
		Completed: rep.CompletedCount(),
		Total:     rep.Total(),
		Tasks:     tasks,
	})
}

// handleExport отдает выгрузку отчета файлом.
func (h *AdminServer) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.logger.Warn("Method not allowed", "method", r.Method, "path", r.URL.Path)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	format := report.FormatCSV
	if raw := r.URL.Query().Get("format"); raw != "" {
		f, err := report.ParseFormat(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		format = f
	}

	rep, ok := h.fetchReport(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, rep, format); err != nil {
		h.logger.Error("Export report", "employee_id", rep.Employee.ID, "format", format, "error", err)
		http.Error(w, "Failed to export report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+format.FileName(rep.Employee.ID)+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// handleRun запускает ежедневную выгрузку немедленно.
func (h *AdminServer) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.logger.Warn("Method not allowed", "method", r.Method, "path", r.URL.Path)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	files, err := h.job.RunOnce(r.Context())
	if files == nil {
		files = []string{}
	}
	if err != nil {
		h.logger.Error("Manual run failed", "error", err)
		writeJSON(w, http.StatusBadGateway, runResponse{Files: files, Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, runResponse{Files: files})
}

// fetchReport читает employee_id и получает отчет, при ошибке пишет ответ сам.
func (h *AdminServer) fetchReport(w http.ResponseWriter, r *http.Request) (models.ProgressReport, bool) {
	id, err := models.ParseEmployeeID(r.URL.Query().Get("employee_id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return models.ProgressReport{}, false
	}

	rep, err := h.fetcher.FetchReport(r.Context(), id)
	if err != nil {
		h.logger.Error("Fetch report", "employee_id", id, "error", err)
		http.Error(w, err.Error(), statusFor(err))
		return models.ProgressReport{}, false
	}
	return rep, true
}

// statusFor HTTP статус для ошибок клиента API.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrFetch), errors.Is(err, models.ErrMalformedResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Start запускает административный сервер.
func (h *AdminServer) Start(ctx context.Context) error {
	h.logger.Info("Starting admin server", "address", h.opts.Address)
	mux := http.NewServeMux()
	h.Register(mux)
	h.srv = &http.Server{
		Addr:         h.opts.Address,
		ReadTimeout:  time.Duration(h.opts.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(h.opts.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  time.Duration(h.opts.IdleTimeoutSeconds) * time.Second,
		Handler:      mux,
	}

	go func() {
		<-ctx.Done()

		h.logger.Info("Shutting down admin server (ctx canceled)")

		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := h.srv.Shutdown(shCtx); err != nil && err != http.ErrServerClosed {
			h.logger.Error("Admin server shutdown error", "error", err)
		}
	}()

	if err := h.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		h.logger.Error("Admin server error", "error", err)
		return err
	}

	h.logger.Info("Admin server stopped")
	return nil
}

// withPrefix добавляет префикс к пути API.
func withPrefix(postfix string) string {
	return APIv1Prefix + strings.TrimSpace(postfix)
}
