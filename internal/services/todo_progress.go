package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/DevN0mad/TodoProgress/internal/models"
)

// DefaultBaseURL публичный API, к которому обращаемся по умолчанию.
const DefaultBaseURL = "https://jsonplaceholder.typicode.com"

const defaultTimeout = 30 * time.Second

// OpenAPIOpts параметры подключения к API задач.
type OpenAPIOpts struct {
	BaseURL string        `mapstructure:"base_url" yaml:"base_url" validate:"omitempty,url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"min=0"`
}

// TodoProgressService получает сотрудника и его задачи из API.
type TodoProgressService struct {
	baseURL string
	logger  *slog.Logger
	client  *http.Client
}

// Init инициализирует сервис с параметрами подключения.
func Init(opts OpenAPIOpts, logger *slog.Logger) *TodoProgressService {
	if logger == nil {
		logger = slog.Default()
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := defaultTimeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}

	return &TodoProgressService{
		baseURL: baseURL,
		logger:  logger,
		client:  &http.Client{Timeout: timeout},
	}
}

// FetchReport получает сотрудника и полный список его задач.
func (s *TodoProgressService) FetchReport(ctx context.Context, employeeID int) (models.ProgressReport, error) {
	if employeeID < 1 {
		return models.ProgressReport{}, &models.InvalidArgumentError{
			Value:  strconv.Itoa(employeeID),
			Reason: "employee id must be a positive integer",
		}
	}

	s.logger.Debug("Fetching report", "employee_id", employeeID, "base_url", s.baseURL)

	employee, err := s.getEmployee(ctx, employeeID)
	if err != nil {
		return models.ProgressReport{}, err
	}

	tasks, err := s.getTasks(ctx, employeeID)
	if err != nil {
		return models.ProgressReport{}, err
	}

	report := models.ProgressReport{Employee: employee, Tasks: tasks}
	s.logger.Info("Report fetched",
		"employee_id", employeeID,
		"employee", employee.Name,
		"completed", report.CompletedCount(),
		"total", report.Total())

	return report, nil
}

// getEmployee получает пользователя по идентификатору.
func (s *TodoProgressService) getEmployee(ctx context.Context, employeeID int) (models.Employee, error) {
	userURL := fmt.Sprintf("%s/users/%d", s.baseURL, employeeID)

	status, body, err := s.get(ctx, userURL)
	if err != nil {
		return models.Employee{}, &models.FetchError{Resource: "user", Err: err}
	}
	if status < 200 || status > 299 {
		s.logger.Warn("User lookup failed", "employee_id", employeeID, "status", status)
		return models.Employee{}, &models.NotFoundError{EmployeeID: employeeID, StatusCode: status}
	}

	var user models.UserResponse
	if err := decodeValidated(body, userSchema, "user", &user); err != nil {
		return models.Employee{}, err
	}

	return models.Employee{ID: employeeID, Name: user.Name}, nil
}

// getTasks получает список задач пользователя.
func (s *TodoProgressService) getTasks(ctx context.Context, employeeID int) ([]models.Task, error) {
	params := url.Values{}
	params.Add("userId", strconv.Itoa(employeeID))
	todosURL := s.baseURL + "/todos?" + params.Encode()

	status, body, err := s.get(ctx, todosURL)
	if err != nil {
		return nil, &models.FetchError{Resource: "todo list", Err: err}
	}
	if status < 200 || status > 299 {
		s.logger.Warn("Todo list fetch failed", "employee_id", employeeID, "status", status)
		return nil, &models.FetchError{Resource: "todo list", StatusCode: status}
	}

	var todos []models.TodoResponse
	if err := decodeValidated(body, todosSchema, "todo list", &todos); err != nil {
		return nil, err
	}

	tasks := make([]models.Task, 0, len(todos))
	for _, t := range todos {
		tasks = append(tasks, models.Task{Title: t.Title, Completed: t.Completed})
	}

	s.logger.Debug("Todo list received", "employee_id", employeeID, "tasks", len(tasks))

	return tasks, nil
}

// get выполняет GET запрос и возвращает статус и тело ответа.
func (s *TodoProgressService) get(ctx context.Context, rawURL string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}

	return resp.StatusCode, body, nil
}

// decodeValidated проверяет тело по схеме и разбирает его в out.
func decodeValidated(body []byte, schema *jsonSchema, resource string, out any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return &models.MalformedResponseError{Resource: resource, Reason: err.Error()}
	}

	if err := schema.validate(doc, resource); err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &models.MalformedResponseError{Resource: resource, Reason: err.Error()}
	}
	return nil
}
