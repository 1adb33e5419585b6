package models

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound сотрудник не найден в API.
	ErrNotFound = errors.New("not found")
	// ErrFetch список задач не удалось получить.
	ErrFetch = errors.New("fetch failed")
	// ErrMalformedResponse ответ API не соответствует ожидаемой схеме.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrInvalidArgument некорректный аргумент запуска.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrWrite файл отчета не удалось записать.
	ErrWrite = errors.New("write failed")
)

// NotFoundError запрос пользователя вернул не 2xx.
type NotFoundError struct {
	EmployeeID int
	StatusCode int
}

func (e *NotFoundError) Error() string {
	if e.StatusCode == http.StatusNotFound {
		return fmt.Sprintf("user %d not found", e.EmployeeID)
	}
	return fmt.Sprintf("user %d lookup failed: HTTP %d", e.EmployeeID, e.StatusCode)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// FetchError запрос к API не выполнен или вернул не 2xx.
type FetchError struct {
	Resource   string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to retrieve %s: %v", e.Resource, e.Err)
	}
	return fmt.Sprintf("failed to retrieve %s: HTTP %d", e.Resource, e.StatusCode)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// MalformedResponseError тело ответа не разбирается или не проходит схему.
type MalformedResponseError struct {
	Resource string
	Path     string
	Reason   string
}

func (e *MalformedResponseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("malformed %s response at %s: %s", e.Resource, e.Path, e.Reason)
	}
	return fmt.Sprintf("malformed %s response: %s", e.Resource, e.Reason)
}

func (e *MalformedResponseError) Is(target error) bool { return target == ErrMalformedResponse }

// InvalidArgumentError неверный идентификатор сотрудника или число аргументов.
type InvalidArgumentError struct {
	Value  string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	if e.Value == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %q", e.Reason, e.Value)
}

func (e *InvalidArgumentError) Is(target error) bool { return target == ErrInvalidArgument }

// WriteError файл назначения не удалось создать или записать.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

func (e *WriteError) Is(target error) bool { return target == ErrWrite }
