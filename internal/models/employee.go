package models

import (
	"strconv"
	"strings"
)

// Employee сотрудник, по которому строится отчет.
type Employee struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// UserResponse представляет ответ API /users/{id}.
// Идентификатор берется из запроса, поле id ответа не разбирается.
type UserResponse struct {
	Name string `json:"name"`
}

// ParseEmployeeID проверяет, что идентификатор целое положительное число.
func ParseEmployeeID(raw string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &InvalidArgumentError{Value: raw, Reason: "employee id must be an integer"}
	}
	if id < 1 {
		return 0, &InvalidArgumentError{Value: raw, Reason: "employee id must be a positive integer"}
	}
	return id, nil
}
