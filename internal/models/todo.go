package models

// Task задача сотрудника в порядке ответа API.
type Task struct {
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// TodoResponse представляет элемент ответа API /todos.
type TodoResponse struct {
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}
