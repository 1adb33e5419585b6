package models

// ProgressReport сотрудник и полный список его задач.
// Tasks не изменяется после получения, счетчики вычисляются на лету.
type ProgressReport struct {
	Employee Employee `json:"employee"`
	Tasks    []Task   `json:"tasks"`
}

// Total общее количество задач.
func (r ProgressReport) Total() int {
	return len(r.Tasks)
}

// CompletedCount количество выполненных задач.
func (r ProgressReport) CompletedCount() int {
	n := 0
	for _, t := range r.Tasks {
		if t.Completed {
			n++
		}
	}
	return n
}

// CompletedTitles названия выполненных задач в исходном порядке.
func (r ProgressReport) CompletedTitles() []string {
	titles := make([]string, 0, len(r.Tasks))
	for _, t := range r.Tasks {
		if t.Completed {
			titles = append(titles, t.Title)
		}
	}
	return titles
}
