package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DevN0mad/TodoProgress/internal/models"
)

type fakeFetcher map[int]models.ProgressReport

func (f fakeFetcher) FetchReport(_ context.Context, id int) (models.ProgressReport, error) {
	r, ok := f[id]
	if !ok {
		return models.ProgressReport{}, &models.NotFoundError{EmployeeID: id, StatusCode: 404}
	}
	return r, nil
}

type recordingSender struct {
	paths []string
	err   error
}

func (s *recordingSender) SendFile(_ context.Context, path string) error {
	if s.err != nil {
		return s.err
	}
	if _, err := os.Stat(path); err != nil {
		return err
	}
	s.paths = append(s.paths, path)
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewDailyJobService(t *testing.T) {
	tests := map[string]struct {
		sender  FileSender
		fetcher ReportFetcher
		opts    DailyJobOpts
		expErr  bool
	}{
		"valid options": {
			sender:  &recordingSender{},
			fetcher: fakeFetcher{},
			opts:    DailyJobOpts{Hour: 9, EmployeeIDs: []int{1}, SaveDir: "/tmp"},
		},
		"missing sender": {
			fetcher: fakeFetcher{},
			opts:    DailyJobOpts{EmployeeIDs: []int{1}, SaveDir: "/tmp"},
			expErr:  true,
		},
		"missing employees": {
			sender:  &recordingSender{},
			fetcher: fakeFetcher{},
			opts:    DailyJobOpts{SaveDir: "/tmp"},
			expErr:  true,
		},
		"unknown format": {
			sender:  &recordingSender{},
			fetcher: fakeFetcher{},
			opts:    DailyJobOpts{EmployeeIDs: []int{1}, SaveDir: "/tmp", Format: "pdf"},
			expErr:  true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			svc, err := NewDailyJobService(test.sender, test.fetcher, test.opts, quietLogger())
			if test.expErr {
				assert.Error(t, err)
				assert.Nil(t, svc)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, svc)
		})
	}
}

func TestDailyJobService_RunOnce(t *testing.T) {
	reports := fakeFetcher{
		1: {Employee: models.Employee{ID: 1, Name: "Leanne Graham"}, Tasks: []models.Task{{Title: "a", Completed: true}}},
		2: {Employee: models.Employee{ID: 2, Name: "Ervin Howell"}},
	}

	tests := map[string]struct {
		employeeIDs []int
		format      string
		senderErr   error
		expFiles    []string
		expErr      error
	}{
		"every employee is exported and sent": {
			employeeIDs: []int{1, 2},
			expFiles:    []string{"1.csv", "2.csv"},
		},
		"xlsx format": {
			employeeIDs: []int{2},
			format:      "xlsx",
			expFiles:    []string{"2.xlsx"},
		},
		"first failure stops the run": {
			employeeIDs: []int{1, 99, 2},
			expFiles:    []string{"1.csv"},
			expErr:      models.ErrNotFound,
		},
		"send failure is reported": {
			employeeIDs: []int{1},
			senderErr:   errors.New("telegram down"),
			expErr:      errors.New("telegram down"),
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			dir := t.TempDir()
			sender := &recordingSender{err: test.senderErr}
			svc, err := NewDailyJobService(sender, reports, DailyJobOpts{
				EmployeeIDs: test.employeeIDs,
				Format:      test.format,
				SaveDir:     dir,
			}, quietLogger())
			require.NoError(err)

			paths, err := svc.RunOnce(context.Background())

			var expPaths []string
			for _, f := range test.expFiles {
				expPaths = append(expPaths, filepath.Join(dir, f))
			}
			assert.Equal(t, expPaths, paths)
			assert.Equal(t, expPaths, sender.paths)

			switch {
			case test.expErr == nil:
				require.NoError(err)
			case test.senderErr != nil:
				require.ErrorContains(err, test.expErr.Error())
			default:
				require.ErrorIs(err, test.expErr)
			}
		})
	}
}

func TestDailyJobService_NextRunTime(t *testing.T) {
	loc := time.FixedZone("test", 3*60*60)

	tests := map[string]struct {
		now time.Time
		exp time.Time
	}{
		"later today": {
			now: time.Date(2026, 10, 19, 8, 0, 0, 0, loc),
			exp: time.Date(2026, 10, 19, 9, 30, 0, 0, loc),
		},
		"already passed moves to tomorrow": {
			now: time.Date(2026, 10, 19, 10, 0, 0, 0, loc),
			exp: time.Date(2026, 10, 20, 9, 30, 0, 0, loc),
		},
		"end of month": {
			now: time.Date(2026, 10, 31, 23, 0, 0, 0, loc),
			exp: time.Date(2026, 11, 1, 9, 30, 0, 0, loc),
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			d := &DailyJobService{hour: 9, minute: 30, timezone: loc, now: func() time.Time { return test.now }}

			assert.True(t, test.exp.Equal(d.nextRunTime()), "got %s", d.nextRunTime())
		})
	}
}
