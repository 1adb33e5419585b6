package cli_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DevN0mad/TodoProgress/internal/cli"
	"github.com/DevN0mad/TodoProgress/internal/models"
	"github.com/DevN0mad/TodoProgress/internal/services"
)

func newUpstream(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		if r.PathValue("id") != "1" {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{}`)
			return
		}
		io.WriteString(w, `{"id": 1, "name": "Leanne Graham"}`)
	})
	mux.HandleFunc("/todos", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		if r.URL.Query().Get("userId") != "1" {
			io.WriteString(w, `[]`)
			return
		}
		io.WriteString(w, `[
			{"userId": 1, "id": 1, "title": "delectus aut autem", "completed": false},
			{"userId": 1, "id": 2, "title": "quis ut nam facilis...", "completed": true}
		]`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRunner_Run(t *testing.T) {
	tests := map[string]struct {
		variant   cli.Variant
		args      func(baseURL, dir string) []string
		expCode   int
		expStdout string
		expStderr string
		expCalls  int32
		expFiles  []string
	}{
		"progress prints the summary": {
			variant: cli.VariantProgress,
			args: func(baseURL, _ string) []string {
				return []string{"progress", "--base-url", baseURL, "1"}
			},
			expCode:   cli.ExitOK,
			expStdout: "Employee Leanne Graham is done with tasks(1/2):\n\t quis ut nam facilis...\n",
			expCalls:  2,
		},
		"export writes the csv named after the employee": {
			variant: cli.VariantExport,
			args: func(baseURL, dir string) []string {
				return []string{"export", "--base-url", baseURL, "--output-dir", dir, "1"}
			},
			expCode:  cli.ExitOK,
			expCalls: 2,
			expFiles: []string{"1.csv"},
		},
		"export writes xlsx when asked": {
			variant: cli.VariantExport,
			args: func(baseURL, dir string) []string {
				return []string{"export", "--base-url", baseURL, "--output-dir", dir, "--format", "xlsx", "1"}
			},
			expCode:  cli.ExitOK,
			expCalls: 2,
			expFiles: []string{"1.xlsx"},
		},
		"unknown user fails without a file": {
			variant: cli.VariantExport,
			args: func(baseURL, dir string) []string {
				return []string{"export", "--base-url", baseURL, "--output-dir", dir, "99999"}
			},
			expCode:   cli.ExitFailure,
			expStderr: "Error: user 99999 not found\n",
			expCalls:  1,
		},
		"non integer id is rejected before any request": {
			variant: cli.VariantProgress,
			args: func(baseURL, _ string) []string {
				return []string{"progress", "--base-url", baseURL, "abc"}
			},
			expCode:   cli.ExitUsage,
			expStderr: "Error: employee id must be an integer: \"abc\"\n",
		},
		"zero id is rejected before any request": {
			variant: cli.VariantProgress,
			args: func(baseURL, _ string) []string {
				return []string{"progress", "--base-url", baseURL, "0"}
			},
			expCode: cli.ExitUsage,
		},
		"missing argument prints usage": {
			variant: cli.VariantProgress,
			args: func(baseURL, _ string) []string {
				return []string{"progress", "--base-url", baseURL}
			},
			expCode: cli.ExitUsage,
		},
		"extra arguments print usage": {
			variant: cli.VariantExport,
			args: func(baseURL, dir string) []string {
				return []string{"export", "--base-url", baseURL, "--output-dir", dir, "1", "2"}
			},
			expCode: cli.ExitUsage,
		},
		"unknown format prints usage": {
			variant: cli.VariantExport,
			args: func(baseURL, dir string) []string {
				return []string{"export", "--base-url", baseURL, "--output-dir", dir, "--format", "pdf", "1"}
			},
			expCode: cli.ExitUsage,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			var calls int32
			srv := newUpstream(t, &calls)
			dir := t.TempDir()
			var stdout, stderr bytes.Buffer

			r := cli.Runner{Variant: test.variant, Stdout: &stdout, Stderr: &stderr}
			code := r.Run(context.Background(), test.args(srv.URL, dir))

			assert.Equal(test.expCode, code)
			assert.Equal(test.expCalls, atomic.LoadInt32(&calls))
			if test.expStdout != "" {
				assert.Equal(test.expStdout, stdout.String())
			}
			if test.expStderr != "" {
				assert.Equal(test.expStderr, stderr.String())
			}
			if code == cli.ExitUsage {
				assert.Empty(stdout.String())
				assert.NotEmpty(stderr.String())
			}

			entries, err := os.ReadDir(dir)
			require.NoError(err)
			var files []string
			for _, e := range entries {
				files = append(files, e.Name())
			}
			assert.Equal(test.expFiles, files)
			for _, f := range test.expFiles {
				assert.Equal("Data exported to "+filepath.Join(dir, f)+"\n", stdout.String())
			}
		})
	}
}

func TestRunner_RunUsesInjectedFetcher(t *testing.T) {
	var stdout, stderr bytes.Buffer
	fetcher := fetcherFunc(func(_ context.Context, id int) (models.ProgressReport, error) {
		return models.ProgressReport{Employee: models.Employee{ID: id, Name: "Ervin Howell"}}, nil
	})

	r := cli.Runner{
		Variant:    cli.VariantProgress,
		Stdout:     &stdout,
		Stderr:     &stderr,
		NewFetcher: func(_ services.OpenAPIOpts, _ *slog.Logger) services.ReportFetcher { return fetcher },
	}

	code := r.Run(context.Background(), []string{"progress", "2"})

	assert.Equal(t, cli.ExitOK, code)
	assert.Equal(t, "Employee Ervin Howell is done with tasks(0/0):\n", stdout.String())
}

type fetcherFunc func(ctx context.Context, id int) (models.ProgressReport, error)

func (f fetcherFunc) FetchReport(ctx context.Context, id int) (models.ProgressReport, error) {
	return f(ctx, id)
}
