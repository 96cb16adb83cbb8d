// Package http_request provides the `http_request` task, which sends one HTTP
// request per tick between waiting on and releasing its claimed nodes.
package http_request

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vk/tickgrid/internal/objects"
	"github.com/vk/tickgrid/internal/registry"
	"github.com/vk/tickgrid/internal/syncgraph"
	"github.com/vk/tickgrid/internal/task"
	"github.com/vk/tickgrid/modules/http_client"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the http_request task.
type Input struct {
	URL     string            `bggo:"url"`
	Method  string            `bggo:"method,optional"`
	Client  string            `bggo:"client,optional"`
	Body    string            `bggo:"body,optional"`
	Headers map[string]string `bggo:"headers,optional"`
}

type requestTask struct {
	task.Claims
	input  Input
	logger *slog.Logger

	client *http_client.Client
	// owned is set when the task created its client instead of cloning one.
	owned bool
	ticks int
}

// NewTask validates in and returns an http_request task.
func NewTask(spec registry.TaskSpec, in Input) (task.Task, error) {
	parsedURL, err := url.Parse(in.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme %q", parsedURL.Scheme)
	}
	if in.Method == "" {
		in.Method = http.MethodGet
	}
	in.Method = strings.ToUpper(in.Method)

	logger := spec.Env.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &requestTask{
		Claims: task.NewClaims(spec.Name, spec.Claims...),
		input:  in,
		logger: logger.With("task", spec.Name, "method", in.Method, "url", in.URL),
	}, nil
}

func (r *requestTask) Init(_ context.Context, objs *objects.List) error {
	r.ticks = 0
	if r.input.Client == "" {
		r.client = http_client.NewClient(r.Name(), http_client.DefaultTimeout, 0)
		r.owned = true
		return nil
	}
	c, ok := objects.CloneByName[*http_client.Client](objs, r.input.Client)
	if !ok {
		return fmt.Errorf("no http_client object named %q", r.input.Client)
	}
	r.client = c
	r.owned = false
	return nil
}

func (r *requestTask) Tick(ctx context.Context) (task.ControlFlow, error) {
	return r.Bracket(ctx, func(ctx context.Context) (task.ControlFlow, error) {
		r.ticks++
		if err := r.send(ctx); err != nil {
			if ctx.Err() != nil {
				return task.Continue(), fmt.Errorf("request interrupted: %w", syncgraph.ErrHalted)
			}
			return task.Continue(), err
		}
		return task.Continue(), nil
	})
}

func (r *requestTask) send(ctx context.Context) error {
	var body io.Reader
	if r.input.Body != "" {
		body = strings.NewReader(r.input.Body)
	}
	req, err := http.NewRequestWithContext(ctx, r.input.Method, r.input.URL, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range r.input.Headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := r.client.HTTP().Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	// Drain so the connection goes back to the pool.
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	r.logger.Debug("Received HTTP response", "status", resp.Status, "tick", r.ticks, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.New("unexpected status " + resp.Status)
	}
	return nil
}

// Close releases the idle connections of a client the task created itself.
func (r *requestTask) Close() error {
	if r.client != nil && r.owned {
		r.client.CloseIdleConnections()
	}
	r.client = nil
	return nil
}

// Register registers the http_request task.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterTask("http_request", &registry.RegisteredTask{
		NewInput: func() any { return new(Input) },
		New: func(_ context.Context, spec registry.TaskSpec, input any) (task.Task, error) {
			return NewTask(spec, *input.(*Input))
		},
	})
}
