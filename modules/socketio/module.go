// Package socketio provides the `socketio` task: it connects to a socket.io
// server when initialized and emits one event per tick, optionally waiting
// for a reply event before releasing its nodes.
package socketio

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/vk/tickgrid/internal/objects"
	"github.com/vk/tickgrid/internal/registry"
	"github.com/vk/tickgrid/internal/syncgraph"
	"github.com/vk/tickgrid/internal/task"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the socketio task.
type Input struct {
	URL                string            `bggo:"url"`
	Namespace          string            `bggo:"namespace,optional"`
	EmitEvent          string            `bggo:"emit_event"`
	EmitData           map[string]string `bggo:"emit_data,optional"`
	OnEvent            string            `bggo:"on_event,optional"`
	Timeout            string            `bggo:"timeout,optional"`
	InsecureSkipVerify bool              `bggo:"insecure_skip_verify,optional"`
}

// Payload is what the task emits every tick.
type Payload struct {
	Tick int               `json:"tick"`
	Task string            `json:"task"`
	Data map[string]string `json:"data,omitempty"`
}

type socketTask struct {
	task.Claims
	input   Input
	baseURL string
	path    string
	timeout time.Duration
	logger  *slog.Logger

	io           *socket.Socket
	disconnected atomic.Bool
	replies      chan any
	ticks        int
}

// NewTask validates in and returns a socketio task. No connection is made
// before Init.
func NewTask(spec registry.TaskSpec, in Input) (task.Task, error) {
	parsedURL, err := url.Parse(in.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	switch parsedURL.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported URL scheme %q", parsedURL.Scheme)
	}
	if in.EmitEvent == "" {
		return nil, errors.New("'emit_event' must not be empty")
	}
	if in.Namespace == "" {
		in.Namespace = "/"
	}

	timeout := 10 * time.Second
	if in.Timeout != "" {
		timeout, err = time.ParseDuration(in.Timeout)
		if err != nil {
			return nil, fmt.Errorf("failed to parse timeout: %w", err)
		}
	}

	logger := spec.Env.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &socketTask{
		Claims:  task.NewClaims(spec.Name, spec.Claims...),
		input:   in,
		baseURL: fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host),
		path:    parsedURL.Path,
		timeout: timeout,
		logger:  logger.With("task", spec.Name, "url", in.URL, "namespace", in.Namespace),
	}, nil
}

func (s *socketTask) Init(ctx context.Context, _ *objects.List) error {
	opts := socket.DefaultOptions()
	if s.path != "" {
		opts.SetPath(s.path)
	}
	if s.input.InsecureSkipVerify {
		s.logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(s.baseURL, opts)
	io := manager.Socket(s.input.Namespace, opts)
	s.io = io
	s.ticks = 0
	s.disconnected.Store(false)

	connected := make(chan error, 1)
	io.Once(types.EventName("connect"), func(...any) {
		s.logger.Info("Successfully connected", "sid", io.Id())
		connected <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		connected <- err
	})
	io.On(types.EventName("disconnect"), func(reason ...any) {
		s.logger.Warn("Socket disconnected", "reason", reason)
		s.disconnected.Store(true)
	})

	if s.input.OnEvent != "" {
		s.replies = make(chan any, 1)
		io.On(types.EventName(s.input.OnEvent), func(data ...any) {
			var reply any
			if len(data) > 0 {
				reply = data[0]
			}
			select {
			case s.replies <- reply:
			default:
				s.logger.Debug("Dropping unexpected reply", "event", s.input.OnEvent)
			}
		})
	}

	s.logger.Debug("Initiating connection...")
	io.Connect()

	select {
	case err := <-connected:
		if err != nil {
			return fmt.Errorf("socket.io connection failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(s.timeout):
		return fmt.Errorf("timed out after %v waiting for socket.io connection", s.timeout)
	}
}

func (s *socketTask) Tick(ctx context.Context) (task.ControlFlow, error) {
	return s.Bracket(ctx, func(ctx context.Context) (task.ControlFlow, error) {
		if s.disconnected.Load() {
			return task.Continue(), errors.New("socket.io connection lost")
		}
		s.ticks++
		s.io.Emit(s.input.EmitEvent, Payload{Tick: s.ticks, Task: s.Name(), Data: s.input.EmitData})
		s.logger.Debug("Emitted event", "event", s.input.EmitEvent, "tick", s.ticks)

		if s.replies == nil {
			return task.Continue(), nil
		}
		select {
		case reply := <-s.replies:
			s.logger.Debug("Received reply", "event", s.input.OnEvent, "data", reply)
			return task.Continue(), nil
		case <-ctx.Done():
			return task.Continue(), fmt.Errorf("waiting for event '%s': %w", s.input.OnEvent, syncgraph.ErrHalted)
		case <-time.After(s.timeout):
			return task.Continue(), fmt.Errorf("timed out after %v waiting for event '%s'", s.timeout, s.input.OnEvent)
		}
	})
}

// Close disconnects the socket, if Init created one.
func (s *socketTask) Close() error {
	if s.io == nil {
		return nil
	}
	s.logger.Debug("Disconnecting socket client")
	s.io.Disconnect()
	s.io = nil
	return nil
}

// Register registers the task with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterTask("socketio", &registry.RegisteredTask{
		NewInput: func() any { return new(Input) },
		New: func(_ context.Context, spec registry.TaskSpec, input any) (task.Task, error) {
			return NewTask(spec, *input.(*Input))
		},
	})
}
