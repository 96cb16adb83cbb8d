// Package http_client provides the `http_client` object: a named, pooled
// *http.Client that tasks clone by name during Init. Clones share the
// underlying client, so every task using the same object shares its
// connection pool.
package http_client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/vk/tickgrid/internal/objects"
	"github.com/vk/tickgrid/internal/registry"
)

// DefaultTimeout applies when an http_client declares no timeout.
const DefaultTimeout = 30 * time.Second

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for creating an http_client object.
type Input struct {
	Timeout             string `bggo:"timeout,optional"`
	MaxIdleConnsPerHost int    `bggo:"max_idle_conns_per_host,optional"`
}

// Client is a named handle to a shared *http.Client.
type Client struct {
	name   string
	client *http.Client
}

// NewClient returns a client with its own pooled transport.
func NewClient(name string, timeout time.Duration, maxIdlePerHost int) *Client {
	if maxIdlePerHost <= 0 {
		maxIdlePerHost = 10
	}
	return &Client{
		name: name,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: maxIdlePerHost,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// ObjectName implements objects.Object.
func (c *Client) ObjectName() string { return c.name }

// Clone implements objects.Object. The clone shares the *http.Client.
func (c *Client) Clone() objects.Object {
	return &Client{name: c.name, client: c.client}
}

// HTTP returns the underlying client.
func (c *Client) HTTP() *http.Client { return c.client }

// CloseIdleConnections closes the idle connections of the shared pool.
func (c *Client) CloseIdleConnections() {
	c.client.CloseIdleConnections()
}

func newClientFromInput(name string, in *Input) (*Client, error) {
	timeout := DefaultTimeout
	if in.Timeout != "" {
		var err error
		timeout, err = time.ParseDuration(in.Timeout)
		if err != nil {
			return nil, fmt.Errorf("failed to parse timeout: %w", err)
		}
	}
	if timeout < 0 {
		return nil, fmt.Errorf("timeout must not be negative, got %s", in.Timeout)
	}
	return NewClient(name, timeout, in.MaxIdleConnsPerHost), nil
}

// Register registers the http_client object.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterObject("http_client", &registry.RegisteredObject{
		NewInput: func() any { return new(Input) },
		New: func(_ context.Context, name string, input any) (objects.Object, error) {
			return newClientFromInput(name, input.(*Input))
		},
	})
}
