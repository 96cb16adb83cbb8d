package app

import "errors"

// DefaultGraphName is the graph run when none is configured.
const DefaultGraphName = "main"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	GridPath  string // hcl files
	GraphName string // initial graph

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.GridPath == "" {
		return nil, errors.New("GridPath is a required configuration field and cannot be empty")
	}
	if cfg.GraphName == "" {
		cfg.GraphName = DefaultGraphName
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, errors.New("HealthcheckPort must be between 0 and 65535")
	}
	return &cfg, nil
}
