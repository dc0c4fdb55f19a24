package config

import (
	"github.com/datafund/swarmgate/internal/swarmgate/options"
)

// Config is the running configuration of the swarmgate service.
type Config struct {
	*options.Options
}

// CreateConfigFromOptions creates a running configuration instance based
// on completed and validated options.
func CreateConfigFromOptions(opts *options.Options) (*Config, error) {
	return &Config{opts}, nil
}
