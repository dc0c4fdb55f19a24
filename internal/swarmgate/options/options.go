// Package options defines the swarmgate run options: pflag flags with
// environment fallbacks resolved through viper. The result is loaded once
// at startup and immutable afterwards.
package options

import (
	"fmt"
	"net/url"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/datafund/swarmgate/pkg/utils/json"
)

// Options aggregates all sub-option groups.
type Options struct {
	Gateway *GatewayOptions `json:"gateway" mapstructure:"gateway"`
	Stamp   *StampOptions   `json:"stamp"   mapstructure:"stamp"`
	Server  *ServerOptions  `json:"server"  mapstructure:"server"`

	LogLevel string `json:"log_level" mapstructure:"log_level"`
}

func NewOptions() *Options {
	return &Options{
		Gateway:  NewGatewayOptions(),
		Stamp:    NewStampOptions(),
		Server:   NewServerOptions(),
		LogLevel: "info",
	}
}

// AddFlags registers every flag on the given set.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	o.Gateway.AddFlags(fs)
	o.Stamp.AddFlags(fs)
	o.Server.AddFlags(fs)
	fs.StringVar(&o.LogLevel, "log.level", o.LogLevel, "Log level (debug, info, warn, error).")
}

// envBindings maps flag names to the environment variables that feed them
// when the flag is not set explicitly.
var envBindings = map[string]string{
	"gateway.url":          "SWARM_GATEWAY_URL",
	"gateway.timeout":      "GATEWAY_TIMEOUT",
	"gateway.retries":      "GATEWAY_RETRIES",
	"gateway.backoff-base": "GATEWAY_BACKOFF_BASE",
	"gateway.backoff-max":  "GATEWAY_BACKOFF_MAX",
	"stamp.default-amount": "DEFAULT_STAMP_AMOUNT",
	"stamp.default-depth":  "DEFAULT_STAMP_DEPTH",
	"stamp.default-id":     "DEFAULT_STAMP_ID",
	"server.name":          "MCP_SERVER_NAME",
	"server.version":       "MCP_SERVER_VERSION",
	"log.level":            "LOG_LEVEL",
}

// Complete applies environment fallbacks. Precedence: explicit flag, then
// environment, then default.
func (o *Options) Complete(fs *pflag.FlagSet) error {
	v := viper.New()
	v.AutomaticEnv()

	for flagName, envName := range envBindings {
		if fs.Changed(flagName) {
			continue
		}
		val := v.GetString(envName)
		if val == "" {
			continue
		}
		if err := fs.Set(flagName, val); err != nil {
			return fmt.Errorf("invalid value for %s: %w", envName, err)
		}
	}
	return nil
}

// Validate checks every option group.
func (o *Options) Validate() error {
	if err := o.Gateway.Validate(); err != nil {
		return err
	}
	if err := o.Stamp.Validate(); err != nil {
		return err
	}
	if err := o.Server.Validate(); err != nil {
		return err
	}
	return nil
}

func (o *Options) String() string {
	data, _ := json.Marshal(o)
	return string(data)
}

func validateBaseURL(raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return fmt.Errorf("gateway URL %q is not a valid URL", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("gateway URL %q must use http or https", raw)
	}
	return nil
}
