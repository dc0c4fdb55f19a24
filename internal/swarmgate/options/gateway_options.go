package options

import (
	"errors"
	"time"

	"github.com/spf13/pflag"
)

// GatewayOptions configures the upstream gateway client.
type GatewayOptions struct {
	URL         string        `json:"url"          mapstructure:"url"`
	Timeout     time.Duration `json:"timeout"      mapstructure:"timeout"`
	Retries     int           `json:"retries"      mapstructure:"retries"`
	BackoffBase time.Duration `json:"backoff_base" mapstructure:"backoff_base"`
	BackoffMax  time.Duration `json:"backoff_max"  mapstructure:"backoff_max"`
}

func NewGatewayOptions() *GatewayOptions {
	return &GatewayOptions{
		URL:         "https://provenance-gateway.datafund.io",
		Timeout:     30 * time.Second,
		Retries:     3,
		BackoffBase: 200 * time.Millisecond,
		BackoffMax:  5 * time.Second,
	}
}

func (o *GatewayOptions) Validate() error {
	if err := validateBaseURL(o.URL); err != nil {
		return err
	}
	if o.Timeout <= 0 {
		return errors.New("gateway timeout must be positive")
	}
	if o.Retries < 0 {
		return errors.New("gateway retries must not be negative")
	}
	if o.BackoffBase < 0 || o.BackoffMax < 0 {
		return errors.New("gateway backoff durations must not be negative")
	}
	return nil
}

func (o *GatewayOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.URL, "gateway.url", o.URL, "Base URL of the swarm_connect gateway.")
	fs.DurationVar(&o.Timeout, "gateway.timeout", o.Timeout, "Per-attempt request timeout.")
	fs.IntVar(&o.Retries, "gateway.retries", o.Retries, "Retry attempts after the first failure.")
	fs.DurationVar(&o.BackoffBase, "gateway.backoff-base", o.BackoffBase, "Initial retry backoff; doubles per retry.")
	fs.DurationVar(&o.BackoffMax, "gateway.backoff-max", o.BackoffMax, "Upper bound on retry backoff.")
}
