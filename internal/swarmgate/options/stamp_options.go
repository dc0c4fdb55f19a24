package options

import (
	"fmt"

	"github.com/spf13/pflag"
)

// StampOptions holds the defaults applied when tool invocations omit
// stamp parameters.
type StampOptions struct {
	DefaultAmount int64  `json:"default_amount" mapstructure:"default_amount"`
	DefaultDepth  int    `json:"default_depth"  mapstructure:"default_depth"`
	DefaultID     string `json:"default_id"     mapstructure:"default_id"`
}

func NewStampOptions() *StampOptions {
	return &StampOptions{
		DefaultAmount: 2000000000,
		DefaultDepth:  17,
	}
}

func (o *StampOptions) Validate() error {
	if o.DefaultAmount <= 0 {
		return fmt.Errorf("default stamp amount must be positive, got %d", o.DefaultAmount)
	}
	if o.DefaultDepth < 16 || o.DefaultDepth > 255 {
		return fmt.Errorf("default stamp depth must be between 16 and 255, got %d", o.DefaultDepth)
	}
	return nil
}

func (o *StampOptions) AddFlags(fs *pflag.FlagSet) {
	fs.Int64Var(&o.DefaultAmount, "stamp.default-amount", o.DefaultAmount, "Default amount in wei for new postage stamps.")
	fs.IntVar(&o.DefaultDepth, "stamp.default-depth", o.DefaultDepth, "Default depth for new postage stamps.")
	fs.StringVar(&o.DefaultID, "stamp.default-id", o.DefaultID, "Stamp used by upload_data when no stamp_id is given.")
}
