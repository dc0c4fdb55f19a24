package options

import (
	"errors"

	"github.com/spf13/pflag"

	"github.com/datafund/swarmgate/pkg/version"
)

// ServerOptions identifies this MCP server to clients.
type ServerOptions struct {
	Name    string `json:"name"    mapstructure:"name"`
	Version string `json:"version" mapstructure:"version"`
}

func NewServerOptions() *ServerOptions {
	return &ServerOptions{
		Name:    "swarmgate",
		Version: version.Get().Version,
	}
}

func (o *ServerOptions) Validate() error {
	if o.Name == "" {
		return errors.New("server name must not be empty")
	}
	if o.Version == "" {
		return errors.New("server version must not be empty")
	}
	return nil
}

func (o *ServerOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Name, "server.name", o.Name, "Server name announced during the MCP handshake.")
	fs.StringVar(&o.Version, "server.version", o.Version, "Server version announced during the MCP handshake.")
}
