package options

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagSet(o *Options) *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o.AddFlags(fs)
	return fs
}

func TestNewOptionsDefaults(t *testing.T) {
	o := NewOptions()

	assert.Equal(t, "https://provenance-gateway.datafund.io", o.Gateway.URL)
	assert.Equal(t, 30*time.Second, o.Gateway.Timeout)
	assert.Equal(t, 3, o.Gateway.Retries)
	assert.Equal(t, int64(2000000000), o.Stamp.DefaultAmount)
	assert.Equal(t, 17, o.Stamp.DefaultDepth)
	assert.Equal(t, "swarmgate", o.Server.Name)
	assert.NoError(t, o.Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name  string
		mutate func(*Options)
	}{
		{"empty gateway url", func(o *Options) { o.Gateway.URL = "" }},
		{"non-http scheme", func(o *Options) { o.Gateway.URL = "ftp://gw.example" }},
		{"zero timeout", func(o *Options) { o.Gateway.Timeout = 0 }},
		{"negative retries", func(o *Options) { o.Gateway.Retries = -1 }},
		{"non-positive stamp amount", func(o *Options) { o.Stamp.DefaultAmount = 0 }},
		{"depth below range", func(o *Options) { o.Stamp.DefaultDepth = 7 }},
		{"depth above range", func(o *Options) { o.Stamp.DefaultDepth = 300 }},
		{"empty server name", func(o *Options) { o.Server.Name = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o := NewOptions()
			tc.mutate(o)
			assert.Error(t, o.Validate())
		})
	}
}

func TestCompleteAppliesEnvironment(t *testing.T) {
	t.Setenv("SWARM_GATEWAY_URL", "http://localhost:8500")
	t.Setenv("DEFAULT_STAMP_AMOUNT", "42000")
	t.Setenv("GATEWAY_TIMEOUT", "5s")

	o := NewOptions()
	fs := newFlagSet(o)
	require.NoError(t, o.Complete(fs))

	assert.Equal(t, "http://localhost:8500", o.Gateway.URL)
	assert.Equal(t, int64(42000), o.Stamp.DefaultAmount)
	assert.Equal(t, 5*time.Second, o.Gateway.Timeout)
	assert.NoError(t, o.Validate())
}

func TestExplicitFlagBeatsEnvironment(t *testing.T) {
	t.Setenv("SWARM_GATEWAY_URL", "http://from-env:1111")

	o := NewOptions()
	fs := newFlagSet(o)
	require.NoError(t, fs.Set("gateway.url", "http://from-flag:2222"))
	require.NoError(t, o.Complete(fs))

	assert.Equal(t, "http://from-flag:2222", o.Gateway.URL)
}

func TestCompleteRejectsMalformedEnv(t *testing.T) {
	t.Setenv("GATEWAY_RETRIES", "many")

	o := NewOptions()
	fs := newFlagSet(o)
	assert.Error(t, o.Complete(fs))
}
