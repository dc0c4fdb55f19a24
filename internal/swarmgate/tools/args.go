package tools

import (
	"fmt"
	"math"

	"github.com/datafund/swarmgate/internal/swarmgate/gateway"
)

// Argument extraction with strict typing: a wrong-typed argument is an
// InvalidArgument naming the field, never a silent coercion.

func optionalString(args map[string]any, name, def string) (string, *gateway.Error) {
	v, ok := args[name]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", argError("argument %q must be a string", name)
	}
	return s, nil
}

func requiredString(args map[string]any, name string) (string, *gateway.Error) {
	if _, ok := args[name]; !ok {
		return "", argError("missing required argument %q", name)
	}
	return optionalString(args, name, "")
}

func optionalInt(args map[string]any, name string, def int64) (int64, *gateway.Error) {
	v, ok := args[name]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return 0, argError("argument %q must be an integer", name)
		}
		return int64(n), nil
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	default:
		return 0, argError("argument %q must be an integer", name)
	}
}

func requiredInt(args map[string]any, name string) (int64, *gateway.Error) {
	if _, ok := args[name]; !ok {
		return 0, argError("missing required argument %q", name)
	}
	return optionalInt(args, name, 0)
}

func argError(format string, args ...any) *gateway.Error {
	return &gateway.Error{Kind: gateway.KindInvalidArgument, Message: fmt.Sprintf(format, args...)}
}
