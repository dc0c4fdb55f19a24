// Package tools exposes the gateway operations as MCP tools: argument
// validation, defaulting, delegation to the gateway client and result
// shaping. Retry policy lives entirely in the gateway client; this layer
// is a pure translation.
package tools

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/datafund/swarmgate/internal/swarmgate/gateway"
	"github.com/datafund/swarmgate/pkg/logger"
)

// StampGateway is the slice of the gateway client the adapter consumes.
type StampGateway interface {
	PurchaseStamp(ctx context.Context, amount int64, depth int, label string) (*gateway.Stamp, error)
	GetStampStatus(ctx context.Context, stampID string) (*gateway.Stamp, error)
	ListStamps(ctx context.Context) ([]gateway.Stamp, error)
	ExtendStamp(ctx context.Context, stampID string, amount int64) (*gateway.Stamp, error)
	UploadData(ctx context.Context, data []byte, stampID, contentType string) (string, error)
	DownloadData(ctx context.Context, reference string) ([]byte, error)
	Health(ctx context.Context) (*gateway.HealthReport, error)
}

var _ StampGateway = (*gateway.Client)(nil)

// Adapter translates tool invocations into gateway calls. Stateless
// beyond its immutable configuration; safe for concurrent invocations.
type Adapter struct {
	gw       StampGateway
	defaults Defaults
}

func NewAdapter(gw StampGateway, defaults Defaults) *Adapter {
	return &Adapter{gw: gw, defaults: defaults}
}

// Register adds every tool to the MCP server.
func (a *Adapter) Register(s *server.MCPServer) {
	for _, t := range Catalog(a.defaults) {
		h, ok := a.handlerFor(t.Name)
		if !ok {
			continue
		}
		s.AddTool(t, a.instrument(t.Name, h))
	}
}

// Invoke dispatches a tool call by name. Unknown names never reach the
// gateway.
func (a *Adapter) Invoke(ctx context.Context, name string, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h, ok := a.handlerFor(name)
	if !ok {
		return kindResult(gateway.KindInvalidArgument, fmt.Sprintf("unsupported tool %q", name)), nil
	}
	return a.instrument(name, h)(ctx, req)
}

func (a *Adapter) handlerFor(name string) (server.ToolHandlerFunc, bool) {
	switch name {
	case ToolPurchaseStamp:
		return a.handlePurchaseStamp, true
	case ToolGetStampStatus:
		return a.handleGetStampStatus, true
	case ToolListStamps:
		return a.handleListStamps, true
	case ToolExtendStamp:
		return a.handleExtendStamp, true
	case ToolUploadData:
		return a.handleUploadData, true
	case ToolDownloadData:
		return a.handleDownloadData, true
	case ToolHealthCheck:
		return a.handleHealthCheck, true
	default:
		return nil, false
	}
}

// instrument wraps a handler with per-invocation logging. Domain failures
// come back as tool errors, never as Go errors: the protocol runtime
// distinguishes "tool reported an error" from "adapter crashed".
func (a *Adapter) instrument(name string, h server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := uuid.NewString()[:8]
		logger.Debug("[tool] %s (%s) invoked", name, id)
		res, err := h(ctx, req)
		switch {
		case err != nil:
			logger.Error("[tool] %s (%s) failed: %v", name, id, err)
		case res != nil && res.IsError:
			logger.Warn("[tool] %s (%s) returned tool error", name, id)
		default:
			logger.Debug("[tool] %s (%s) done", name, id)
		}
		return res, err
	}
}

func (a *Adapter) handlePurchaseStamp(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	amount, aerr := optionalInt(args, "amount", a.defaults.StampAmount)
	if aerr != nil {
		return errorResult(aerr), nil
	}
	depth, aerr := optionalInt(args, "depth", int64(a.defaults.StampDepth))
	if aerr != nil {
		return errorResult(aerr), nil
	}
	label, aerr := optionalString(args, "label", "")
	if aerr != nil {
		return errorResult(aerr), nil
	}

	st, err := a.gw.PurchaseStamp(ctx, amount, int(depth), label)
	if err != nil {
		return errorResult(err), nil
	}
	return stampResult(st), nil
}

func (a *Adapter) handleGetStampStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stampID, aerr := requiredString(req.GetArguments(), "stamp_id")
	if aerr != nil {
		return errorResult(aerr), nil
	}

	st, err := a.gw.GetStampStatus(ctx, stampID)
	if err != nil {
		return errorResult(err), nil
	}
	return stampResult(st), nil
}

func (a *Adapter) handleListStamps(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stamps, err := a.gw.ListStamps(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return stampListResult(stamps), nil
}

func (a *Adapter) handleExtendStamp(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	stampID, aerr := requiredString(args, "stamp_id")
	if aerr != nil {
		return errorResult(aerr), nil
	}
	amount, aerr := requiredInt(args, "amount")
	if aerr != nil {
		return errorResult(aerr), nil
	}

	st, err := a.gw.ExtendStamp(ctx, stampID, amount)
	if err != nil {
		return errorResult(err), nil
	}
	return stampResult(st), nil
}

func (a *Adapter) handleUploadData(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	data, aerr := requiredString(args, "data")
	if aerr != nil {
		return errorResult(aerr), nil
	}
	// Size cap re-checked here so oversized payloads are rejected before
	// any serialization work, independent of the client's own check.
	if len(data) > gateway.MaxUploadSize {
		return kindResult(gateway.KindPayloadTooLarge,
			fmt.Sprintf("payload is %d bytes, limit is %d", len(data), gateway.MaxUploadSize)), nil
	}

	stampID, aerr := optionalString(args, "stamp_id", a.defaults.StampID)
	if aerr != nil {
		return errorResult(aerr), nil
	}
	if stampID == "" {
		return kindResult(gateway.KindInvalidArgument, "stamp_id is required (no default stamp configured)"), nil
	}
	contentType, aerr := optionalString(args, "content_type", "application/json")
	if aerr != nil {
		return errorResult(aerr), nil
	}

	ref, err := a.gw.UploadData(ctx, []byte(data), stampID, contentType)
	if err != nil {
		return errorResult(err), nil
	}
	return uploadResult(ref, stampID, contentType, len(data)), nil
}

func (a *Adapter) handleDownloadData(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reference, aerr := requiredString(req.GetArguments(), "reference")
	if aerr != nil {
		return errorResult(aerr), nil
	}

	data, err := a.gw.DownloadData(ctx, reference)
	if err != nil {
		return errorResult(err), nil
	}
	return downloadResult(reference, data), nil
}

func (a *Adapter) handleHealthCheck(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := a.gw.Health(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	text := fmt.Sprintf("Gateway %s is %s (%.2fms)", report.GatewayURL, report.Status, report.LatencyMS)
	return mcp.NewToolResultStructured(report, text), nil
}
