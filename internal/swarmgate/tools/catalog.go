package tools

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/datafund/swarmgate/internal/swarmgate/gateway"
)

// Tool names. The set is closed; dispatch is a fixed table, not dynamic
// registration.
const (
	ToolPurchaseStamp  = "purchase_stamp"
	ToolGetStampStatus = "get_stamp_status"
	ToolListStamps     = "list_stamps"
	ToolExtendStamp    = "extend_stamp"
	ToolUploadData     = "upload_data"
	ToolDownloadData   = "download_data"
	ToolHealthCheck    = "health_check"
)

// Defaults are the configured fallbacks applied when a tool invocation
// omits an optional argument.
type Defaults struct {
	StampAmount int64
	StampDepth  int
	StampID     string
}

// Catalog returns the full tool set with argument schemas. Descriptions
// embed the configured defaults so callers see effective values.
func Catalog(d Defaults) []mcp.Tool {
	return []mcp.Tool{
		mcp.NewTool(ToolPurchaseStamp,
			mcp.WithDescription("Purchase a new Swarm postage stamp. Amount and depth fall back to server defaults when omitted."),
			mcp.WithNumber("amount",
				mcp.Description(fmt.Sprintf("Amount of the stamp in wei (default: %d)", d.StampAmount)),
			),
			mcp.WithNumber("depth",
				mcp.Description(fmt.Sprintf("Depth of the stamp, %d-%d (default: %d)", gateway.MinStampDepth, gateway.MaxStampDepth, d.StampDepth)),
			),
			mcp.WithString("label",
				mcp.Description("Optional label for the stamp"),
			),
		),
		mcp.NewTool(ToolGetStampStatus,
			mcp.WithDescription("Get detailed information about a specific postage stamp, including utilization."),
			mcp.WithString("stamp_id",
				mcp.Required(),
				mcp.Description("The batch ID of the stamp to query"),
			),
		),
		mcp.NewTool(ToolListStamps,
			mcp.WithDescription("List all postage stamps known to the gateway."),
		),
		mcp.NewTool(ToolExtendStamp,
			mcp.WithDescription("Extend an existing postage stamp with additional funds."),
			mcp.WithString("stamp_id",
				mcp.Required(),
				mcp.Description("The batch ID of the stamp to extend"),
			),
			mcp.WithNumber("amount",
				mcp.Required(),
				mcp.Description("Additional amount to add to the stamp in wei"),
			),
		),
		mcp.NewTool(ToolUploadData,
			mcp.WithDescription(fmt.Sprintf("Upload data to the Swarm network via the gateway. Payloads up to %d bytes.", gateway.MaxUploadSize)),
			mcp.WithString("data",
				mcp.Required(),
				mcp.Description(fmt.Sprintf("Data content to upload (max %d bytes)", gateway.MaxUploadSize)),
			),
			mcp.WithString("stamp_id",
				mcp.Description("Postage stamp ID to pay for the upload; falls back to the configured default stamp"),
			),
			mcp.WithString("content_type",
				mcp.Description("MIME type of the content (default: application/json)"),
			),
		),
		mcp.NewTool(ToolDownloadData,
			mcp.WithDescription("Download data from the Swarm network using a content reference."),
			mcp.WithString("reference",
				mcp.Required(),
				mcp.Description("Swarm reference hash of the data to download"),
			),
		),
		mcp.NewTool(ToolHealthCheck,
			mcp.WithDescription("Check gateway reachability and report status plus round-trip latency. No side effects."),
		),
	}
}
