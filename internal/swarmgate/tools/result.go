package tools

import (
	"encoding/base64"
	"fmt"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/datafund/swarmgate/internal/swarmgate/gateway"
)

// stampPayload is the normalized stamp view surfaced to tool callers.
// Identifier, amount and depth pass through unchanged from the gateway.
type stampPayload struct {
	ID                 string  `json:"id"`
	Amount             int64   `json:"amount"`
	Depth              int     `json:"depth"`
	BucketDepth        int     `json:"bucketDepth,omitempty"`
	BlockNumber        int64   `json:"blockNumber,omitempty"`
	BatchTTL           int64   `json:"batchTTL,omitempty"`
	ExpectedExpiration string  `json:"expectedExpiration,omitempty"`
	Usable             bool    `json:"usable"`
	Utilization        float64 `json:"utilization"`
	Immutable          bool    `json:"immutable,omitempty"`
	Label              string  `json:"label,omitempty"`
}

type stampListPayload struct {
	Stamps     []stampPayload `json:"stamps"`
	TotalCount int            `json:"total_count"`
}

type uploadPayload struct {
	Reference   string `json:"reference"`
	StampID     string `json:"stamp_id"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
}

type downloadPayload struct {
	Reference string `json:"reference"`
	Size      int    `json:"size"`
	Encoding  string `json:"encoding"`
	Data      string `json:"data"`
}

func toStampPayload(st *gateway.Stamp) stampPayload {
	return stampPayload{
		ID:                 st.Identifier(),
		Amount:             st.Amount,
		Depth:              st.Depth,
		BucketDepth:        st.BucketDepth,
		BlockNumber:        st.BlockNumber,
		BatchTTL:           st.BatchTTL,
		ExpectedExpiration: st.ExpectedExpiration,
		Usable:             st.Usable,
		Utilization:        st.Utilization,
		Immutable:          st.ImmutableFlag,
		Label:              st.Label,
	}
}

func stampResult(st *gateway.Stamp) *mcp.CallToolResult {
	p := toStampPayload(st)
	text := fmt.Sprintf("Stamp %s: amount %d wei, depth %d, utilization %.2f", p.ID, p.Amount, p.Depth, p.Utilization)
	return mcp.NewToolResultStructured(p, text)
}

func stampListResult(stamps []gateway.Stamp) *mcp.CallToolResult {
	p := stampListPayload{
		Stamps:     make([]stampPayload, 0, len(stamps)),
		TotalCount: len(stamps),
	}
	for i := range stamps {
		p.Stamps = append(p.Stamps, toStampPayload(&stamps[i]))
	}
	text := fmt.Sprintf("Found %d stamp(s)", p.TotalCount)
	if p.TotalCount == 0 {
		text = "No stamps found"
	}
	return mcp.NewToolResultStructured(p, text)
}

func uploadResult(reference, stampID, contentType string, size int) *mcp.CallToolResult {
	p := uploadPayload{
		Reference:   reference,
		StampID:     stampID,
		ContentType: contentType,
		Size:        size,
	}
	text := fmt.Sprintf("Uploaded %d bytes under stamp %s, reference %s", size, stampID, reference)
	return mcp.NewToolResultStructured(p, text)
}

// downloadResult renders UTF-8 payloads as text; anything else is
// base64-encoded into a structured payload.
func downloadResult(reference string, data []byte) *mcp.CallToolResult {
	if utf8.Valid(data) {
		return mcp.NewToolResultText(string(data))
	}
	p := downloadPayload{
		Reference: reference,
		Size:      len(data),
		Encoding:  "base64",
		Data:      base64.StdEncoding.EncodeToString(data),
	}
	return mcp.NewToolResultStructured(p, fmt.Sprintf("Downloaded %d bytes of binary data from %s", len(data), reference))
}

// errorResult shapes any failure into a structured tool error of the
// form "<Kind>: <message>".
func errorResult(err error) *mcp.CallToolResult {
	kind := gateway.KindOf(err)
	if kind == "" {
		kind = gateway.KindUpstreamError
	}
	return kindResult(kind, gateway.MessageOf(err))
}

func kindResult(kind gateway.Kind, message string) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s: %s", kind, message))
}
