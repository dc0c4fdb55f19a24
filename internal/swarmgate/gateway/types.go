package gateway

// Stamp is a postage batch as reported by the gateway. The gateway emits
// the identifier as "batchID"; older deployments used "id", so both are
// decoded and Identifier normalizes.
type Stamp struct {
	BatchID            string  `json:"batchID,omitempty"`
	ID                 string  `json:"id,omitempty"`
	Amount             int64   `json:"amount"`
	Depth              int     `json:"depth"`
	BucketDepth        int     `json:"bucketDepth,omitempty"`
	BlockNumber        int64   `json:"blockNumber,omitempty"`
	BatchTTL           int64   `json:"batchTTL,omitempty"`
	ExpectedExpiration string  `json:"expectedExpiration,omitempty"`
	Usable             bool    `json:"usable,omitempty"`
	Utilization        float64 `json:"utilization"`
	ImmutableFlag      bool    `json:"immutableFlag,omitempty"`
	Label              string  `json:"label,omitempty"`
}

// Identifier returns the batch id under either wire name.
func (s *Stamp) Identifier() string {
	if s.BatchID != "" {
		return s.BatchID
	}
	return s.ID
}

// HealthReport is the outcome of a gateway reachability probe.
type HealthReport struct {
	Status     string  `json:"status"`
	GatewayURL string  `json:"gateway_url"`
	LatencyMS  float64 `json:"response_time_ms"`
	Detail     string  `json:"detail,omitempty"`
}

type purchaseRequest struct {
	Amount int64  `json:"amount"`
	Depth  int    `json:"depth"`
	Label  string `json:"label,omitempty"`
}

type extendRequest struct {
	Amount int64 `json:"amount"`
}

type uploadRequest struct {
	Data        string `json:"data"`
	StampID     string `json:"stamp_id"`
	ContentType string `json:"content_type,omitempty"`
}

// stampEnvelope covers the mutating endpoints, which answer with the
// stamp fields (or just {batchID, message}) plus a human note.
type stampEnvelope struct {
	Stamp
	Message string `json:"message,omitempty"`
}

type stampListResponse struct {
	Stamps     []Stamp `json:"stamps"`
	TotalCount int     `json:"total_count"`
}

type uploadResponse struct {
	Reference string `json:"reference"`
}

// gatewayMessage is the error body shape of the gateway (FastAPI uses
// "detail", some handlers use "message").
type gatewayMessage struct {
	Detail  string `json:"detail,omitempty"`
	Message string `json:"message,omitempty"`
}
