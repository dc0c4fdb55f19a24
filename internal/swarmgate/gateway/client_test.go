package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingTransport counts round trips so tests can assert how many HTTP
// attempts an operation made.
type countingTransport struct {
	mu    sync.Mutex
	calls int
	next  http.RoundTripper
}

func (t *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.mu.Lock()
	t.calls++
	t.mu.Unlock()
	return t.next.RoundTrip(req)
}

func (t *countingTransport) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

func testPolicy(retries int) RetryPolicy {
	return RetryPolicy{
		MaxRetries:  retries,
		BackoffBase: time.Millisecond,
		BackoffMax:  5 * time.Millisecond,
	}
}

func newTestClient(baseURL string, retries int) (*Client, *countingTransport) {
	spy := &countingTransport{next: http.DefaultTransport}
	c := NewClient(&Config{
		BaseURL:   baseURL,
		Timeout:   2 * time.Second,
		Retry:     testPolicy(retries),
		UserAgent: "swarmgate-test/0.0.0",
	}, &http.Client{Transport: spy})
	return c, spy
}

// operations drives the per-operation retry tests. Each entry knows how
// to invoke its operation and what a successful body looks like.
var operations = []struct {
	name string
	body string
	call func(ctx context.Context, c *Client) error
}{
	{
		name: "purchase_stamp",
		body: `{"batchID":"b1","message":"created"}`,
		call: func(ctx context.Context, c *Client) error {
			_, err := c.PurchaseStamp(ctx, 1000, 17, "")
			return err
		},
	},
	{
		name: "get_stamp_status",
		body: `{"batchID":"b1","amount":1000,"depth":17,"utilization":0.5}`,
		call: func(ctx context.Context, c *Client) error {
			_, err := c.GetStampStatus(ctx, "b1")
			return err
		},
	},
	{
		name: "list_stamps",
		body: `{"stamps":[],"total_count":0}`,
		call: func(ctx context.Context, c *Client) error {
			_, err := c.ListStamps(ctx)
			return err
		},
	},
	{
		name: "extend_stamp",
		body: `{"batchID":"b1","message":"extended"}`,
		call: func(ctx context.Context, c *Client) error {
			_, err := c.ExtendStamp(ctx, "b1", 500)
			return err
		},
	},
	{
		name: "upload_data",
		body: `{"reference":"ref1"}`,
		call: func(ctx context.Context, c *Client) error {
			_, err := c.UploadData(ctx, []byte("payload"), "b1", "text/plain")
			return err
		},
	},
	{
		name: "download_data",
		body: `hello`,
		call: func(ctx context.Context, c *Client) error {
			_, err := c.DownloadData(ctx, "ref1")
			return err
		},
	},
}

func TestRetryAfterServerError(t *testing.T) {
	for _, op := range operations {
		t.Run(op.name, func(t *testing.T) {
			var mu sync.Mutex
			served := 0
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				mu.Lock()
				served++
				n := served
				mu.Unlock()
				if n <= 2 {
					w.WriteHeader(http.StatusInternalServerError)
					return
				}
				fmt.Fprint(w, op.body)
			}))
			defer srv.Close()

			c, spy := newTestClient(srv.URL, 3)
			err := op.call(context.Background(), c)
			assert.NoError(t, err)
			assert.Equal(t, 3, spy.Calls(), "success on the third attempt")
		})
	}
}

func TestConnectionFailureExhaustsRetries(t *testing.T) {
	for _, op := range operations {
		t.Run(op.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
			url := srv.URL
			srv.Close() // nothing listens anymore: dial failures

			c, spy := newTestClient(url, 2)
			err := op.call(context.Background(), c)
			require.Error(t, err)
			assert.True(t, IsKind(err, KindGatewayUnavailable), "got %v", err)
			assert.Equal(t, 3, spy.Calls(), "retries+1 attempts, no more, no fewer")
		})
	}
}

func TestAmbiguousFailureRetriesReadsOnly(t *testing.T) {
	// The handler kills the connection mid-exchange, after the request
	// reached the server. Reads may retry; mutations must not.
	newDroppingServer := func() *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Fatal("server does not support hijacking")
			}
			conn, _, err := hj.Hijack()
			if err != nil {
				t.Fatalf("hijack: %v", err)
			}
			conn.Close()
		}))
	}

	t.Run("mutating call gives up immediately", func(t *testing.T) {
		srv := newDroppingServer()
		defer srv.Close()

		c, spy := newTestClient(srv.URL, 2)
		_, err := c.PurchaseStamp(context.Background(), 1000, 17, "")
		require.Error(t, err)
		assert.True(t, IsKind(err, KindGatewayUnavailable))
		assert.Equal(t, 1, spy.Calls(), "ambiguous mutating failure must not be retried")
	})

	t.Run("idempotent call keeps retrying", func(t *testing.T) {
		srv := newDroppingServer()
		defer srv.Close()

		c, spy := newTestClient(srv.URL, 2)
		_, err := c.GetStampStatus(context.Background(), "b1")
		require.Error(t, err)
		assert.True(t, IsKind(err, KindGatewayUnavailable))
		assert.Equal(t, 3, spy.Calls())
	})
}

func TestLocalValidationSkipsNetwork(t *testing.T) {
	c, spy := newTestClient("http://127.0.0.1:1", 3)
	ctx := context.Background()

	t.Run("oversized upload", func(t *testing.T) {
		big := make([]byte, MaxUploadSize+1)
		_, err := c.UploadData(ctx, big, "b1", "")
		assert.True(t, IsKind(err, KindPayloadTooLarge), "got %v", err)
	})

	t.Run("extend with non-positive amount", func(t *testing.T) {
		for _, amount := range []int64{0, -5} {
			_, err := c.ExtendStamp(ctx, "b1", amount)
			assert.True(t, IsKind(err, KindInvalidArgument), "amount %d: got %v", amount, err)
		}
	})

	t.Run("empty download reference", func(t *testing.T) {
		_, err := c.DownloadData(ctx, "")
		assert.True(t, IsKind(err, KindInvalidArgument), "got %v", err)
	})

	t.Run("empty stamp id", func(t *testing.T) {
		_, err := c.GetStampStatus(ctx, "  ")
		assert.True(t, IsKind(err, KindInvalidArgument), "got %v", err)
	})

	t.Run("purchase with bad amount and depth", func(t *testing.T) {
		_, err := c.PurchaseStamp(ctx, 0, 17, "")
		assert.True(t, IsKind(err, KindInvalidArgument))
		_, err = c.PurchaseStamp(ctx, 1000, 7, "")
		assert.True(t, IsKind(err, KindInvalidArgument))
	})

	assert.Equal(t, 0, spy.Calls(), "local validation must not touch the network")
}

func TestPurchaseStampDecodesGatewayResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/stamps", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		fmt.Fprint(w, `{"id":"abc123","amount":2000000000,"depth":17,"utilization":0.0}`)
	}))
	defer srv.Close()

	c, _ := newTestClient(srv.URL, 0)
	st, err := c.PurchaseStamp(context.Background(), 2000000000, 17, "")
	require.NoError(t, err)
	assert.Equal(t, "abc123", st.Identifier())
	assert.Equal(t, int64(2000000000), st.Amount)
	assert.Equal(t, 17, st.Depth)
	assert.Equal(t, 0.0, st.Utilization)
}

func TestStampRoundTripPreservesFields(t *testing.T) {
	const body = `{"batchID":"0xfe2f","amount":9007199254740991,"depth":20,"bucketDepth":16,` +
		`"blockNumber":1234,"batchTTL":86400,"expectedExpiration":"2026-09-01T00:00:00Z",` +
		`"usable":true,"utilization":0.25,"immutableFlag":true,"label":"prov"}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/stamps/0xfe2f", r.URL.Path)
		fmt.Fprint(w, body)
	}))
	defer srv.Close()

	c, _ := newTestClient(srv.URL, 0)
	st, err := c.GetStampStatus(context.Background(), "0xfe2f")
	require.NoError(t, err)
	assert.Equal(t, "0xfe2f", st.Identifier())
	assert.Equal(t, int64(9007199254740991), st.Amount)
	assert.Equal(t, 20, st.Depth)
	assert.Equal(t, 16, st.BucketDepth)
	assert.Equal(t, int64(86400), st.BatchTTL)
	assert.True(t, st.Usable)
	assert.Equal(t, 0.25, st.Utilization)
	assert.True(t, st.ImmutableFlag)
	assert.Equal(t, "prov", st.Label)
}

func TestNotFoundMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"detail":"stamp not found"}`)
	}))
	defer srv.Close()

	c, spy := newTestClient(srv.URL, 3)
	_, err := c.GetStampStatus(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindNotFound))
	assert.Equal(t, "stamp not found", MessageOf(err))
	assert.NotContains(t, MessageOf(err), "http")
	assert.Equal(t, 1, spy.Calls(), "4xx responses are not retried")
}

func TestBadRequestMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"detail":"depth out of range"}`)
	}))
	defer srv.Close()

	c, _ := newTestClient(srv.URL, 0)
	_, err := c.PurchaseStamp(context.Background(), 1000, 200, "")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindInvalidArgument))
	assert.Equal(t, "depth out of range", MessageOf(err))
}

func TestMalformedSuccessBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{{not json`)
	}))
	defer srv.Close()

	c, _ := newTestClient(srv.URL, 0)
	_, err := c.PurchaseStamp(context.Background(), 1000, 17, "")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindUpstreamError), "got %v", err)
}

func TestListStampsPreservesOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"stamps":[{"batchID":"z"},{"batchID":"a"},{"batchID":"m"}],"total_count":3}`)
	}))
	defer srv.Close()

	c, _ := newTestClient(srv.URL, 0)
	stamps, err := c.ListStamps(context.Background())
	require.NoError(t, err)
	require.Len(t, stamps, 3)
	var ids []string
	for i := range stamps {
		ids = append(ids, stamps[i].Identifier())
	}
	assert.Equal(t, []string{"z", "a", "m"}, ids, "gateway order, not re-sorted")
}

func TestDownloadDataReturnsRawBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/data/ref1", r.URL.Path)
		fmt.Fprint(w, `{"anything":"goes"}`)
	}))
	defer srv.Close()

	c, _ := newTestClient(srv.URL, 0)
	data, err := c.DownloadData(context.Background(), "ref1")
	require.NoError(t, err)
	assert.Equal(t, `{"anything":"goes"}`, string(data))
}

func TestUploadDataSendsStampAndPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/data", r.URL.Path)
		fmt.Fprint(w, `{"reference":"ref42"}`)
	}))
	defer srv.Close()

	c, _ := newTestClient(srv.URL, 0)
	ref, err := c.UploadData(context.Background(), []byte(`{"k":"v"}`), "b1", "application/json")
	require.NoError(t, err)
	assert.Equal(t, "ref42", ref)
}

func TestHealthReportsUpAndDown(t *testing.T) {
	t.Run("up", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/health", r.URL.Path)
			fmt.Fprint(w, `{"status":"ok"}`)
		}))
		defer srv.Close()

		c, spy := newTestClient(srv.URL, 3)
		report, err := c.Health(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "up", report.Status)
		assert.Equal(t, c.BaseURL(), report.GatewayURL)
		assert.GreaterOrEqual(t, report.LatencyMS, 0.0)
		assert.Equal(t, 1, spy.Calls(), "health probes never retry")
	})

	t.Run("down", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := srv.URL
		srv.Close()

		c, spy := newTestClient(url, 3)
		report, err := c.Health(context.Background())
		require.NoError(t, err, "a down gateway is a report, not an error")
		assert.Equal(t, "down", report.Status)
		assert.Equal(t, 1, spy.Calls())
	})
}

func TestCanceledContextStopsRetrying(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c, spy := newTestClient(srv.URL, 5)
	_, err := c.ListStamps(ctx)
	require.Error(t, err)
	assert.LessOrEqual(t, spy.Calls(), 1, "no retries after cancellation")
}

func TestErrorMessagesOmitTransportInternals(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, _ := newTestClient(url, 0)
	_, err := c.ListStamps(context.Background())
	require.Error(t, err)
	msg := MessageOf(err)
	assert.False(t, strings.Contains(msg, "127.0.0.1"), "message leaked an address: %q", msg)
	assert.False(t, strings.Contains(msg, "dial"), "message leaked transport detail: %q", msg)
}
