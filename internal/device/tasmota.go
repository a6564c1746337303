package device

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"

	"supercycler"
)

// relayPath is the command endpoint exposed by the plug firmware bridge.
const relayPath = "/setSta"

// TasmotaClient commands a Tasmota-style plug over its HTTP bridge.
type TasmotaClient struct {
	address string
	port    int
	client  *http.Client
}

// NewTasmotaClient builds a client for the plug at address:port. If
// client is nil, http.DefaultClient is used; pass one with a Timeout so
// every command is bounded.
func NewTasmotaClient(address string, port int, client *http.Client) *TasmotaClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &TasmotaClient{address: address, port: port, client: client}
}

type relayPayload struct {
	Status int `json:"status"`
}

// Send turns the relay on or off. Failures are classified as TIMEOUT,
// UNREACHABLE or UNEXPECTED_RESPONSE.
func (c *TasmotaClient) Send(ctx context.Context, phase supercycler.Phase) error {
	status := 0
	if phase == supercycler.PhaseOn {
		status = 1
	}
	body, err := json.Marshal(relayPayload{Status: status})
	if err != nil {
		return &CommandError{Reason: ReasonUnexpectedResponse, Err: err}
	}

	u := url.URL{
		Scheme: "http",
		Host:   net.JoinHostPort(c.address, strconv.Itoa(c.port)),
		Path:   relayPath,
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return &CommandError{Reason: ReasonUnreachable, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return &CommandError{Reason: classifyTransportErr(err), Err: err}
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		return &CommandError{
			Reason: ReasonUnexpectedResponse,
			Err:    fmt.Errorf("unexpected status code %d", res.StatusCode),
		}
	}
	return nil
}

func classifyTransportErr(err error) Reason {
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return ReasonTimeout
	}
	return ReasonUnreachable
}
