package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/ppiankov/meshgate/internal/mesh"
)

const defaultTimeout = 5 * time.Second

// StatusError is returned when a node answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, strings.TrimSpace(e.Body))
}

// Client talks to a meshgate node over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the node at baseURL (e.g. http://localhost:8787).
// A nil httpClient gets a default with a 5s timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// Ping checks node liveness.
func (c *Client) Ping(ctx context.Context) (mesh.PingResponse, error) {
	var resp mesh.PingResponse
	err := c.do(ctx, http.MethodGet, mesh.PingPath, nil, &resp)
	return resp, err
}

// Test submits a message for scoring. A nil message sends an empty
// object so the node applies its default message.
func (c *Client) Test(ctx context.Context, message *string) (mesh.TestResponse, error) {
	body, err := json.Marshal(mesh.TestRequest{Message: message})
	if err != nil {
		return mesh.TestResponse{}, fmt.Errorf("encode request: %w", err)
	}

	var resp mesh.TestResponse
	err = c.do(ctx, http.MethodPost, mesh.TestPath, body, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Body: string(data)}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// CheckHealth queries the gRPC health service at addr (host:port) and
// returns the reported status name, e.g. "SERVING".
func CheckHealth(ctx context.Context, addr, service string) (string, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return "", fmt.Errorf("failed to connect to health server: %w", err)
	}
	defer conn.Close()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTimeout)
		defer cancel()
	}

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return "", fmt.Errorf("health check: %w", err)
	}
	return resp.GetStatus().String(), nil
}
