package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go-presensi/internal/kiosk/capture"
	"go-presensi/internal/scan"
	serversync "go-presensi/internal/sync"

	"go.uber.org/zap"
)

// Client berbicara ke API server atas nama satu device. Kredensial device
// dikirim lewat header yang diperiksa DeviceAuth di sisi server.
type Client struct {
	baseURL    string
	deviceCode string
	apiKey     string
	httpc      *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL, deviceCode, apiKey string, timeout time.Duration, logger ...*zap.Logger) *Client {
	l := zap.L().Named("kiosk.sync.client")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("kiosk.sync.client")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		deviceCode: deviceCode,
		apiKey:     apiKey,
		httpc:      &http.Client{Timeout: timeout},
		logger:     l,
	}
}

type envelope struct {
	Ok    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		buf = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Device-Code", c.deviceCode)
	req.Header.Set("X-Device-Key", c.apiKey)

	res, err := c.httpc.Do(req)
	if err != nil {
		// Timeout atau koneksi putus: pemanggil jatuh ke jalur offline
		return fmt.Errorf("%w: %v", capture.ErrServerUnavailable, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: http %d", capture.ErrServerUnavailable, res.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if !env.Ok {
		msg := fmt.Sprintf("http %d", res.StatusCode)
		if env.Error != nil {
			msg = env.Error.Message
		}
		return errors.New(msg)
	}
	if out != nil {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}

// Scan memanggil POST /attendance/kiosk/scan. Memenuhi capture.ScanClient.
func (c *Client) Scan(ctx context.Context, req scan.ScanRequest) (*scan.ScanResponse, error) {
	var resp scan.ScanResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/attendance/kiosk/scan", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Push mengirim batch antrian ke POST /sync/push.
func (c *Client) Push(ctx context.Context, req serversync.PushRequest) (*serversync.PushResponse, error) {
	var resp serversync.PushResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/sync/push", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Pull mengambil snapshot konfigurasi dari GET /sync/pull.
func (c *Client) Pull(ctx context.Context, branchID string) (*serversync.PullResponse, error) {
	path := "/api/v1/sync/pull"
	if branchID != "" {
		path += "?branch_id=" + url.QueryEscape(branchID)
	}
	var resp serversync.PullResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Heartbeat menandai device masih hidup lewat POST /devices/heartbeat.
func (c *Client) Heartbeat(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/v1/devices/heartbeat", nil, nil)
}
