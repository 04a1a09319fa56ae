package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/smartcabinet/controller/internal/cabinet/types"
)

// maxResponseBody caps roster/log responses. A full 1000-row log sheet
// encodes to well under 256 KiB.
const maxResponseBody = 1 << 20

// Client talks JSON over HTTP to the sheets bridge that fronts the roster
// and log spreadsheets. Calls are throttled: the spreadsheet API behind the
// bridge enforces a per-minute quota, and a burst of per-item log appends
// after a big transaction can otherwise trip it.
type Client struct {
	base    string
	httpc   *http.Client
	limiter *rate.Limiter
}

func NewClient(baseURL string) *Client {
	return &Client{
		base:    baseURL,
		httpc:   &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(1), 5),
	}
}

func (c *Client) FetchTable(ctx context.Context, table types.Table) ([]Row, error) {
	var rows []Row
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/tables/%s", table), nil, &rows)
	if err != nil {
		return nil, fmt.Errorf("fetch table %s: %w", table, err)
	}
	return rows, nil
}

func (c *Client) AppendIdentity(ctx context.Context, table types.Table, badgeID, name string) error {
	body := Row{Name: name, BadgeID: badgeID}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/v1/tables/%s/rows", table), body, nil); err != nil {
		return fmt.Errorf("append to %s: %w", table, err)
	}
	return nil
}

type logAppendRequest struct {
	Rows      [][]string `json:"rows"`
	MaxLength int        `json:"max_length"`
}

func (c *Client) Append(ctx context.Context, item string, entries []types.LogEntry) error {
	req := logAppendRequest{MaxLength: types.MaxLogLength}
	for _, e := range entries {
		req.Rows = append(req.Rows, e.Row())
	}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/v1/logs/%s/rows", item), req, nil); err != nil {
		return fmt.Errorf("append log %q: %w", item, err)
	}
	return nil
}

func (c *Client) CreateSheet(ctx context.Context, item string) error {
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/v1/logs/%s", item), nil, nil); err != nil {
		return fmt.Errorf("create log %q: %w", item, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
