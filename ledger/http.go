package ledger

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gravitational/trace"

	"github.com/gravitational/vcagent/lib/errcode"
)

// HTTPClient is a plain REST-over-HTTP Client, the thin glue spec.md keeps
// opaque ("a real DID ledger" is a Non-goal; this just moves bytes).
type HTTPClient struct {
	baseURL *url.URL
	client  *http.Client
}

// NewHTTPClient builds an HTTPClient against baseURL.
func NewHTTPClient(baseURL string, timeout time.Duration) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return &HTTPClient{baseURL: u, client: &http.Client{Timeout: timeout}}, nil
}

func (c *HTTPClient) endpoint(id string) string {
	u := *c.baseURL
	u.Path = path(u.Path, id)
	return u.String()
}

func path(base, id string) string {
	if len(base) > 0 && base[len(base)-1] == '/' {
		return base + id
	}
	return base + "/" + id
}

func (c *HTTPClient) Publish(ctx context.Context, id string, txn Txn, addr PaymentAddress) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.endpoint(id), bytes.NewReader(txn))
	if err != nil {
		return trace.Wrap(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if addr != "" {
		req.Header.Set("X-Payment-Address", string(addr))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return errcode.Transport(err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return nil
	case http.StatusPaymentRequired:
		return errcode.NoPaymentInformation()
	default:
		return errcode.Ledger(trace.Errorf("ledger publish for %q returned status %d", id, resp.StatusCode))
	}
}

func (c *HTTPClient) Fetch(ctx context.Context, id string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(id), nil)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errcode.Transport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errcode.NotFound("ledger entry %q not found", id)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errcode.Ledger(trace.Errorf("ledger fetch for %q returned status %d", id, resp.StatusCode))
	}
	return io.ReadAll(resp.Body)
}

func (c *HTTPClient) ProtocolVersion(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("protocol-version"), nil)
	if err != nil {
		return "", trace.Wrap(err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", errcode.Transport(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", trace.Wrap(err)
	}
	return string(bytes.TrimSpace(body)), nil
}
