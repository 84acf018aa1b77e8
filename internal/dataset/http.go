package dataset

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxDocumentSize = 32 << 20

// HTTPSource fetches <BaseURL>/<resource>.json over HTTP.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPSource validates base and returns a source with a default client.
func NewHTTPSource(base string) (*HTTPSource, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid data source url %q: %w", base, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid data source url %q: scheme must be http or https", base)
	}
	return &HTTPSource{
		BaseURL: strings.TrimSuffix(u.String(), "/"),
		Client:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (s *HTTPSource) Fetch(ctx context.Context, resource string) ([]byte, error) {
	name, err := cleanResource(resource)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(name, ".json") {
		name += ".json"
	}
	target, err := url.JoinPath(s.BaseURL, name)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", resource, ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("fetching %s: unexpected status %s", target, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", target, err)
	}
	if len(body) > maxDocumentSize {
		return nil, fmt.Errorf("fetching %s: document larger than %d bytes", target, maxDocumentSize)
	}
	return body, nil
}

func (s *HTTPSource) String() string { return s.BaseURL }
