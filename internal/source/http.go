package source

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"keksly-go/internal/keksly"
)

// maxDocumentSize caps how much of a remote config document is read.
const maxDocumentSize = 1 << 20

// HTTP fetches an override document from a URL. Field coercions are
// reported to Logger when it is set.
type HTTP struct {
	URL    string
	Client *http.Client
	Logger keksly.Logger
}

// NewHTTP creates an HTTP source. A nil client means http.DefaultClient.
func NewHTTP(url string, client *http.Client) *HTTP {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTP{URL: url, Client: client}
}

func (s *HTTP) Fetch(ctx context.Context) (*keksly.PartialConfig, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", s.URL, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", s.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetching %s: unexpected status %s", s.URL, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.URL, err)
	}
	return decodeJSON(data, s.Logger)
}

// DecodeJSON decodes an override document. null decodes to an error, not an
// empty override.
func DecodeJSON(data []byte) (*keksly.PartialConfig, error) {
	return decodeJSON(data, nil)
}

var _ keksly.ConfigSource = (*HTTP)(nil)
