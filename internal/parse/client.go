package parse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"
)

// Client communicates with the spaCy parser sidecar.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new parser sidecar client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Parse sends text to the sidecar's /parse endpoint. Offsets in the response
// are code-point offsets; they are converted to byte offsets before return.
func (c *Client) Parse(ctx context.Context, text string) (*Document, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/parse", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParserUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: status %d", ErrParserUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var doc Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	doc.Text = text
	toByteOffsets(&doc, text)
	return &doc, nil
}

// Healthy checks if the parser sidecar is responding.
func (c *Client) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// toByteOffsets rewrites code-point offsets as byte offsets. ASCII text is
// left alone since both coincide.
func toByteOffsets(doc *Document, text string) {
	if utf8.RuneCountInString(text) == len(text) {
		return
	}

	offsets := make([]int, 0, len(text)+1)
	for i := range text {
		offsets = append(offsets, i)
	}
	offsets = append(offsets, len(text))

	conv := func(cp int) int {
		if cp < 0 {
			return 0
		}
		if cp >= len(offsets) {
			return len(text)
		}
		return offsets[cp]
	}

	for si := range doc.Sentences {
		s := &doc.Sentences[si]
		s.Start, s.End = conv(s.Start), conv(s.End)
		for ti := range s.Tokens {
			t := &s.Tokens[ti]
			t.Start, t.End = conv(t.Start), conv(t.End)
		}
	}
}
