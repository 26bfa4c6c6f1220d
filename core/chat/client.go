package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/codes"
)

// ErrBadStatus is returned when the chat endpoint answers with a non-2xx
// status.
var ErrBadStatus = errors.New("chat endpoint returned an error status")

const chatPath = "/api/chat"

// Client calls the dashboard backend's chat endpoint and streams the reply.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

type ClientOption func(*Client)

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	client := &Client{
		endpoint:   strings.TrimSuffix(baseURL, "/") + chatPath,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// StreamReply posts request and yields the response body as it arrives.
// Multi-byte characters split across reads are held back until complete.
func (c *Client) StreamReply(ctx context.Context, request Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		ctx, span := tracer.Start(ctx, "request chat reply")
		defer span.End()

		fail := func(err error) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			yield("", err)
		}

		body, err := json.Marshal(request)
		if err != nil {
			fail(fmt.Errorf("failed to encode chat request: %w", err))
			return
		}

		httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			fail(fmt.Errorf("failed to create chat request: %w", err))
			return
		}
		httpRequest.Header.Set("Content-Type", "application/json")

		response, err := c.httpClient.Do(httpRequest)
		if err != nil {
			fail(fmt.Errorf("failed to send chat request: %w", err))
			return
		}
		defer response.Body.Close()

		if response.StatusCode < 200 || response.StatusCode > 299 {
			fail(fmt.Errorf("%w: %s", ErrBadStatus, response.Status))
			return
		}

		buf := make([]byte, 4096)
		var carry []byte
		for {
			n, readErr := response.Body.Read(buf)
			if n > 0 {
				chunk := append(carry, buf[:n]...)
				complete := completeUTF8Prefix(chunk)
				carry = append([]byte(nil), chunk[complete:]...)
				if complete > 0 && !yield(string(chunk[:complete]), nil) {
					return
				}
			}
			if readErr != nil {
				if errors.Is(readErr, io.EOF) {
					if len(carry) > 0 {
						yield(string(carry), nil)
					}
					return
				}
				fail(fmt.Errorf("failed to read chat reply: %w", readErr))
				return
			}
		}
	}
}

// completeUTF8Prefix returns the length of the longest prefix of b that does
// not end in a truncated UTF-8 sequence.
func completeUTF8Prefix(b []byte) int {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(b[i]) {
			continue
		}
		if utf8.FullRune(b[i:]) {
			return len(b)
		}
		return i
	}
	return len(b)
}
