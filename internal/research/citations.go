package research

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
)

type citationSinkKey struct{}

// citationSink receives the citations of one request. The chat completion
// types do not carry them, so they are read off the raw response body.
type citationSink struct {
	mu        sync.Mutex
	citations []string
}

func (s *citationSink) set(c []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.citations = c
}

func (s *citationSink) get() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.citations...)
}

func withCitationSink(ctx context.Context, s *citationSink) context.Context {
	return context.WithValue(ctx, citationSinkKey{}, s)
}

type citationTransport struct {
	next http.RoundTripper
}

func (t *citationTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	sink, ok := req.Context().Value(citationSinkKey{}).(*citationSink)
	if !ok || resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, nil
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	var payload struct {
		Citations []string `json:"citations"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		sink.set(payload.Citations)
	}

	return resp, nil
}
