// Package sandkasten benchmarks a sandkasten-compatible sandbox daemon over
// its HTTP API: create a session, write one file into it, destroy it.
package sandkasten

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/p-arndt/sandmark/internal/bench"
)

type Sampler struct {
	baseURL string
	apiKey  string
	image   string
	ttl     int
	http    *http.Client
}

func New(host, apiKey, image string, ttlSeconds int) *Sampler {
	return &Sampler{
		baseURL: strings.TrimRight(host, "/"),
		apiKey:  strings.TrimSpace(apiKey),
		image:   image,
		ttl:     ttlSeconds,
		http:    &http.Client{},
	}
}

func (s *Sampler) Name() string { return "sandkasten" }

// Sample provisions one session, writes a timestamp file into it, and
// destroys it. The teardown is best-effort and not part of any timing.
func (s *Sampler) Sample(ctx context.Context) (bench.Sample, error) {
	start := time.Now()

	sess, err := s.createSession(ctx)
	if err != nil {
		return bench.Sample{TotalMs: bench.Milliseconds(time.Since(start)), Error: err.Error()}, nil
	}
	provisionMs := bench.Milliseconds(time.Since(start))
	defer func() {
		_ = s.destroySession(context.Background(), sess.ID)
	}()

	path := "/tmp/sandmark-" + uuid.NewString() + ".txt"
	writeStart := time.Now()
	if err := s.writeFile(ctx, sess.ID, path, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return bench.Sample{
			ProvisionMs: provisionMs,
			TotalMs:     bench.Milliseconds(time.Since(start)),
			Error:       fmt.Sprintf("file write: %v", err),
		}, nil
	}

	return bench.Sample{
		ProvisionMs: provisionMs,
		FileOpMs:    bench.Milliseconds(time.Since(writeStart)),
		TotalMs:     bench.Milliseconds(time.Since(start)),
		Success:     true,
	}, nil
}

type createSessionRequest struct {
	Image      string `json:"image,omitempty"`
	TTLSeconds int    `json:"ttl_seconds,omitempty"`
}

type sessionInfo struct {
	ID     string `json:"id"`
	Image  string `json:"image"`
	Status string `json:"status"`
}

type writeFileRequest struct {
	Path string `json:"path"`
	Text string `json:"text"`
}

func (s *Sampler) createSession(ctx context.Context) (*sessionInfo, error) {
	var out sessionInfo
	req := createSessionRequest{Image: s.image, TTLSeconds: s.ttl}
	if err := s.doJSON(ctx, http.MethodPost, "/v1/sessions", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Sampler) writeFile(ctx context.Context, sessionID, path, text string) error {
	req := writeFileRequest{Path: path, Text: text}
	return s.doJSON(ctx, http.MethodPost, "/v1/sessions/"+sessionID+"/fs/write", req, nil)
}

func (s *Sampler) destroySession(ctx context.Context, sessionID string) error {
	return s.doJSON(ctx, http.MethodDelete, "/v1/sessions/"+sessionID, nil, nil)
}

func (s *Sampler) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return err
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s %s: %s %s", method, path, resp.Status, strings.TrimSpace(string(raw)))
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}
