// Package e2b benchmarks the E2B cloud sandbox API: spawn a sandbox from a
// template, upload one file through the sandbox's envd endpoint, kill it.
package e2b

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/p-arndt/sandmark/internal/bench"
)

const (
	DefaultBaseURL = "https://api.e2b.dev"

	// envd listens on this port inside every E2B sandbox; uploads are
	// proxied through a per-sandbox hostname.
	envdPort = 49983
)

type Sampler struct {
	baseURL  string
	apiKey   string
	template string
	http     *http.Client

	// uploadURL builds the envd file endpoint for a sandbox; replaced in
	// tests to point at a local server.
	uploadURL func(sandboxID, clientID string) string
}

func New(baseURL, apiKey, template string) *Sampler {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	s := &Sampler{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   strings.TrimSpace(apiKey),
		template: template,
		http:     &http.Client{},
	}
	s.uploadURL = func(sandboxID, clientID string) string {
		return fmt.Sprintf("https://%d-%s-%s.e2b.dev", envdPort, sandboxID, clientID)
	}
	return s
}

func (s *Sampler) Name() string { return "e2b" }

func (s *Sampler) Sample(ctx context.Context) (bench.Sample, error) {
	start := time.Now()

	sbx, err := s.createSandbox(ctx)
	if err != nil {
		return bench.Sample{TotalMs: bench.Milliseconds(time.Since(start)), Error: err.Error()}, nil
	}
	provisionMs := bench.Milliseconds(time.Since(start))
	defer func() {
		_ = s.killSandbox(context.Background(), sbx.SandboxID)
	}()

	path := "/tmp/sandmark-" + uuid.NewString() + ".txt"
	writeStart := time.Now()
	if err := s.uploadFile(ctx, sbx, path, []byte(time.Now().UTC().Format(time.RFC3339Nano))); err != nil {
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

type createSandboxRequest struct {
	TemplateID string `json:"templateID"`
	Timeout    int    `json:"timeout"`
}

type sandbox struct {
	SandboxID  string `json:"sandboxID"`
	TemplateID string `json:"templateID"`
	ClientID   string `json:"clientID"`
}

func (s *Sampler) createSandbox(ctx context.Context) (*sandbox, error) {
	payload, err := json.Marshal(createSandboxRequest{TemplateID: s.template, Timeout: 300})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/sandboxes", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-Key", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("create sandbox: %s %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	var out sandbox
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("create sandbox: %w", err)
	}
	return &out, nil
}

func (s *Sampler) uploadFile(ctx context.Context, sbx *sandbox, path string, data []byte) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", path)
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	endpoint := s.uploadURL(sbx.SandboxID, sbx.ClientID) + "/files?path=" + url.QueryEscape(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return err
	}
	req.Header.Set("X-API-Key", s.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("upload: %s %s", resp.Status, strings.TrimSpace(string(raw)))
	}
	return nil
}

func (s *Sampler) killSandbox(ctx context.Context, sandboxID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.baseURL+"/sandboxes/"+sandboxID, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-API-Key", s.apiKey)

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("kill sandbox: %s", resp.Status)
	}
	return nil
}
