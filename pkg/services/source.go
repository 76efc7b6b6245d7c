package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// CommunicationMessage is the single user-facing text for every source failure.
const CommunicationMessage = "Maaf, terjadi kesalahan saat berkomunikasi dengan AI. Silakan coba lagi."

// CommunicationError normalises any failure to reach a reply. Error returns the
// localised message; the cause stays reachable through Unwrap.
type CommunicationError struct {
	Err error
}

func (e *CommunicationError) Error() string { return CommunicationMessage }

func (e *CommunicationError) Unwrap() error { return e.Err }

func communicationError(variant string, err error) error {
	log.Printf("[source] %s: %v", variant, err)
	return &CommunicationError{Err: err}
}

// ResponseSource produces the reply text for a prompt.
type ResponseSource interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// DirectSource calls the generation endpoint with a client-held credential.
type DirectSource struct {
	client *GeminiClient
}

func NewDirectSource(client *GeminiClient) *DirectSource {
	return &DirectSource{client: client}
}

func (s *DirectSource) Generate(ctx context.Context, prompt string) (string, error) {
	text, err := s.client.GenerateContent(ctx, prompt)
	if err != nil {
		return "", communicationError("direct", err)
	}
	return text, nil
}

// ProxiedSource calls the relay, which attaches its own credential.
type ProxiedSource struct {
	relayURL   string
	httpClient *http.Client
}

func NewProxiedSource(relayURL string, timeout time.Duration) *ProxiedSource {
	return &ProxiedSource{
		relayURL:   relayURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (s *ProxiedSource) Generate(ctx context.Context, prompt string) (string, error) {
	text, err := s.generate(ctx, prompt)
	if err != nil {
		return "", communicationError("proxy", err)
	}
	return text, nil
}

func (s *ProxiedSource) generate(ctx context.Context, prompt string) (string, error) {
	bodyBytes, err := json.Marshal(map[string]string{"prompt": prompt})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.relayURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http error: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read error: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("proxy request failed: %d %s", resp.StatusCode, strings.TrimSpace(string(respBytes)))
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(respBytes, &out); err != nil {
		return "", fmt.Errorf("decode proxy response: %w", err)
	}
	return out.Text, nil
}

// SourceConfig carries what NewResponseSource needs to pick a variant.
type SourceConfig struct {
	APIKey   string
	APIURL   string
	RelayURL string
	Timeout  time.Duration
}

// NewResponseSource picks the direct variant when a credential is configured and
// the proxied variant otherwise. The choice is fixed for the source's lifetime.
func NewResponseSource(cfg SourceConfig) ResponseSource {
	if strings.TrimSpace(cfg.APIKey) != "" {
		log.Printf("[source] using direct endpoint %s", cfg.APIURL)
		return NewDirectSource(NewGeminiClient(cfg.APIKey, cfg.APIURL, cfg.Timeout))
	}
	log.Printf("[source] using relay %s", cfg.RelayURL)
	return NewProxiedSource(cfg.RelayURL, cfg.Timeout)
}
