package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrMissingAPIKey     = errors.New("gemini: API key is not set")
	ErrMalformedResponse = errors.New("gemini: malformed response body")
)

// UpstreamError is a non-2xx answer from the generation endpoint.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Status, e.Body)
}

// GeminiClient calls a generateContent endpoint with a key in the query string.
type GeminiClient struct {
	apiKey     string
	apiURL     string
	httpClient *http.Client
}

// NewGeminiClient builds a client; timeout bounds every call (0 = no bound).
func NewGeminiClient(apiKey, apiURL string, timeout time.Duration) *GeminiClient {
	return &GeminiClient{
		apiKey:     strings.TrimSpace(apiKey),
		apiURL:     strings.TrimSpace(apiURL),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Configured reports whether a credential is present.
func (g *GeminiClient) Configured() bool {
	return g != nil && g.apiKey != ""
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

// GenerateContent sends a single-turn prompt and returns the first candidate's
// first text part, or "" when the response carries none.
func (g *GeminiClient) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if !g.Configured() {
		return "", ErrMissingAPIKey
	}
	bodyBytes, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", err
	}

	endpoint, err := g.endpoint()
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http error: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read error: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &UpstreamError{Status: resp.StatusCode, Body: strings.TrimSpace(string(respBytes))}
	}

	var parsed map[string]any
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return firstCandidateText(parsed), nil
}

func (g *GeminiClient) endpoint() (string, error) {
	u, err := url.Parse(g.apiURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("gemini: invalid API URL %q", g.apiURL)
	}
	q := u.Query()
	q.Set("key", g.apiKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// firstCandidateText walks candidates[0].content.parts[0].text; any missing or
// mistyped step yields "".
func firstCandidateText(parsed map[string]any) string {
	cands, ok := parsed["candidates"].([]any)
	if !ok || len(cands) == 0 {
		return ""
	}
	first, ok := cands[0].(map[string]any)
	if !ok {
		return ""
	}
	c, ok := first["content"].(map[string]any)
	if !ok {
		return ""
	}
	parts, ok := c["parts"].([]any)
	if !ok || len(parts) == 0 {
		return ""
	}
	pm, ok := parts[0].(map[string]any)
	if !ok {
		return ""
	}
	txt, _ := pm["text"].(string)
	if txt == "" {
		log.Printf("[gemini] response carried no text")
	}
	return txt
}
