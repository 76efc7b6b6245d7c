package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewResponseSourceSelection(t *testing.T) {
	direct := NewResponseSource(SourceConfig{APIKey: "k", APIURL: "http://x", RelayURL: "http://relay"})
	require.IsType(t, &DirectSource{}, direct)

	proxied := NewResponseSource(SourceConfig{APIKey: "  ", RelayURL: "http://relay"})
	require.IsType(t, &ProxiedSource{}, proxied)
}

func TestDirectSourceNormalisesErrors(t *testing.T) {
	srv, _ := upstream(t, http.StatusBadRequest, `{"error":{"message":"API key not valid"}}`)
	src := NewResponseSource(SourceConfig{APIKey: "bad", APIURL: srv.URL, Timeout: time.Second})

	_, err := src.Generate(context.Background(), "Halo")
	var ce *CommunicationError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, CommunicationMessage, err.Error())
	require.NotContains(t, err.Error(), "API key not valid")

	var ue *UpstreamError
	require.True(t, errors.As(err, &ue), "cause stays reachable")
}

func TestDirectSourceSuccess(t *testing.T) {
	srv, _ := upstream(t, http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"Hai!"}]}}]}`)
	src := NewDirectSource(NewGeminiClient("k", srv.URL, time.Second))

	text, err := src.Generate(context.Background(), "Halo")
	require.NoError(t, err)
	require.Equal(t, "Hai!", text)
}

func TestProxiedSource(t *testing.T) {
	t.Run("reads text", func(t *testing.T) {
		srv, got := upstream(t, http.StatusOK, `{"text":"Hai!"}`)
		src := NewProxiedSource(srv.URL+"/api/generate", time.Second)

		text, err := src.Generate(context.Background(), "Halo")
		require.NoError(t, err)
		require.Equal(t, "Hai!", text)
		_, u, _, body := got.get()
		require.Equal(t, "/api/generate", u.Path)
		require.Empty(t, u.Query().Get("key"), "no credential from the client")
		require.JSONEq(t, `{"prompt":"Halo"}`, body)
	})

	t.Run("missing text defaults to empty", func(t *testing.T) {
		srv, _ := upstream(t, http.StatusOK, `{}`)
		text, err := NewProxiedSource(srv.URL, time.Second).Generate(context.Background(), "Halo")
		require.NoError(t, err)
		require.Equal(t, "", text)
	})

	t.Run("relay rejection", func(t *testing.T) {
		srv, _ := upstream(t, http.StatusTooManyRequests, `{"error":"Too many requests - slow down"}`)
		_, err := NewProxiedSource(srv.URL, time.Second).Generate(context.Background(), "Halo")
		var ce *CommunicationError
		require.ErrorAs(t, err, &ce)
		require.Equal(t, CommunicationMessage, err.Error())
	})

	t.Run("malformed payload", func(t *testing.T) {
		srv, _ := upstream(t, http.StatusOK, `not json`)
		_, err := NewProxiedSource(srv.URL, time.Second).Generate(context.Background(), "Halo")
		require.ErrorAs(t, err, new(*CommunicationError))
	})

	t.Run("network failure", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()
		_, err := NewProxiedSource(url, time.Second).Generate(context.Background(), "Halo")
		require.ErrorAs(t, err, new(*CommunicationError))
	})
}
