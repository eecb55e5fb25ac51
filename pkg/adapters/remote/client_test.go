package remote_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/aretw0/weft/pkg/adapters/remote"
	"github.com/aretw0/weft/pkg/domain"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Execute(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, remote.RunNodePath, r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(`{"success": true, "output": {"text": "hello"}}`))
	}))
	defer srv.Close()

	c := remote.New(srv.URL+"/", remote.WithHeader("X-Api-Key", "secret"))
	resp, err := c.Execute(context.Background(), domain.ExecutionRequest{
		Node:    domain.Node{ID: "llm", Type: domain.KindLLM, Config: domain.Config{UserPrompt: "hi", Model: "m"}},
		Context: map[string]any{"X": map[string]any{"email": "a@b"}},
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, map[string]any{"text": "hello"}, resp.Output)

	node := got["node"].(map[string]any)
	assert.Equal(t, "llm", node["id"])
	assert.Equal(t, "hi", node["userPrompt"], "node config is flattened on the wire")
	assert.Equal(t, map[string]any{"X": map[string]any{"email": "a@b"}}, got["context"])
}

func TestClient_ServiceFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success": false, "error": "model overloaded"}`))
	}))
	defer srv.Close()

	resp, err := remote.New(srv.URL).Execute(context.Background(), domain.ExecutionRequest{Node: domain.Node{ID: "n"}})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "model overloaded", resp.Error)
}

func TestClient_UndecodableError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := remote.New(srv.URL).Execute(context.Background(), domain.ExecutionRequest{Node: domain.Node{ID: "n"}})
	assert.ErrorIs(t, err, remote.ErrUnexpectedStatus)
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	_, err := remote.New(srv.URL, remote.WithTimeout(20*time.Millisecond)).
		Execute(context.Background(), domain.ExecutionRequest{Node: domain.Node{ID: "n"}})
	assert.ErrorContains(t, err, "unreachable")
}

func TestClient_TimeoutLeavesSharedClientAlone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	shared := &http.Client{}
	_, err := remote.New(srv.URL, remote.WithHTTPClient(shared), remote.WithTimeout(20*time.Millisecond)).
		Execute(context.Background(), domain.ExecutionRequest{Node: domain.Node{ID: "n"}})
	assert.ErrorContains(t, err, "unreachable")
	assert.Zero(t, shared.Timeout)

	assert.NotPanics(t, func() {
		remote.New(srv.URL, remote.WithHTTPClient(nil), remote.WithTimeout(time.Second))
	})
}

func TestClient_ErrorSnippetKeepsRunes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "x"+strings.Repeat("é", 300), http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := remote.New(srv.URL).Execute(context.Background(), domain.ExecutionRequest{Node: domain.Node{ID: "n"}})
	require.ErrorIs(t, err, remote.ErrUnexpectedStatus)
	assert.True(t, utf8.ValidString(err.Error()))
	assert.True(t, strings.HasSuffix(err.Error(), "..."))
}
