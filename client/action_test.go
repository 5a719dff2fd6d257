package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/api/actions/transfer-sol", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("amount"))

		json.NewEncoder(w).Encode(ActionMetadata{
			Title: "Transfer SOL",
			Icon:  "http://example.com/icon.svg",
			Label: "Send SOL",
			Links: &ActionLinks{
				Actions: []LinkedAction{
					{Label: "Send 1 SOL", Href: "/api/actions/transfer-sol?amount=1"},
				},
			},
		})
	}))
	defer server.Close()

	c := NewClient(server.URL, nil, nil)

	query := url.Values{}
	query.Set("amount", "5")
	metadata, err := c.GetAction(context.Background(), "/api/actions/transfer-sol", query)

	require.NoError(t, err)
	assert.Equal(t, "Transfer SOL", metadata.Title)
	require.NotNil(t, metadata.Links)
	require.Len(t, metadata.Links.Actions, 1)
}

func TestPostAction(t *testing.T) {
	const account = "SysvarC1ock11111111111111111111111111111111"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req struct {
			Account string `json:"account"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, account, req.Account)

		json.NewEncoder(w).Encode(ActionTransaction{
			Transaction: "AAAA",
			Message:     "Send 1 SOL",
		})
	}))
	defer server.Close()

	c := NewClient(server.URL, nil, nil)

	txn, err := c.PostAction(context.Background(), "/api/actions/transfer-sol", nil, account)
	require.NoError(t, err)
	assert.Equal(t, "AAAA", txn.Transaction)
	assert.Equal(t, "Send 1 SOL", txn.Message)
}

func TestPostAction_PlainTextError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`Invalid "account" provided`))
	}))
	defer server.Close()

	c := NewClient(server.URL, nil, nil)

	_, err := c.PostAction(context.Background(), "/api/actions/memo", nil, "bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), `Invalid "account" provided`)
}

func TestGetAction_EmptyErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewClient(server.URL, nil, nil)

	_, err := c.GetAction(context.Background(), "/api/actions/memo", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := NewClient(server.URL, nil, nil)
	require.NoError(t, c.Health(context.Background()))
}

func TestHealth_Unhealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := NewClient(server.URL, nil, nil)
	require.Error(t, c.Health(context.Background()))
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	c := NewClient("http://localhost:8080/", nil, nil)
	assert.Equal(t, "http://localhost:8080", c.baseURL)
}
