package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSuccess(t *testing.T) {
	var gotReq generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(generateResponse{Response: "  hello there  ", Done: true})
	}))
	defer srv.Close()

	c := NewOllamaClient(nil)
	out, err := c.Generate(context.Background(), "sys", "user prompt", GenerationConfig{
		Model:       "gemma3:1b",
		BaseURL:     srv.URL,
		Temperature: 0.2,
		MaxTokens:   256,
	})
	require.NoError(t, err)
	assert.Equal(t, "hello there", out, "completion should be trimmed")
	assert.Equal(t, "gemma3:1b", gotReq.Model)
	assert.Equal(t, "sys", gotReq.System)
	assert.Equal(t, "user prompt", gotReq.Prompt)
	assert.False(t, gotReq.Stream)
	assert.Equal(t, 256, gotReq.Options.NumPredict)
}

func TestGenerateEmptyCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(generateResponse{Response: "   \n\t ", Done: true})
	}))
	defer srv.Close()

	c := NewOllamaClient(nil)
	_, err := c.Generate(context.Background(), "", "p", GenerationConfig{BaseURL: srv.URL})
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestGenerateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewOllamaClient(nil)
	_, err := c.Generate(context.Background(), "", "p", GenerationConfig{BaseURL: srv.URL})
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "404")
}

func TestGenerateUnreachableEndpoint(t *testing.T) {
	c := NewOllamaClient(nil)
	_, err := c.Generate(context.Background(), "", "p", GenerationConfig{
		BaseURL: "http://127.0.0.1:1", // nothing listens here
	})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestGenerateTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := NewOllamaClient(nil)
	start := time.Now()
	_, err := c.Generate(context.Background(), "", "p", GenerationConfig{
		BaseURL: srv.URL,
		Timeout: 50 * time.Millisecond,
	})
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), time.Second, "single attempt, no retry loop")
}

func TestGenerateErrorField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(generateResponse{Error: "model overloaded"})
	}))
	defer srv.Close()

	c := NewOllamaClient(nil)
	_, err := c.Generate(context.Background(), "", "p", GenerationConfig{BaseURL: srv.URL})
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestGenerateStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.True(t, req.Stream)

		enc := json.NewEncoder(w)
		for _, chunk := range []string{"Hel", "lo, ", "world"} {
			enc.Encode(generateResponse{Response: chunk})
		}
		enc.Encode(generateResponse{Done: true})
	}))
	defer srv.Close()

	c := NewOllamaClient(nil)
	ch, err := c.GenerateStream(context.Background(), "", "p", GenerationConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	var got string
	for chunk := range ch {
		got += chunk
	}
	assert.Equal(t, "Hello, world", got)
}

func TestGenerateStreamSkipsMalformedLines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"response":"ok "}`)
		fmt.Fprintln(w, `{not json at all`)
		fmt.Fprintln(w, `{"response":"fine","done":true}`)
	}))
	defer srv.Close()

	c := NewOllamaClient(nil)
	ch, err := c.GenerateStream(context.Background(), "", "p", GenerationConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	var got string
	for chunk := range ch {
		got += chunk
	}
	assert.Equal(t, "ok fine", got)
}
