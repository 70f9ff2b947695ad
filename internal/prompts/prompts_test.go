// internal/prompts/prompts_test.go
package prompts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValid(t *testing.T) {
	assert.True(t, Valid("The worst pizza topping: ____"))
	assert.True(t, Valid("____")) // marker alone is degenerate but well-formed

	assert.False(t, Valid(""))
	assert.False(t, Valid("No blank marker here"))
	assert.False(t, Valid("Marker in the middle ____ not at the end"))
	assert.False(t, Valid("A way too long prompt "+strings.Repeat("x", MaxPromptLen)+" ____"))
}

func TestBuiltinAllValid(t *testing.T) {
	set := Builtin()
	require.NotEmpty(t, set)
	for _, p := range set {
		assert.True(t, Valid(p), "builtin prompt %q", p)
	}

	// Builtin hands out a copy.
	set[0] = "mutated"
	assert.NotEqual(t, set[0], Builtin()[0])
}

func TestFallbackAnswer(t *testing.T) {
	assert.Equal(t, FallbackAnswer(3), FallbackAnswer(3))
	assert.NotEmpty(t, FallbackAnswer(0))
	// Negative seeds are tolerated.
	assert.Equal(t, FallbackAnswer(5), FallbackAnswer(-5))
}

func TestClientFetchPrompts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/prompts", r.URL.Path)

		var req struct {
			Difficulty string `json:"difficulty"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "spicy", req.Difficulty)

		json.NewEncoder(w).Encode(map[string]any{
			"prompts": []string{"A bad idea: ____", "A worse idea: ____"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	got, err := c.FetchPrompts(ctx, "spicy")
	require.NoError(t, err)
	assert.Equal(t, []string{"A bad idea: ____", "A worse idea: ____"}, got)
}

func TestClientFetchPromptsErrors(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer failing.Close()

	_, err := NewClient(failing.URL).FetchPrompts(context.Background(), "normal")
	assert.Error(t, err)

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"prompts": []string{}})
	}))
	defer empty.Close()

	_, err = NewClient(empty.URL).FetchPrompts(context.Background(), "normal")
	assert.Error(t, err)
}

func TestClientGenerateAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/answers", r.URL.Path)

		var req struct {
			Prompt string `json:"prompt"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "A bad idea: ____", req.Prompt)

		json.NewEncoder(w).Encode(map[string]any{"answer": "  a second moon  "})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	got, err := c.GenerateAnswer(context.Background(), "A bad idea: ____")
	require.NoError(t, err)
	assert.Equal(t, "a second moon", got)
}

func TestClientGenerateAnswerEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"answer": "   "})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.GenerateAnswer(context.Background(), "prompt: ____")
	assert.Error(t, err)
}
