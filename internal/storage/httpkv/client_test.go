package httpkv

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timevault/timevault/internal/storage"
	"github.com/timevault/timevault/pkg/api"
)

// fakeServer mimics the server KV API backed by a plain map.
func fakeServer(t *testing.T, data map[string][]byte) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req api.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		if req.AccessKey != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: "invalid access key"})
			return
		}
		_ = json.NewEncoder(w).Encode(api.LoginResponse{
			AccessToken: "test-token",
			TokenType:   "Bearer",
			ExpiresIn:   3600,
		})
	})

	requireToken := func(w http.ResponseWriter, r *http.Request) bool {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: "unauthorized"})
			return false
		}
		return true
	}

	mux.HandleFunc("/api/v1/kv/{key}", func(w http.ResponseWriter, r *http.Request) {
		if !requireToken(w, r) {
			return
		}
		key := r.PathValue("key")

		switch r.Method {
		case http.MethodGet, http.MethodHead:
			value, ok := data[key]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			if r.Method == http.MethodGet {
				_, _ = w.Write(value)
			}
		case http.MethodPut:
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			data[key] = body
			w.WriteHeader(http.StatusNoContent)
		case http.MethodDelete:
			delete(data, key)
			w.WriteHeader(http.StatusNoContent)
		}
	})

	mux.HandleFunc("GET /api/v1/kv", func(w http.ResponseWriter, r *http.Request) {
		if !requireToken(w, r) {
			return
		}
		pattern := r.URL.Query().Get("pattern")
		keys := []string{}
		for k := range data {
			if storage.MatchKey(pattern, k) {
				keys = append(keys, k)
			}
		}
		_ = json.NewEncoder(w).Encode(api.KeysResponse{Keys: keys})
	})

	mux.HandleFunc("POST /api/v1/kv/clear", func(w http.ResponseWriter, r *http.Request) {
		if !requireToken(w, r) {
			return
		}
		for k := range data {
			delete(data, k)
		}
		w.WriteHeader(http.StatusNoContent)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestLogin_Success(t *testing.T) {
	srv := fakeServer(t, map[string][]byte{})

	resp, err := Login(context.Background(), srv.URL, "secret")
	require.NoError(t, err)
	assert.Equal(t, "test-token", resp.AccessToken)
	assert.Equal(t, "Bearer", resp.TokenType)
}

func TestLogin_InvalidKey(t *testing.T) {
	srv := fakeServer(t, map[string][]byte{})

	_, err := Login(context.Background(), srv.URL, "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid access key")
}

func TestClient_SetGet(t *testing.T) {
	ctx := context.Background()
	data := map[string][]byte{}
	srv := fakeServer(t, data)
	client := New(srv.URL, "test-token")

	require.NoError(t, client.Set(ctx, "activity:a1", []byte("payload")))

	value, err := client.Get(ctx, "activity:a1")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), value)
}

func TestClient_GetNotFound(t *testing.T) {
	srv := fakeServer(t, map[string][]byte{})
	client := New(srv.URL, "test-token")

	_, err := client.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestClient_Unauthorized(t *testing.T) {
	srv := fakeServer(t, map[string][]byte{})
	client := New(srv.URL, "bad-token")

	_, err := client.Get(context.Background(), "k")
	assert.ErrorIs(t, err, storage.ErrStorageFailure)
}

func TestClient_SetToken(t *testing.T) {
	srv := fakeServer(t, map[string][]byte{"k": []byte("v")})
	client := New(srv.URL, "bad-token")
	client.SetToken("test-token")

	value, err := client.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), value)
}

func TestClient_Exists(t *testing.T) {
	ctx := context.Background()
	srv := fakeServer(t, map[string][]byte{"k": []byte("v")})
	client := New(srv.URL, "test-token")

	found, err := client.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)

	found, err = client.Exists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestClient_Delete(t *testing.T) {
	ctx := context.Background()
	data := map[string][]byte{"k": []byte("v")}
	srv := fakeServer(t, data)
	client := New(srv.URL, "test-token")

	require.NoError(t, client.Delete(ctx, "k"))
	assert.Empty(t, data)

	// Deleting an absent key is not an error.
	require.NoError(t, client.Delete(ctx, "k"))
}

func TestClient_Keys(t *testing.T) {
	ctx := context.Background()
	srv := fakeServer(t, map[string][]byte{
		"activity:a1": []byte("1"),
		"activity:a2": []byte("2"),
		"timeslot:s1": []byte("3"),
	})
	client := New(srv.URL, "test-token")

	keys, err := client.Keys(ctx, "activity:*")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"activity:a1", "activity:a2"}, keys)
}

func TestClient_Clear(t *testing.T) {
	ctx := context.Background()
	data := map[string][]byte{"a": []byte("1"), "b": []byte("2")}
	srv := fakeServer(t, data)
	client := New(srv.URL, "test-token")

	require.NoError(t, client.Clear(ctx))
	assert.Empty(t, data)
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listens anymore

	client := New(srv.URL, "test-token")

	_, err := client.Get(context.Background(), "k")
	assert.ErrorIs(t, err, storage.ErrNetwork)
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	client := New(srv.URL, "test-token")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Get(ctx, "k")
	assert.ErrorIs(t, err, storage.ErrTimeout)
}
