package fetch_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-metadata/pkg/formmeta/fetch"
)

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("remote body"))
	}))
	defer server.Close()

	body, err := fetch.New().Fetch(context.Background(), server.URL+"/cat.png")
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "remote body", string(data))
}

func TestFetchNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := fetch.New().Fetch(context.Background(), server.URL+"/missing.png")
	assert.Error(t, err)
}

func TestFetchTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	_, err := fetch.New(fetch.WithTimeout(10 * time.Millisecond)).Fetch(context.Background(), server.URL)
	assert.Error(t, err)
}

func TestFetchBadURI(t *testing.T) {
	_, err := fetch.New().Fetch(context.Background(), "http://\x00bad")
	assert.Error(t, err)
}
