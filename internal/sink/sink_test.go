package sink

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boomdev/boom-scraper/internal/models"
)

func sampleRecord() *models.ProductRecord {
	return &models.ProductRecord{
		Title:       "Test Product",
		Price:       "19.99",
		Currency:    "USD",
		Images:      []string{"https://img.temu.com/image1.jpg"},
		Category:    "Accessories",
		Description: "A great test product",
		SourceURL:   "https://www.temu.com/test-product.html",
		URL:         "https://www.temu.com/test-product.html",
	}
}

func TestPostDeliversValidatedRecord(t *testing.T) {
	var gotRecord models.ProductRecord
	var gotContentType, gotAPIKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotAPIKey = r.Header.Get("X-API-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRecord))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"abc"}`))
	}))
	defer server.Close()

	poster := New(server.URL, Options{APIKey: "secret-key"})
	ok, resp, err := poster.Post(context.Background(), sampleRecord())

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.JSONEq(t, `{"id":"abc"}`, string(resp.Body))
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "secret-key", gotAPIKey)
	assert.Equal(t, "Test Product", gotRecord.Title)
}

func TestPostSendsBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	poster := New(server.URL, Options{BearerToken: "tok123"})
	ok, _, err := poster.Post(context.Background(), sampleRecord())

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Bearer tok123", gotAuth)
}

func TestPostRejectsInvalidRecordWithoutRequest(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	record := sampleRecord()
	record.Title = ""

	poster := New(server.URL, Options{})
	ok, resp, err := poster.Post(context.Background(), record)

	assert.False(t, ok)
	assert.Nil(t, resp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation")
	assert.Zero(t, requests)
}

func TestPostServerErrorReturnsResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	poster := New(server.URL, Options{})
	ok, resp, err := poster.Post(context.Background(), sampleRecord())

	assert.False(t, ok)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestPostNetworkFailure(t *testing.T) {
	poster := New("http://127.0.0.1:1", Options{Timeout: 200 * time.Millisecond})
	ok, resp, err := poster.Post(context.Background(), sampleRecord())

	assert.False(t, ok)
	assert.Nil(t, resp)
	assert.Error(t, err)
}

func TestHealthCheck(t *testing.T) {
	healthy := true
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		if healthy {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer server.Close()

	poster := New(server.URL, Options{})
	assert.True(t, poster.HealthCheck(context.Background()))

	healthy = false
	assert.False(t, poster.HealthCheck(context.Background()))
}
