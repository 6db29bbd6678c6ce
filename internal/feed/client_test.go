package feed

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Joshua-96/MVG-tracker/internal/config"
)

func testClient(serverURL string, timeout time.Duration) *Client {
	cfg := config.Config{
		FeedURLTemplate: serverURL + "/departure?globalId=%s",
		RequestTimeout:  timeout,
	}
	return NewClient(cfg, log.New(io.Discard, "", 0))
}

func TestFetchChunkPartialFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("globalId") {
		case "de:09162:1":
			w.Write([]byte(`{"departures": [{"label": "S8"}, {"label": "S3"}]}`))
		case "de:09162:2":
			w.WriteHeader(http.StatusServiceUnavailable)
		case "de:09162:3":
			w.Write([]byte(`{"departures": []}`))
		}
	}))
	defer server.Close()

	client := testClient(server.URL, time.Second)
	results, err := client.FetchChunk(context.Background(),
		[]string{"de:09162:1", "de:09162:2", "de:09162:3"})
	if err != nil {
		t.Fatalf("FetchChunk: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	// Order preserved; the 503 station is absent, not fatal.
	if results[0] == nil || len(results[0].Departures) != 2 {
		t.Errorf("station 1 should have 2 departures: %+v", results[0])
	}
	if results[1] != nil {
		t.Errorf("503 station should be absent, got %+v", results[1])
	}
	if results[2] == nil || len(results[2].Departures) != 0 {
		t.Errorf("station 3 should be present and empty: %+v", results[2])
	}
}

func TestFetchChunkMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"departures": [broken`))
	}))
	defer server.Close()

	client := testClient(server.URL, time.Second)
	results, err := client.FetchChunk(context.Background(), []string{"de:09162:1"})
	if err != nil {
		t.Fatalf("FetchChunk: %v", err)
	}
	if results[0] != nil {
		t.Errorf("malformed body should yield an absent result, got %+v", results[0])
	}
}

func TestFetchChunkBatchTransportError(t *testing.T) {
	// A closed server refuses every connection: the whole batch fails at
	// the transport level.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := testClient(server.URL, time.Second)
	_, err := client.FetchChunk(context.Background(), []string{"de:09162:1", "de:09162:2"})
	if !errors.Is(err, ErrBatchTransport) {
		t.Fatalf("expected ErrBatchTransport, got %v", err)
	}
}

func TestFetchChunkBatchTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	client := testClient(server.URL, 20*time.Millisecond)
	_, err := client.FetchChunk(context.Background(), []string{"de:09162:1", "de:09162:2"})
	if !errors.Is(err, ErrBatchTimeout) {
		t.Fatalf("expected ErrBatchTimeout, got %v", err)
	}
}

func TestFetchChunkEmptyInput(t *testing.T) {
	client := testClient("http://localhost:0", time.Second)
	results, err := client.FetchChunk(context.Background(), nil)
	if err != nil {
		t.Fatalf("FetchChunk(nil): %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}
