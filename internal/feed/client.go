package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"sync"

	"github.com/Joshua-96/MVG-tracker/internal/config"
)

// Batch-level failures. Per-station failures never surface as errors;
// they yield a nil entry in the result slice instead.
var (
	ErrBatchTransport = errors.New("feed: batch transport failure")
	ErrBatchTimeout   = errors.New("feed: batch timeout")
)

// Client fetches per-station departure payloads from the feed endpoint.
type Client struct {
	client      *http.Client
	urlTemplate string
	logger      *log.Logger
}

// NewClient creates a feed client from the service configuration.
func NewClient(cfg config.Config, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		client: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		urlTemplate: cfg.FeedURLTemplate,
		logger:      logger,
	}
}

// FetchChunk issues one concurrent request per station identifier and
// returns a result slice parallel to the input, preserving order. A
// non-2xx status, transport error or malformed body for a single station
// yields a nil entry for that station only. Only when every request in
// the chunk fails at the transport level is a classified batch error
// returned.
func (c *Client) FetchChunk(ctx context.Context, globalIDs []string) ([]*StationResponse, error) {
	results := make([]*StationResponse, len(globalIDs))
	transport := make([]error, len(globalIDs))

	var wg sync.WaitGroup
	for i, id := range globalIDs {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			resp, err := c.fetchStation(ctx, id)
			if err != nil {
				transport[i] = err
				return
			}
			results[i] = resp
		}(i, id)
	}
	wg.Wait()

	failed, timedOut := 0, 0
	for _, err := range transport {
		if err == nil {
			continue
		}
		failed++
		if isTimeout(err) {
			timedOut++
		}
	}
	if len(globalIDs) > 0 && failed == len(globalIDs) {
		if timedOut*2 >= failed {
			return nil, fmt.Errorf("%w: %v", ErrBatchTimeout, transport[0])
		}
		return nil, fmt.Errorf("%w: %v", ErrBatchTransport, transport[0])
	}

	return results, nil
}

// fetchStation performs one GET against the feed. A non-200 status or an
// undecodable body returns (nil, nil): no data for this station this cycle.
func (c *Client) fetchStation(ctx context.Context, globalID string) (*StationResponse, error) {
	endpoint := fmt.Sprintf(c.urlTemplate, url.QueryEscape(globalID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Printf("feed: bad response %d for station %s", resp.StatusCode, globalID)
		io.Copy(io.Discard, resp.Body)
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var station StationResponse
	if err := json.Unmarshal(body, &station); err != nil {
		c.logger.Printf("feed: malformed payload for station %s: %v", globalID, err)
		return nil, nil
	}
	return &station, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
