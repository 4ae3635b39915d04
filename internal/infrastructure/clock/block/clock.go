package blockclock

import (
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ark-network/oracle/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

const (
	tipHeightEndpoint   = "/blocks/tip/height"
	defaultPollInterval = 10 * time.Second
)

// clock reports the chain tip height as seen by an esplora instance. The
// height is polled in background and never decreases, so a reorg or a
// lagging explorer cannot move a resolver back in time.
type clock struct {
	tipURL       string
	pollInterval time.Duration
	client       *http.Client
	height       atomic.Int64
	stopCh       chan struct{}
	wg           sync.WaitGroup
}

func NewClock(esploraURL string, pollInterval time.Duration) (ports.ClockService, error) {
	if len(esploraURL) == 0 {
		return nil, fmt.Errorf("esplora URL is required")
	}

	tipURL, err := url.JoinPath(esploraURL, tipHeightEndpoint)
	if err != nil {
		return nil, err
	}
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	return &clock{
		tipURL:       tipURL,
		pollInterval: pollInterval,
		client:       &http.Client{Timeout: 10 * time.Second},
		stopCh:       make(chan struct{}),
	}, nil
}

func (c *clock) Now() int64 {
	return c.height.Load()
}

func (c *clock) Unit() ports.TimeUnit {
	return ports.BlockHeight
}

// Start fails if the first tip height can't be fetched.
func (c *clock) Start() error {
	if err := c.refresh(); err != nil {
		return fmt.Errorf("failed to fetch tip height: %w", err)
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		ticker := time.NewTicker(c.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-c.stopCh:
				return
			case <-ticker.C:
				if err := c.refresh(); err != nil {
					log.WithError(err).Warn("failed to fetch tip height")
				}
			}
		}
	}()
	return nil
}

func (c *clock) Stop() {
	close(c.stopCh)
	c.wg.Wait()
}

func (c *clock) refresh() error {
	tip, err := c.fetchTipHeight()
	if err != nil {
		return err
	}

	for {
		current := c.height.Load()
		if tip <= current {
			return nil
		}
		if c.height.CompareAndSwap(current, tip) {
			return nil
		}
	}
}

func (c *clock) fetchTipHeight() (int64, error) {
	resp, err := c.client.Get(c.tipURL)
	if err != nil {
		return 0, err
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var tip int64
	if _, err := fmt.Fscanf(resp.Body, "%d", &tip); err != nil {
		return 0, err
	}

	log.Debugf("fetching tip height from %s, got %d", c.tipURL, tip)

	return tip, nil
}
