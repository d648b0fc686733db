package reporter

import (
	"context"
	"fmt"
	"math"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultCollectEndpoint is the Universal Analytics Measurement Protocol endpoint.
const DefaultCollectEndpoint = "https://www.google-analytics.com/collect"

// CollectConfig configures the Measurement Protocol sink.
type CollectConfig struct {
	Endpoint   string
	TrackingID string
	UserAgent  string
	Timeout    time.Duration
}

// CollectSink posts hits to a Measurement Protocol v1 collector.
type CollectSink struct {
	cfg    CollectConfig
	client *http.Client
	now    func() time.Time
}

// NewCollect builds a CollectSink. Endpoint and timeout fall back to defaults.
func NewCollect(cfg CollectConfig) *CollectSink {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultCollectEndpoint
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &CollectSink{cfg: cfg, client: newHTTPClient(cfg.Timeout), now: time.Now}
}

func (c *CollectSink) Name() string { return "collect" }

func (c *CollectSink) Send(ctx context.Context, h *Hit) error {
	body := c.encode(h).Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("build collect request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if ua := c.cfg.UserAgent; ua != "" {
		req.Header.Set("User-Agent", ua)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("collect: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("collect failed: http %d", resp.StatusCode)
	}
	return nil
}

// encode maps a hit onto Measurement Protocol parameters.
func (c *CollectSink) encode(h *Hit) url.Values {
	v := url.Values{}
	v.Set("v", "1")
	v.Set("tid", c.cfg.TrackingID)
	v.Set("cid", h.ClientID)
	v.Set("t", string(h.Type))
	v.Set("ds", "web")
	if h.Page != "" {
		v.Set("dp", h.Page)
	}
	if qt := c.now().Sub(h.Timestamp).Milliseconds(); qt > 0 {
		v.Set("qt", strconv.FormatInt(qt, 10))
	}

	switch h.Type {
	case HitEvent:
		v.Set("ec", h.Category)
		v.Set("ea", h.Action)
		if h.Label != "" {
			v.Set("el", h.Label)
		}
		if h.Value != nil {
			v.Set("ev", strconv.FormatInt(int64(math.Round(*h.Value)), 10))
		}
		if h.NonInteraction {
			v.Set("ni", "1")
		}
	case HitException:
		v.Set("exd", h.Description)
		if h.Fatal {
			v.Set("exf", "1")
		} else {
			v.Set("exf", "0")
		}
	}

	for k, val := range h.Dimensions {
		if idx, ok := dimensionIndex(k); ok {
			v.Set("cd"+idx, val)
		}
	}
	return v
}

// dimensionIndex turns "dimension7" into "7".
func dimensionIndex(key string) (string, bool) {
	idx, ok := strings.CutPrefix(key, "dimension")
	if !ok || idx == "" {
		return "", false
	}
	n, err := strconv.Atoi(idx)
	if err != nil || n < 1 {
		return "", false
	}
	return idx, true
}

func newHTTPClient(timeout time.Duration) *http.Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: tr}
}
