// Package translation provides the per-recipient translation gateway
// used by the message fan-out path. Failures never propagate:
// exhausted retries fall back to the original text so translation
// problems degrade to original-language delivery instead of blocking
// messages.
package translation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/thinkingjet/SpeakSync/internal/lang"
	"github.com/thinkingjet/SpeakSync/pkg/config"
)

// Translator translates text between languages. Implementations are
// total: on any failure the original text comes back unchanged.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) string
}

// Gateway calls the public translate endpoint with throttling, bounded
// timeouts and retry. Safe for concurrent use; the rate counter is the
// only shared mutable state and is mutex-guarded.
type Gateway struct {
	endpoint      string
	client        *http.Client
	maxRetries    uint64
	rateWindow    time.Duration
	rateThreshold int
	throttleDelay time.Duration
	logger        *zap.Logger

	mu           sync.Mutex
	requestCount int
	windowReset  time.Time
	lastRequest  time.Time
}

// NewGateway constructs a translation gateway from config.
func NewGateway(cfg *config.TranslationConfig, logger *zap.Logger) *Gateway {
	return &Gateway{
		endpoint:      cfg.Endpoint,
		client:        &http.Client{Timeout: cfg.RequestTimeout},
		maxRetries:    cfg.MaxRetries,
		rateWindow:    cfg.RateWindow,
		rateThreshold: cfg.RateThreshold,
		throttleDelay: cfg.ThrottleDelay,
		windowReset:   time.Now().Add(cfg.RateWindow),
		logger:        logger,
	}
}

// Translate returns text translated from sourceLang to targetLang.
// Empty text and same-language pairs (after canonicalization) short-
// circuit to the input. After retries are exhausted the original text
// is returned; translation failure must never block delivery.
func (g *Gateway) Translate(ctx context.Context, text, sourceLang, targetLang string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}

	src := lang.ShortCode(sourceLang)
	tgt := lang.ShortCode(targetLang)
	if src == tgt {
		return text
	}

	g.throttle()

	var translated string
	operation := func() error {
		out, err := g.request(ctx, text, src, tgt)
		if err != nil {
			return err
		}
		translated = out
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, g.maxRetries), ctx))
	if err != nil {
		g.logger.Warn("translation failed, falling back to original text",
			zap.String("source", src),
			zap.String("target", tgt),
			zap.Error(err),
		)
		return text
	}
	return translated
}

// throttle applies the simple sliding-window delay: when request
// volume in the current window is high and calls are arriving back to
// back, each call pays a fixed delay. A throttle, not a hard limiter.
func (g *Gateway) throttle() {
	g.mu.Lock()
	now := time.Now()
	if now.After(g.windowReset) {
		g.requestCount = 0
		g.windowReset = now.Add(g.rateWindow)
	}
	var delay time.Duration
	if g.requestCount > g.rateThreshold && now.Sub(g.lastRequest) < time.Second {
		delay = g.throttleDelay
	}
	g.requestCount++
	g.lastRequest = now
	g.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
}

func (g *Gateway) request(ctx context.Context, text, src, tgt string) (string, error) {
	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", src)
	q.Set("tl", tgt)
	q.Set("dt", "t")
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/94.0.4606.81 Safari/537.36")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("translation endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return parseResponse(body)
}

// parseResponse extracts the translated text from the endpoint's
// nested-array response: [[["translated","original",...],...],...].
func parseResponse(body []byte) (string, error) {
	var payload []any
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("malformed translation response: %w", err)
	}
	if len(payload) == 0 {
		return "", fmt.Errorf("malformed translation response: empty payload")
	}
	segments, ok := payload[0].([]any)
	if !ok {
		return "", fmt.Errorf("malformed translation response: unexpected segment list")
	}

	var parts []string
	for _, seg := range segments {
		pair, ok := seg.([]any)
		if !ok || len(pair) == 0 {
			continue
		}
		if chunk, ok := pair[0].(string); ok && chunk != "" {
			parts = append(parts, chunk)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("translation returned no text")
	}
	return strings.Join(parts, " "), nil
}
