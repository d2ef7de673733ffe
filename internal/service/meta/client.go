package meta

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"TickPull/internal/domain/models"
	"TickPull/pkg/httpx"
	"TickPull/pkg/logger"
)

// Client fetches the provider's instrument list. The payload arrives wrapped
// in a JSONP callback envelope which has to be stripped before parsing.
type Client struct {
	url        string
	referer    string
	retryCount int
	http       *httpx.Client
	log        *logger.Logger
}

// NewClient creates a metadata client.
func NewClient(url, referer string, retryCount int, hc *httpx.Client, log *logger.Logger) *Client {
	return &Client{
		url:        url,
		referer:    referer,
		retryCount: retryCount,
		http:       hc,
		log:        log,
	}
}

// FetchRaw downloads the instrument list and returns the bare JSON document,
// retrying up to the configured count.
func (c *Client) FetchRaw(ctx context.Context) ([]byte, error) {
	var lastErr error
	attempts := c.retryCount
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		raw, err := c.fetchOnce(ctx)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		c.log.Debug("meta fetch attempt failed",
			logger.Int("attempt", i+1),
			logger.Error(err))
	}
	return nil, fmt.Errorf("fetch instrument metadata: %w", lastErr)
}

func (c *Client) fetchOnce(ctx context.Context) ([]byte, error) {
	status, body, err := c.http.Get(ctx, c.url, map[string]string{"Referer": c.referer})
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", status)
	}
	return StripJSONP(body)
}

// StripJSONP removes the callback envelope around a JSON document.
func StripJSONP(b []byte) ([]byte, error) {
	open := bytes.IndexByte(b, '(')
	end := bytes.LastIndexByte(b, ')')
	if open < 0 || end < open {
		return nil, fmt.Errorf("no jsonp envelope in %d-byte payload", len(b))
	}
	return b[open+1 : end], nil
}

type instrumentEntry struct {
	PipValue     *float64 `json:"pipValue"`
	HistoryStart *string  `json:"history_start_tick"`
}

type instrumentDoc struct {
	Instruments map[string]instrumentEntry `json:"instruments"`
}

// ParseInstruments builds the symbol->meta map from a bare JSON document.
// Entries missing pipValue or the history start are skipped. Keys are
// uppercased with the "/" separator removed, matching how symbols appear in
// tick file URLs.
func ParseInstruments(raw []byte) (map[string]models.InstrumentMeta, error) {
	var doc instrumentDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse instruments: %w", err)
	}

	out := make(map[string]models.InstrumentMeta, len(doc.Instruments))
	for name, entry := range doc.Instruments {
		if entry.PipValue == nil || entry.HistoryStart == nil || *entry.PipValue == 0 {
			continue
		}
		ms, err := strconv.ParseInt(*entry.HistoryStart, 10, 64)
		if err != nil {
			continue
		}
		symbol := strings.ToUpper(strings.ReplaceAll(name, "/", ""))
		out[symbol] = models.InstrumentMeta{
			Symbol:       symbol,
			PriceScale:   10 / *entry.PipValue,
			HistoryStart: time.UnixMilli(ms).UTC(),
		}
	}
	return out, nil
}
