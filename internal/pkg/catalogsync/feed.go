package catalogsync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/SubTrackr/internal/pkg/env"
)

const defaultFeedURL = "https://api-gestion-suscripciones.vercel.app/suscripciones"

// maxFeedBytes is the default cap on a feed response body.
const maxFeedBytes = 32 << 20

// FeedText is a feed field that may arrive as a JSON string, number or bool.
type FeedText string

func (t *FeedText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = FeedText(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*t = FeedText(n.String())
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*t = FeedText(strconv.FormatBool(b))
		return nil
	}
	return fmt.Errorf("unsupported feed value %s", string(data))
}

func (t FeedText) String() string { return string(t) }

// FeedRecord is one plan entry of the upstream feed.
type FeedRecord struct {
	Category         FeedText `json:"Categoria"`
	Service          FeedText `json:"Plataforma_Servicio"`
	PlanID           FeedText `json:"ID_Plan"`
	PlanName         FeedText `json:"Nombre_Plan"`
	BasePrice        FeedText `json:"Precio_Base"`
	Currency         FeedText `json:"Moneda"`
	BillingFrequency FeedText `json:"Frecuencia_Facturacion"`
	Features         FeedText `json:"Caracteristicas"`
	TrialAvailable   FeedText `json:"Trial_Disponible"`
	Country          FeedText `json:"Disponible_En_Pais"`
}

// Feed is a decoded feed together with the raw response body.
type Feed struct {
	Records []FeedRecord
	Raw     []byte
}

// TransportError reports a feed that could not be fetched or decoded.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("catalog feed %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("catalog feed %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// FeedClient fetches the upstream plans feed.
type FeedClient struct {
	URL        string
	HTTPClient *http.Client
	// MaxBytes caps the response body; zero means maxFeedBytes.
	MaxBytes int64
}

func (c *FeedClient) maxBytes() int64 {
	if c.MaxBytes > 0 {
		return c.MaxBytes
	}
	return maxFeedBytes
}

// NewFeedClient creates a client for url. A zero timeout means no limit.
func NewFeedClient(url string, timeout time.Duration) *FeedClient {
	return &FeedClient{
		URL:        url,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// NewFeedClientFromEnv reads CATALOG_FEED_URL and CATALOG_FEED_TIMEOUT.
func NewFeedClientFromEnv() *FeedClient {
	url := strings.TrimSpace(env.GetEnv("CATALOG_FEED_URL", defaultFeedURL))
	var timeout time.Duration
	if raw := strings.TrimSpace(env.GetEnv("CATALOG_FEED_TIMEOUT", "")); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			log.Warnf("[CatalogSync] Invalid CATALOG_FEED_TIMEOUT %q, fetching without timeout", raw)
		} else {
			timeout = d
		}
	}
	return NewFeedClient(url, timeout)
}

// Fetch downloads and decodes the whole feed. Every failure is a *TransportError.
func (c *FeedClient) Fetch(ctx context.Context) (*Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, &TransportError{URL: c.URL, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &TransportError{URL: c.URL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes()+1))
	if err != nil {
		return nil, &TransportError{URL: c.URL, StatusCode: resp.StatusCode, Err: err}
	}
	if int64(len(body)) > c.maxBytes() {
		return nil, &TransportError{
			URL:        c.URL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("feed exceeds %d bytes", c.maxBytes()),
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{
			URL:        c.URL,
			StatusCode: resp.StatusCode,
			Err:        errors.New("unexpected response status"),
		}
	}

	var records []FeedRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, &TransportError{URL: c.URL, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode feed: %w", err)}
	}
	return &Feed{Records: records, Raw: body}, nil
}
