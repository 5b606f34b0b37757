// Package catalog fetches the remote recipe catalog and decodes it into recipes.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/croustipeze/cookbook/internal/errors"
	"github.com/croustipeze/cookbook/internal/httpclient"
	"github.com/croustipeze/cookbook/internal/metrics"
	"github.com/croustipeze/cookbook/internal/recipe"
	"github.com/croustipeze/cookbook/internal/validation"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MaxDocumentSize caps the catalog body read into memory.
const MaxDocumentSize = 32 << 20

// Fetcher retrieves the full catalog from url.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]recipe.Recipe, error)
}

// Client is a Fetcher backed by a single HTTP GET per call.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a catalog client whose requests time out after timeout.
func NewClient(timeout time.Duration) *Client {
	return &Client{httpClient: httpclient.New(timeout)}
}

// NewClientWithHTTP creates a catalog client around an existing http.Client.
func NewClientWithHTTP(c *http.Client) *Client {
	return &Client{httpClient: c}
}

// Fetch downloads the catalog and returns its recipes in document order.
// Transport failures and non-2xx responses are FETCH_ERRORs; anything wrong
// with the body is a PARSE_ERROR and no recipes are returned.
func (c *Client) Fetch(ctx context.Context, url string) (recipes []recipe.Recipe, err error) {
	start := time.Now()
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
			if appErr, ok := errors.As(err); ok {
				status = strings.ToLower(string(appErr.Type))
			}
		}
		duration := time.Since(start).Seconds()
		attrs := []attribute.KeyValue{attribute.String("upstream", "catalog")}
		metrics.CatalogFetchesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
		metrics.CatalogFetchDuration.Record(ctx, duration)
		metrics.ExternalAPICallsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
		metrics.ExternalAPIDuration.Record(ctx, duration, metric.WithAttributes(attrs...))
	}()

	req, err := http.NewRequestWithContext(httpclient.WithUpstream(ctx, "catalog"), http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.NewFetchError("invalid catalog request", "CATALOG_BAD_REQUEST", 0, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		code := "CATALOG_UNREACHABLE"
		if stderrors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			code = "CATALOG_TIMEOUT"
		}
		return nil, errors.NewFetchError("catalog request failed", code, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, errors.NewFetchError(
			fmt.Sprintf("catalog endpoint returned status %d", resp.StatusCode),
			"CATALOG_HTTP_STATUS",
			resp.StatusCode,
			nil,
		)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxDocumentSize+1))
	if err != nil {
		return nil, errors.NewFetchError("failed to read catalog body", "CATALOG_READ_FAILED", resp.StatusCode, err)
	}
	if len(body) > MaxDocumentSize {
		return nil, errors.NewParseError("catalog document is too large", "CATALOG_TOO_LARGE", nil)
	}

	recipes, err = Decode(body)
	if err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "Fetched recipe catalog", "url", url, "recipes", len(recipes))
	return recipes, nil
}

// wireRecipe detects missing or mistyped required members.
type wireRecipe struct {
	Name      *string  `json:"name"`
	Category  *string  `json:"category"`
	Location  *string  `json:"location"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (w wireRecipe) missing() []string {
	var out []string
	if w.Name == nil {
		out = append(out, "name")
	}
	if w.Category == nil {
		out = append(out, "category")
	}
	if w.Location == nil {
		out = append(out, "location")
	}
	if w.Latitude == nil {
		out = append(out, "latitude")
	}
	if w.Longitude == nil {
		out = append(out, "longitude")
	}
	return out
}

// Decode parses a catalog document. It is all-or-nothing: the first invalid
// element fails the whole document with a PARSE_ERROR.
func Decode(body []byte) ([]recipe.Recipe, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errors.NewParseError("catalog document is not a JSON array", "CATALOG_NOT_ARRAY", nil)
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, errors.NewParseError("catalog document is not valid JSON", "CATALOG_INVALID_JSON", err)
	}

	recipes := make([]recipe.Recipe, 0, len(elems))
	for i, raw := range elems {
		var w wireRecipe
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, errors.NewParseError(fmt.Sprintf("recipe %d does not match the catalog schema", i), "CATALOG_SCHEMA_MISMATCH", err)
		}
		if missing := w.missing(); len(missing) > 0 {
			return nil, errors.NewParseError(
				fmt.Sprintf("recipe %d is missing %s", i, strings.Join(missing, ", ")),
				"CATALOG_SCHEMA_MISMATCH",
				nil,
			)
		}

		var r recipe.Recipe
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, errors.NewParseError(fmt.Sprintf("recipe %d does not match the catalog schema", i), "CATALOG_SCHEMA_MISMATCH", err)
		}
		if issues := validation.ValidateRecipe(i, r); len(issues) > 0 {
			return nil, errors.NewParseError(issues[0].String(), "CATALOG_SCHEMA_MISMATCH", nil)
		}
		recipes = append(recipes, r)
	}
	return recipes, nil
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return stderrors.As(err, &t) && t.Timeout()
}
