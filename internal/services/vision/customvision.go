package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/croustipeze/cookbook/internal/errors"
	"github.com/croustipeze/cookbook/internal/httpclient"
	"github.com/croustipeze/cookbook/internal/metrics"
	"github.com/croustipeze/cookbook/internal/utils"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// CustomVisionProvider classifies images with a published Azure Custom Vision iteration.
type CustomVisionProvider struct {
	endpoint      string
	projectID     string
	iteration     string
	predictionKey string
	httpClient    *http.Client
	retry         utils.RetryConfig
}

// NewCustomVisionProvider creates a provider for the given prediction resource.
func NewCustomVisionProvider(endpoint, projectID, iteration, predictionKey string) *CustomVisionProvider {
	return &CustomVisionProvider{
		endpoint:      strings.TrimRight(endpoint, "/"),
		projectID:     projectID,
		iteration:     iteration,
		predictionKey: predictionKey,
		httpClient:    httpclient.New(httpclient.DefaultTimeout),
		retry:         utils.DefaultRetryConfig(),
	}
}

// WithRetry replaces the retry policy.
func (p *CustomVisionProvider) WithRetry(cfg utils.RetryConfig) *CustomVisionProvider {
	p.retry = cfg
	return p
}

func (p *CustomVisionProvider) predictURL() string {
	return fmt.Sprintf("%s/customvision/v3.0/Prediction/%s/classify/iterations/%s/image",
		p.endpoint, url.PathEscape(p.projectID), url.PathEscape(p.iteration))
}

type prediction struct {
	TagName     string  `json:"tagName"`
	Probability float64 `json:"probability"`
}

// Classify sends the image bytes and returns the highest-probability tag.
func (p *CustomVisionProvider) Classify(ctx context.Context, image []byte) (Result, error) {
	if len(image) == 0 {
		return Result{}, errors.NewClassificationError("image is empty", "VISION_EMPTY_IMAGE", http.StatusBadRequest, nil)
	}

	startTime := time.Now()
	defer func() {
		duration := time.Since(startTime).Seconds()
		attrs := []attribute.KeyValue{attribute.String("upstream", "customvision")}
		metrics.ExternalAPIDuration.Record(ctx, duration, metric.WithAttributes(attrs...))
		metrics.ExternalAPICallsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	}()

	return utils.WithRetry(ctx, func(ctx context.Context) (Result, error) {
		return p.classifyOnce(ctx, image)
	}, p.retry)
}

func (p *CustomVisionProvider) classifyOnce(ctx context.Context, image []byte) (Result, error) {
	httpReq, err := http.NewRequestWithContext(httpclient.WithUpstream(ctx, "CustomVision"), http.MethodPost, p.predictURL(), bytes.NewReader(image))
	if err != nil {
		return Result{}, errors.NewClassificationError("failed to build prediction request", "VISION_BAD_REQUEST", http.StatusBadRequest, err)
	}
	httpReq.Header.Set("Prediction-Key", p.predictionKey)
	httpReq.Header.Set("Content-Type", "application/octet-stream")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return Result{}, errors.NewClassificationError("prediction request failed", "VISION_UNREACHABLE", 0, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, errors.NewClassificationError("failed to read prediction response", "VISION_READ_FAILED", 0, err)
	}

	if resp.StatusCode >= 400 {
		return Result{}, errors.NewClassificationError(
			fmt.Sprintf("Custom Vision API error (status %d): %s", resp.StatusCode, string(respBody)),
			"VISION_UPSTREAM",
			resp.StatusCode,
			nil,
		)
	}

	var predResp struct {
		Predictions []prediction `json:"predictions"`
	}
	if err := json.Unmarshal(respBody, &predResp); err != nil {
		return Result{}, errors.NewClassificationError("invalid prediction response", "VISION_INVALID_RESPONSE", http.StatusUnprocessableEntity, err)
	}

	best, ok := topPrediction(predResp.Predictions)
	if !ok {
		return Result{}, errors.NewClassificationError("no predictions returned", "VISION_NO_PREDICTION", http.StatusUnprocessableEntity, nil)
	}

	return Result{Label: best.TagName, Confidence: clamp01(best.Probability)}, nil
}

// topPrediction picks the highest probability; the service already ranks its
// output, so on ties the earlier entry wins.
func topPrediction(preds []prediction) (prediction, bool) {
	var best prediction
	found := false
	for _, pr := range preds {
		if strings.TrimSpace(pr.TagName) == "" {
			continue
		}
		if !found || pr.Probability > best.Probability {
			best = pr
			found = true
		}
	}
	return best, found
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
