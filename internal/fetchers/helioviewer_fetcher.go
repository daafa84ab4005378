package fetchers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"solarharvest/internal/models"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// HelioviewerDateLayout is the timestamp format expected by getClosestImage
const HelioviewerDateLayout = "2006-01-02T15:04:05Z"

// ErrNoImage is returned when getClosestImage has no image id for the request
var ErrNoImage = errors.New("no image available")

// StatusError reports a non-success HTTP status from the Helioviewer API
type StatusError struct {
	Endpoint   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Helioviewer %s returned status %d", e.Endpoint, e.StatusCode)
}

// HelioviewerOptions configures the Helioviewer fetcher
type HelioviewerOptions struct {
	BaseURL         string
	Scale           int
	LookupTimeout   time.Duration
	DownloadTimeout time.Duration

	// RequestsPerSecond caps API calls across all workers. Zero means unlimited.
	RequestsPerSecond float64
}

// HelioviewerFetcher resolves and downloads SDO/AIA images from the Helioviewer API.
// Requests are never retried.
type HelioviewerFetcher struct {
	client  *resty.Client
	limiter *rate.Limiter
	opts    HelioviewerOptions
}

// NewHelioviewerFetcher creates a new Helioviewer fetcher instance
func NewHelioviewerFetcher(opts HelioviewerOptions) *HelioviewerFetcher {
	if opts.Scale <= 0 {
		opts.Scale = 16
	}
	if opts.LookupTimeout <= 0 {
		opts.LookupTimeout = 30 * time.Second
	}
	if opts.DownloadTimeout <= 0 {
		opts.DownloadTimeout = 20 * time.Second
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimRight(opts.BaseURL, "/"))
	client.SetRetryCount(0)
	client.SetHeader("User-Agent", "solarharvest/1.0")

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return &HelioviewerFetcher{
		client:  client,
		limiter: limiter,
		opts:    opts,
	}
}

// closestImageEnvelope adds the loosely typed id and error fields to the response model
type closestImageEnvelope struct {
	models.ClosestImageResponse
	ID    interface{} `json:"id"`
	Error string      `json:"error"`
}

// GetClosestImageID returns the id of the image nearest to t for sourceID.
// It returns ErrNoImage when the response carries no id.
func (f *HelioviewerFetcher) GetClosestImageID(ctx context.Context, t time.Time, sourceID int) (string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("failed to fetch closest image: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, f.opts.LookupTimeout)
	defer cancel()

	resp, err := f.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParams(map[string]string{
			"date":     t.UTC().Format(HelioviewerDateLayout),
			"sourceId": strconv.Itoa(sourceID),
		}).
		Get("/v2/getClosestImage/")

	if err != nil {
		return "", fmt.Errorf("failed to fetch closest image: %w", err)
	}

	if !resp.IsSuccess() {
		return "", &StatusError{Endpoint: "getClosestImage", StatusCode: resp.StatusCode()}
	}

	var envelope closestImageEnvelope
	decoder := json.NewDecoder(bytes.NewReader(resp.Body()))
	decoder.UseNumber()
	if err := decoder.Decode(&envelope); err != nil {
		return "", fmt.Errorf("failed to parse closest image response: %w", err)
	}

	id, err := imageIDString(envelope.ID)
	if err != nil {
		return "", err
	}
	if id == "" {
		if envelope.Error != "" {
			return "", fmt.Errorf("%w: %s", ErrNoImage, envelope.Error)
		}
		return "", ErrNoImage
	}

	return id, nil
}

// imageIDString normalises the id field, which may be a string, a number or null
func imageIDString(v interface{}) (string, error) {
	switch id := v.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(id), nil
	case json.Number:
		return id.String(), nil
	default:
		return "", fmt.Errorf("failed to parse closest image response: unexpected id type %T", v)
	}
}

// DownloadImage downloads the rendered image for id. The full body is buffered
// before returning so callers never observe a partial image.
func (f *HelioviewerFetcher) DownloadImage(ctx context.Context, id string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to download image %s: %w", id, err)
	}

	ctx, cancel := context.WithTimeout(ctx, f.opts.DownloadTimeout)
	defer cancel()

	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"id":    id,
			"scale": strconv.Itoa(f.opts.Scale),
		}).
		Get("/v2/downloadImage/")

	if err != nil {
		return nil, fmt.Errorf("failed to download image %s: %w", id, err)
	}

	if !resp.IsSuccess() {
		return nil, &StatusError{Endpoint: "downloadImage", StatusCode: resp.StatusCode()}
	}

	body := resp.Body()
	if len(body) == 0 {
		return nil, fmt.Errorf("failed to download image %s: empty body", id)
	}

	return body, nil
}
