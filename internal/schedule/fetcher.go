package schedule

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/piyushdan-dataslush/bms-analytics/pkg/logger"
	"golang.org/x/time/rate"
)

const showtimesPath = "/api/movies-data/v4/showtimes-by-event/primary-dynamic"

type FetchRequest struct {
	EventCode  string
	RegionCode string
	Lat        string
	Lon        string
	DateCode   string
}

type Fetcher interface {
	Fetch(ctx context.Context, req FetchRequest) ([]byte, error)
}

type HTTPFetcherConfig struct {
	BaseURL        string
	Timeout        time.Duration
	RequestsPerSec float64
	UserAgent      string
}

type httpFetcher struct {
	cli     *http.Client
	cfg     HTTPFetcherConfig
	limiter *rate.Limiter
	l       logger.Logger
}

func NewHTTPFetcher(cfg HTTPFetcherConfig, l logger.Logger) Fetcher {
	limit := rate.Inf
	if cfg.RequestsPerSec > 0 {
		limit = rate.Limit(cfg.RequestsPerSec)
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/110.0.0.0 Safari/537.36"
	}

	return &httpFetcher{
		cli:     &http.Client{Timeout: cfg.Timeout},
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		l:       l,
	}
}

func (f *httpFetcher) Fetch(ctx context.Context, req FetchRequest) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("eventCode", req.EventCode)
	q.Set("dateCode", req.DateCode)
	q.Set("isDesktop", "true")
	q.Set("regionCode", req.RegionCode)
	q.Set("xLocationShared", "false")
	q.Set("lat", req.Lat)
	q.Set("lon", req.Lon)

	endpoint := f.cfg.BaseURL + showtimesPath + "?" + q.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build schedule request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json, text/plain, */*")
	httpReq.Header.Set("Origin", f.cfg.BaseURL)
	httpReq.Header.Set("User-Agent", f.cfg.UserAgent)
	httpReq.Header.Set("x-platform", "Web")
	httpReq.Header.Set("x-region-code", req.RegionCode)

	resp, err := f.cli.Do(httpReq)
	if err != nil {
		f.l.Warnf(ctx, "schedule.httpFetcher.Fetch: region=%s: %v", req.RegionCode, err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d for region %s", ErrUnexpectedStatus, resp.StatusCode, req.RegionCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read schedule body: %w", err)
	}

	return body, nil
}
