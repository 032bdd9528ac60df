package capture

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"github.com/piyushdan-dataslush/bms-analytics/pkg/logger"
	"golang.org/x/time/rate"
)

const (
	containerSelector = ".seat-layout-container"
	canvasSelector    = "canvas"
)

type Config struct {
	ChromePath         string
	UserAgent          string
	InterstitialButton string
	NavigationTimeout  time.Duration
	InterstitialWait   time.Duration
	RenderTimeout      time.Duration
	SettleDelay        time.Duration
	ViewportWidth      int
	ViewportHeight     int
	CapturesPerSec     float64
}

// ChromeCapturer launches a headless browser per capture.
type ChromeCapturer struct {
	cfg     Config
	limiter *rate.Limiter
	l       logger.Logger
}

func NewChromeCapturer(cfg Config, l logger.Logger) *ChromeCapturer {
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 60 * time.Second
	}
	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = 15 * time.Second
	}
	if cfg.ViewportWidth <= 0 || cfg.ViewportHeight <= 0 {
		cfg.ViewportWidth, cfg.ViewportHeight = 1920, 1080
	}

	limit := rate.Inf
	if cfg.CapturesPerSec > 0 {
		limit = rate.Limit(cfg.CapturesPerSec)
	}
	return &ChromeCapturer{
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		l:       l,
	}
}

func (c *ChromeCapturer) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts, chromedp.WindowSize(c.cfg.ViewportWidth, c.cfg.ViewportHeight))
	if c.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(c.cfg.UserAgent))
	}
	if c.cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(c.cfg.ChromePath))
	}
	return opts
}

func (c *ChromeCapturer) Capture(ctx context.Context, link string, w io.Writer) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, c.allocatorOptions()...)
	defer cancelAlloc()

	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	// The browser lives as long as the context of the first Run.
	if err := chromedp.Run(tabCtx); err != nil {
		return fmt.Errorf("start browser: %w", err)
	}

	navCtx, cancelNav := context.WithTimeout(tabCtx, c.cfg.NavigationTimeout)
	err := chromedp.Run(navCtx,
		chromedp.EmulateViewport(int64(c.cfg.ViewportWidth), int64(c.cfg.ViewportHeight)),
		chromedp.Navigate(link),
	)
	cancelNav()
	if err != nil {
		return fmt.Errorf("navigate %s: %w", link, err)
	}

	c.dismissInterstitial(tabCtx)

	renderCtx, cancelRender := context.WithTimeout(tabCtx, c.cfg.RenderTimeout)
	err = chromedp.Run(renderCtx, chromedp.WaitVisible(canvasSelector, chromedp.ByQuery))
	cancelRender()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoSeatMap, err)
	}

	var (
		containers []*cdp.Node
		shot       []byte
	)
	shotCtx, cancelShot := context.WithTimeout(tabCtx, c.cfg.RenderTimeout)
	defer cancelShot()

	err = chromedp.Run(shotCtx,
		chromedp.Sleep(c.cfg.SettleDelay),
		chromedp.Nodes(containerSelector, &containers, chromedp.ByQuery, chromedp.AtLeast(0)),
	)
	if err != nil {
		return fmt.Errorf("locate seat map: %w", err)
	}

	target := canvasSelector
	if len(containers) > 0 {
		target = containerSelector
	}
	if err := chromedp.Run(shotCtx, chromedp.Screenshot(target, &shot, chromedp.ByQuery, chromedp.NodeVisible)); err != nil {
		return fmt.Errorf("screenshot %s: %w", target, err)
	}

	if _, err := w.Write(shot); err != nil {
		return fmt.Errorf("write screenshot: %w", err)
	}
	return nil
}

// dismissInterstitial clicks the seat-count prompt when it shows up within
// InterstitialWait. Its absence is normal.
func (c *ChromeCapturer) dismissInterstitial(ctx context.Context) {
	if c.cfg.InterstitialButton == "" {
		return
	}

	waitCtx, cancel := context.WithTimeout(ctx, c.cfg.InterstitialWait)
	defer cancel()

	xpath := fmt.Sprintf(`//button[normalize-space(.)=%q]`, c.cfg.InterstitialButton)
	if err := chromedp.Run(waitCtx, chromedp.Click(xpath, chromedp.BySearch, chromedp.NodeVisible)); err != nil {
		c.l.Debugf(ctx, "capture.ChromeCapturer.dismissInterstitial: no prompt: %v", err)
		return
	}
	c.l.Debugf(ctx, "capture.ChromeCapturer.dismissInterstitial: prompt clicked")
}
