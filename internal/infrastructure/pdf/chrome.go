// Package pdf prints HTML documents to PDF with a headless Chrome.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cv-hub/internal/config"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

var ErrDisabled = errors.New("pdf export disabled")

type Chrome struct {
	enabled    bool
	chromePath string
	timeout    time.Duration
	logger     *zap.Logger
}

func NewChrome(cfg config.PDFConfig, logger *zap.Logger) *Chrome {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Chrome{enabled: cfg.Enabled, chromePath: cfg.ChromePath, timeout: timeout, logger: logger}
}

func (c *Chrome) Enabled() bool {
	return c != nil && c.enabled
}

// Render loads html into a blank page and prints it as A4 with backgrounds.
func (c *Chrome) Render(ctx context.Context, html []byte) ([]byte, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if c.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(c.chromePath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	reqCtx, reqCancel := context.WithTimeout(browserCtx, c.timeout)
	defer reqCancel()

	start := time.Now()
	var out []byte
	err := chromedp.Run(reqCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, string(html)).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				Do(ctx)
			if err != nil {
				return err
			}
			out = buf
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}

	c.logger.Debug("pdf rendered", zap.Int("bytes", len(out)), zap.Duration("took", time.Since(start)))
	return out, nil
}
