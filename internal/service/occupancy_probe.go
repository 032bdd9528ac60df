package service

import (
	"context"
	"fmt"
	"image"
	"io"

	"github.com/piyushdan-dataslush/bms-analytics/internal/analyzer"
	"github.com/piyushdan-dataslush/bms-analytics/internal/capture"
	"github.com/spf13/afero"
)

// occupancyProbe captures a seat-layout link into a scoped temp file and
// analyzes it. The temp file is gone when probe returns.
type occupancyProbe struct {
	fs       afero.Fs
	tempDir  string
	capturer capture.Capturer
	analyzer analyzer.Analyzer
}

func (p occupancyProbe) probe(ctx context.Context, link string) (analyzer.Result, image.Image, error) {
	f, err := afero.TempFile(p.fs, p.tempDir, "seat-layout-*.png")
	if err != nil {
		return analyzer.Result{}, nil, fmt.Errorf("%w: temp file: %v", ErrCaptureFailed, err)
	}
	defer func() {
		_ = f.Close()
		_ = p.fs.Remove(f.Name())
	}()

	if err := p.capturer.Capture(ctx, link, f); err != nil {
		return analyzer.Result{}, nil, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return analyzer.Result{}, nil, fmt.Errorf("%w: rewind artifact: %v", ErrAnalysisFailed, err)
	}

	res, img, err := p.analyzer.AnalyzeReader(f)
	if err != nil {
		return analyzer.Result{}, nil, fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
	}

	return res, img, nil
}
