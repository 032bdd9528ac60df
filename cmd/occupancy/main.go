package main

import (
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/piyushdan-dataslush/bms-analytics/internal/analyzer"
	"github.com/piyushdan-dataslush/bms-analytics/internal/models"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
)

var (
	annotateDir = pflag.String("annotate-dir", "", "Write annotated copies into this directory")
	minArea     = pflag.Int("min-area", analyzer.DefaultThresholds().MinArea, "Smallest seat box area in pixels")
	maxArea     = pflag.Int("max-area", analyzer.DefaultThresholds().MaxArea, "Largest seat box area in pixels")
)

type fileResult struct {
	File  string                 `json:"file"`
	Stats *models.OccupancyStats `json:"stats,omitempty"`
	Error string                 `json:"error,omitempty"`
}

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] screenshot...\n", filepath.Base(os.Args[0]))
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if pflag.NArg() == 0 {
		pflag.Usage()
		os.Exit(2)
	}

	th := analyzer.DefaultThresholds()
	th.MinArea = *minArea
	th.MaxArea = *maxArea
	a := analyzer.New(th)
	fs := afero.NewOsFs()

	failed := false
	enc := json.NewEncoder(os.Stdout)
	for _, path := range pflag.Args() {
		res := analyzeFile(fs, a, path)
		if res.Error != "" {
			failed = true
		}
		_ = enc.Encode(res)
	}

	if failed {
		os.Exit(1)
	}
}

func analyzeFile(fs afero.Fs, a analyzer.Analyzer, path string) fileResult {
	out := fileResult{File: path}

	f, err := fs.Open(path)
	if err != nil {
		out.Error = err.Error()
		return out
	}
	defer f.Close()

	res, img, err := a.AnalyzeReader(f)
	if err != nil {
		out.Error = err.Error()
		return out
	}
	out.Stats = &res.Stats

	if *annotateDir != "" {
		if err := writeAnnotated(fs, a, path, img, res); err != nil {
			out.Error = fmt.Sprintf("annotate: %v", err)
		}
	}

	return out
}

func writeAnnotated(fs afero.Fs, a analyzer.Analyzer, path string, img image.Image, res analyzer.Result) error {
	if err := fs.MkdirAll(*annotateDir, 0o755); err != nil {
		return err
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	f, err := fs.Create(filepath.Join(*annotateDir, base+"_annotated.png"))
	if err != nil {
		return err
	}
	defer f.Close()

	return png.Encode(f, a.Annotate(img, res))
}
