package analyzer

import (
	"image"
	"io"

	"github.com/piyushdan-dataslush/bms-analytics/internal/models"
	"golang.org/x/image/draw"
)

type SeatClass string

const (
	SeatSold       SeatClass = "sold"
	SeatAvailable  SeatClass = "available"
	SeatBestseller SeatClass = "bestseller"
)

type Seat struct {
	Bounds image.Rectangle
	Class  SeatClass
	Green  int
	Yellow int
}

type Result struct {
	Stats models.OccupancyStats
	Seats []Seat
}

// Analyzer counts seats on a rendered seat map by colour.
type Analyzer interface {
	Analyze(img image.Image) Result
	AnalyzeReader(r io.Reader) (Result, image.Image, error)
	Annotate(img image.Image, res Result) *image.RGBA
}

type implAnalyzer struct {
	th Thresholds
}

func New(th Thresholds) Analyzer {
	return &implAnalyzer{th: th}
}

// Analyze runs with DefaultThresholds.
func Analyze(img image.Image) Result {
	return New(DefaultThresholds()).Analyze(img)
}

func (a *implAnalyzer) Analyze(img image.Image) Result {
	src := toNRGBA(img)
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	res := Result{Seats: make([]Seat, 0)}
	if w == 0 || h == 0 {
		return res
	}

	mask := make([]bool, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := src.PixOffset(b.Min.X+x, b.Min.Y+y)
			mask[y*w+x] = grayLevel(src.Pix[i], src.Pix[i+1], src.Pix[i+2]) <= a.th.Foreground
		}
	}

	for _, box := range externalBounds(mask, w, h) {
		if !a.th.keep(box.Dx(), box.Dy()) {
			continue
		}
		box = box.Add(b.Min)

		green, yellow := bandCounts(src, box, a.th.Green, a.th.Yellow)
		seat := Seat{Bounds: box, Green: green, Yellow: yellow, Class: a.classify(green, yellow)}
		res.Seats = append(res.Seats, seat)

		switch seat.Class {
		case SeatBestseller:
			res.Stats.Bestseller++
		case SeatAvailable:
			res.Stats.Available++
		default:
			res.Stats.FilledSold++
		}
	}

	res.Stats.TotalSeats = len(res.Seats)
	res.Stats.TotalUnsold = res.Stats.Available + res.Stats.Bestseller
	return res
}

func (a *implAnalyzer) classify(green, yellow int) SeatClass {
	if yellow > a.th.MinPixels && yellow > green {
		return SeatBestseller
	}
	if green > a.th.MinPixels {
		return SeatAvailable
	}
	return SeatSold
}

// AnalyzeReader decodes r and analyzes the image. The decoded image is
// returned for annotation.
func (a *implAnalyzer) AnalyzeReader(r io.Reader) (Result, image.Image, error) {
	img, err := Decode(r)
	if err != nil {
		return Result{}, nil, err
	}
	return a.Analyze(img), img, nil
}

func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok {
		return n
	}
	b := img.Bounds()
	dst := image.NewNRGBA(b)
	draw.Draw(dst, b, img, b.Min, draw.Src)
	return dst
}
