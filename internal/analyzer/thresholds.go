package analyzer

// HueBand is an HSV range on the 8-bit scale: hue 0-179, saturation and
// value 0-255. Upper bounds for saturation and value are always 255.
type HueBand struct {
	HueMin uint8
	HueMax uint8
	SatMin uint8
	ValMin uint8
}

func (b HueBand) contains(h, s, v uint8) bool {
	return h >= b.HueMin && h <= b.HueMax && s >= b.SatMin && v >= b.ValMin
}

type Thresholds struct {
	// Gray values at or below Foreground are seat ink.
	Foreground uint8

	MinArea   int
	MaxArea   int
	MinAspect float64
	MaxAspect float64

	Green  HueBand
	Yellow HueBand

	// A band must match strictly more than MinPixels pixels to count.
	MinPixels int
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		Foreground: 230,
		MinArea:    150,
		MaxArea:    3000,
		MinAspect:  0.7,
		MaxAspect:  1.4,
		Green:      HueBand{HueMin: 40, HueMax: 90, SatMin: 40, ValMin: 40},
		Yellow:     HueBand{HueMin: 15, HueMax: 35, SatMin: 40, ValMin: 40},
		MinPixels:  10,
	}
}

func (t Thresholds) keep(w, h int) bool {
	if h == 0 {
		return false
	}
	area := w * h
	if area < t.MinArea || area > t.MaxArea {
		return false
	}
	aspect := float64(w) / float64(h)
	return aspect >= t.MinAspect && aspect <= t.MaxAspect
}
