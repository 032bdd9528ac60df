package capture

import (
	"context"
	"errors"
	"io"
)

var ErrNoSeatMap = errors.New("seat map did not render")

// Capturer renders a seat-layout link and writes a screenshot of its seat
// map to w.
type Capturer interface {
	Capture(ctx context.Context, link string, w io.Writer) error
}
