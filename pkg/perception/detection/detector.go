// Package detection finds the tracked person in camera frames and reports
// their horizontal offset from frame center.
package detection

import "context"

// Detection is the output of one detector poll: the horizontal pixel
// offset of the person's center from the frame center (negative = left)
// and the detector's confidence in [0,1].
type Detection struct {
	OffsetPx   int
	Confidence float64
}

// Detector is the perception unit's view of the external object detector.
// Poll blocks for at most one inference; found=false means no person is
// visible this tick, which is a normal value rather than an error.
type Detector interface {
	Poll(ctx context.Context) (det Detection, found bool, err error)
	Close() error
}
