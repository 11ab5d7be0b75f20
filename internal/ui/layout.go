package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which the header drops secondary details.
	LayoutCompactWidth = 100

	// LayoutSideBySideWidth is the minimum width to show calendar and day side by side.
	LayoutSideBySideWidth = 90
)

// Activity overlay limits.
const (
	// ActivityLineLimit is the number of log lines read for the activity overlay.
	ActivityLineLimit = 500
)

// Timing constants.
const (
	// DefaultUIInterval is the default UI refresh interval.
	DefaultUIInterval = time.Second
)
