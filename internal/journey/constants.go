package journey

import "time"

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Runner configuration constants.
const (
	DefaultSettle        = 5 * time.Second
	settlePoll           = 100 * time.Millisecond
	PercentageMultiplier = 100
	journeyPassword      = "journey-pass-1"
)
