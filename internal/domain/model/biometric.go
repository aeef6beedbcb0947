package model

import "time"

// Reading is one sample of the simulated biometric device.
type Reading struct {
	HeartRate     float64   `json:"heartRate"`
	Concentration float64   `json:"concentration"`
	Motivation    float64   `json:"motivation"`
	Stress        float64   `json:"stress"`
	Focus         float64   `json:"focus"`
	Timestamp     time.Time `json:"timestamp"`
}

// Session summarizes a completed learning session.
type Session struct {
	ID               string    `json:"id"`
	Start            time.Time `json:"start"`
	End              time.Time `json:"end"`
	DurationSeconds  int       `json:"durationSeconds"`
	AvgConcentration float64   `json:"avgConcentration"`
	AvgMotivation    float64   `json:"avgMotivation"`
}

// Insights are averages over recent readings with a study recommendation.
type Insights struct {
	Concentration  float64 `json:"concentration"`
	Motivation     float64 `json:"motivation"`
	Stress         float64 `json:"stress"`
	Focus          float64 `json:"focus"`
	Recommendation string  `json:"recommendation"`
}
