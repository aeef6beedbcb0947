// Package biometric simulates a wearable learning-focus sensor with a bounded
// random walk and derives performance scores and study insights from it.
package biometric

import (
	"math"
	"time"

	"github.com/okian/skillup/internal/domain/model"
)

// Walk step sizes. Each tick moves a metric by (r-0.5)*step for r in [0,1).
const (
	heartRateStep     = 8
	concentrationStep = 12
	motivationStep    = 10
	stressStep        = 6
	focusStep         = 8
)

// Metric bounds.
const (
	minHeartRate = 60
	maxHeartRate = 120
	minPercent   = 0
	maxPercent   = 100
)

// Initial is the reading a freshly paired device reports.
func Initial(now time.Time) model.Reading {
	return model.Reading{
		HeartRate:     72,
		Concentration: 85,
		Motivation:    78,
		Stress:        45,
		Focus:         82,
		Timestamp:     now,
	}
}

// Step perturbs every metric of prev once. rnd must return values in [0,1).
func Step(prev model.Reading, rnd func() float64, now time.Time) model.Reading {
	move := func(v, step, lo, hi float64) float64 {
		return math.Max(lo, math.Min(hi, v+(rnd()-0.5)*step))
	}
	return model.Reading{
		HeartRate:     move(prev.HeartRate, heartRateStep, minHeartRate, maxHeartRate),
		Concentration: move(prev.Concentration, concentrationStep, minPercent, maxPercent),
		Motivation:    move(prev.Motivation, motivationStep, minPercent, maxPercent),
		Stress:        move(prev.Stress, stressStep, minPercent, maxPercent),
		Focus:         move(prev.Focus, focusStep, minPercent, maxPercent),
		Timestamp:     now,
	}
}

// Performance scores a reading from 0 to 100. High stress and low
// concentration are penalized.
func Performance(r model.Reading) int {
	score := r.Concentration*0.3 + r.Motivation*0.25 + r.Focus*0.25 + (100-r.Stress)*0.2
	if r.Stress > 70 {
		score *= 0.8
	}
	if r.Concentration < 50 {
		score *= 0.9
	}
	return int(math.Round(score))
}

// Rating buckets a performance score.
func Rating(score int) string {
	switch {
	case score >= 85:
		return "Excellent"
	case score >= 70:
		return "Good"
	default:
		return "Needs Improvement"
	}
}

// Recommendation texts.
const (
	AdviceExcellent = "Excellent focus and motivation! You're ready for advanced challenges."
	AdviceShorter   = "Consider shorter, focused learning sessions to improve concentration."
	AdviceChunks    = "Good progress! Try breaking down complex topics into smaller chunks."
)

// Insights averages readings and picks a recommendation. An empty input
// yields zero averages and the shorter-sessions advice.
func Insights(readings []model.Reading) model.Insights {
	var in model.Insights
	if n := float64(len(readings)); n > 0 {
		for _, r := range readings {
			in.Concentration += r.Concentration
			in.Motivation += r.Motivation
			in.Stress += r.Stress
			in.Focus += r.Focus
		}
		in.Concentration /= n
		in.Motivation /= n
		in.Stress /= n
		in.Focus /= n
	}
	switch {
	case in.Concentration > 85 && in.Motivation > 80:
		in.Recommendation = AdviceExcellent
	case in.Concentration < 70:
		in.Recommendation = AdviceShorter
	default:
		in.Recommendation = AdviceChunks
	}
	return in
}
