// Package health turns raw transfer records into readings in engineering
// units and aggregates them into per-session summaries.
package health

import (
	"time"

	"github.com/tfountain/healthnode/internal/ble/protocol"
)

// Calorie model constants. Deliberately rough: a fixed per-step cost plus
// a heart-rate surcharge above resting, scaled to the record window.
const (
	kcalPerStep      = 0.04
	restingHeartRate = 65.0
	kcalPerBeatAbove = 0.002
	recordWindow     = 15 * time.Second // firmware consolidation interval
)

// Reading is one decoded health sample.
type Reading struct {
	HeartRate   float64   `json:"heart_rate"`  // bpm
	Temperature float64   `json:"temperature"` // °C
	Steps       int       `json:"steps"`
	Calories    float64   `json:"calories"` // kcal burned over the record window
	RecordedAt  time.Time `json:"recorded_at"`
}

// FromRecord converts one wire record into a reading.
func FromRecord(rec protocol.Record) Reading {
	hr := rec.HeartRate()
	return Reading{
		HeartRate:   hr,
		Temperature: rec.Temperature(),
		Steps:       int(rec.Steps),
		Calories:    calories(hr, int(rec.Steps)),
		RecordedAt:  rec.Time(),
	}
}

// FromRecords converts a record list, preserving order.
func FromRecords(recs []protocol.Record) []Reading {
	readings := make([]Reading, len(recs))
	for i, rec := range recs {
		readings[i] = FromRecord(rec)
	}
	return readings
}

// calories estimates kcal burned during one record window.
func calories(heartRate float64, steps int) float64 {
	kcal := float64(steps) * kcalPerStep
	if heartRate > restingHeartRate {
		beatsAbove := (heartRate - restingHeartRate) * recordWindow.Minutes()
		kcal += beatsAbove * kcalPerBeatAbove
	}
	return kcal
}

// Summary aggregates one download session.
type Summary struct {
	Count          int       `json:"count"`
	AvgHeartRate   float64   `json:"avg_heart_rate"`
	MinHeartRate   float64   `json:"min_heart_rate"`
	MaxHeartRate   float64   `json:"max_heart_rate"`
	AvgTemperature float64   `json:"avg_temperature"`
	MinTemperature float64   `json:"min_temperature"`
	MaxTemperature float64   `json:"max_temperature"`
	TotalSteps     int       `json:"total_steps"`
	TotalCalories  float64   `json:"total_calories"`
	From           time.Time `json:"from"`
	To             time.Time `json:"to"`
}

// Summarize aggregates readings into a summary. An empty input yields a
// zero summary.
func Summarize(readings []Reading) Summary {
	if len(readings) == 0 {
		return Summary{}
	}

	sum := Summary{
		Count:          len(readings),
		MinHeartRate:   readings[0].HeartRate,
		MaxHeartRate:   readings[0].HeartRate,
		MinTemperature: readings[0].Temperature,
		MaxTemperature: readings[0].Temperature,
		From:           readings[0].RecordedAt,
		To:             readings[0].RecordedAt,
	}

	var hrSum, tempSum float64
	for _, r := range readings {
		hrSum += r.HeartRate
		tempSum += r.Temperature
		sum.TotalSteps += r.Steps
		sum.TotalCalories += r.Calories

		if r.HeartRate < sum.MinHeartRate {
			sum.MinHeartRate = r.HeartRate
		}
		if r.HeartRate > sum.MaxHeartRate {
			sum.MaxHeartRate = r.HeartRate
		}
		if r.Temperature < sum.MinTemperature {
			sum.MinTemperature = r.Temperature
		}
		if r.Temperature > sum.MaxTemperature {
			sum.MaxTemperature = r.Temperature
		}
		if r.RecordedAt.Before(sum.From) {
			sum.From = r.RecordedAt
		}
		if r.RecordedAt.After(sum.To) {
			sum.To = r.RecordedAt
		}
	}
	sum.AvgHeartRate = hrSum / float64(len(readings))
	sum.AvgTemperature = tempSum / float64(len(readings))
	return sum
}
