package health

import (
	"math"
	"testing"
	"time"

	"github.com/tfountain/healthnode/internal/ble/protocol"
)

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestFromRecordScalesFields(t *testing.T) {
	rec := protocol.Record{HeartRateX10: 721, TempCx100: 3689, Steps: 90, Timestamp: 1735689600}
	r := FromRecord(rec)
	if r.HeartRate != 72.1 {
		t.Errorf("HeartRate = %v, want 72.1", r.HeartRate)
	}
	if r.Temperature != 36.89 {
		t.Errorf("Temperature = %v, want 36.89", r.Temperature)
	}
	if r.Steps != 90 {
		t.Errorf("Steps = %d, want 90", r.Steps)
	}
	if !r.RecordedAt.Equal(time.Unix(1735689600, 0)) {
		t.Errorf("RecordedAt = %v", r.RecordedAt)
	}
}

func TestCaloriesRestingNoSurcharge(t *testing.T) {
	// At or below resting heart rate only steps count.
	if got := calories(60, 100); !almostEqual(got, 4.0) {
		t.Errorf("calories(60, 100) = %v, want 4.0", got)
	}
	if got := calories(65, 0); got != 0 {
		t.Errorf("calories(65, 0) = %v, want 0", got)
	}
}

func TestCaloriesHeartRateSurcharge(t *testing.T) {
	// 105 bpm for a 15 s window: 40 extra bpm × 0.25 min × 0.002 kcal.
	want := 0.02
	if got := calories(105, 0); !almostEqual(got, want) {
		t.Errorf("calories(105, 0) = %v, want %v", got, want)
	}
}

func TestSummarize(t *testing.T) {
	readings := FromRecords([]protocol.Record{
		{HeartRateX10: 600, TempCx100: 3650, Steps: 10, Timestamp: 2000},
		{HeartRateX10: 800, TempCx100: 3700, Steps: 30, Timestamp: 1000},
		{HeartRateX10: 700, TempCx100: 3675, Steps: 20, Timestamp: 3000},
	})
	sum := Summarize(readings)

	if sum.Count != 3 {
		t.Fatalf("Count = %d, want 3", sum.Count)
	}
	if !almostEqual(sum.AvgHeartRate, 70.0) {
		t.Errorf("AvgHeartRate = %v, want 70", sum.AvgHeartRate)
	}
	if sum.MinHeartRate != 60 || sum.MaxHeartRate != 80 {
		t.Errorf("heart rate range = %v..%v, want 60..80", sum.MinHeartRate, sum.MaxHeartRate)
	}
	if sum.MinTemperature != 36.5 || sum.MaxTemperature != 37.0 {
		t.Errorf("temperature range = %v..%v, want 36.5..37.0", sum.MinTemperature, sum.MaxTemperature)
	}
	if sum.TotalSteps != 60 {
		t.Errorf("TotalSteps = %d, want 60", sum.TotalSteps)
	}
	// Timestamps are not assumed sorted.
	if !sum.From.Equal(time.Unix(1000, 0)) || !sum.To.Equal(time.Unix(3000, 0)) {
		t.Errorf("window = %v..%v", sum.From, sum.To)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	sum := Summarize(nil)
	if sum.Count != 0 || sum.TotalSteps != 0 || sum.TotalCalories != 0 {
		t.Errorf("Summarize(nil) = %+v, want zero summary", sum)
	}
}
