// Package display renders scan results, downloaded readings, and session
// summaries for the terminal.
package display

import (
	"fmt"
	"strconv"

	"github.com/pterm/pterm"

	"github.com/tfountain/healthnode/internal/ble"
	"github.com/tfountain/healthnode/internal/health"
	"github.com/tfountain/healthnode/internal/transfer"
)

// ScanResults prints discovered devices as a table, strongest signal first
// already being the caller's concern.
func ScanResults(devices []ble.Device) {
	if len(devices) == 0 {
		pterm.Warning.Println("No matching devices found")
		return
	}
	data := pterm.TableData{{"Name", "Address", "RSSI"}}
	for _, d := range devices {
		name := d.Name
		if name == "" {
			name = "<no name>"
		}
		data = append(data, []string{name, d.Address, fmt.Sprintf("%d dBm", d.RSSI)})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	pterm.Info.Printfln("Found %d device(s)", len(devices))
}

// Outcome prints the transfer result line.
func Outcome(res *transfer.Result) {
	switch res.Status {
	case transfer.StatusFinished:
		pterm.Success.Printfln("Transfer complete: %d records", len(res.Records))
	case transfer.StatusTimedOut:
		pterm.Warning.Printfln("Transfer timed out: %d partial records", len(res.Records))
	case transfer.StatusAborted:
		pterm.Error.Println("Transfer aborted: connection lost")
	default:
		pterm.Warning.Printfln("Transfer ended with status %q", res.Status)
	}
	if res.Dropped > 0 {
		pterm.Warning.Printfln("%d notification(s) dropped on queue overflow", res.Dropped)
	}
	if res.LastAck != "" {
		pterm.Info.Printfln("Last device ack: %s", res.LastAck)
	}
}

// Readings prints downloaded readings as a table.
func Readings(readings []health.Reading) {
	if len(readings) == 0 {
		pterm.Warning.Println("No records received")
		return
	}
	data := pterm.TableData{{"#", "Heart Rate", "Temperature", "Steps", "Calories", "Timestamp"}}
	for i, r := range readings {
		data = append(data, []string{
			strconv.Itoa(i + 1),
			fmt.Sprintf("%.1f bpm", r.HeartRate),
			fmt.Sprintf("%.2f °C", r.Temperature),
			strconv.Itoa(r.Steps),
			fmt.Sprintf("%.2f kcal", r.Calories),
			r.RecordedAt.Format("2006-01-02 15:04:05"),
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

// Summary prints the session aggregate.
func Summary(sum health.Summary) {
	if sum.Count == 0 {
		return
	}
	pterm.DefaultSection.Println("Session summary")
	pterm.Info.Printfln("Heart rate: %.1f bpm avg (%.1f-%.1f)", sum.AvgHeartRate, sum.MinHeartRate, sum.MaxHeartRate)
	pterm.Info.Printfln("Temperature: %.2f °C avg (%.2f-%.2f)", sum.AvgTemperature, sum.MinTemperature, sum.MaxTemperature)
	pterm.Info.Printfln("Steps: %d total, %.1f kcal", sum.TotalSteps, sum.TotalCalories)
	pterm.Info.Printfln("Window: %s - %s",
		sum.From.Format("2006-01-02 15:04"), sum.To.Format("2006-01-02 15:04"))
}
