// healthnode downloads consolidated health records from an ESP32-DataNode
// over BLE and uploads them to Supabase.
//
// Modes:
//
//	healthnode              download once, print, upload
//	healthnode -scan        scan for matching devices and print them
//	healthnode -serve       expose the collector over HTTP (and /ws)
//	healthnode -clear-store delete all uploaded rows
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/pterm/pterm"

	"github.com/tfountain/healthnode/internal/api"
	"github.com/tfountain/healthnode/internal/ble"
	"github.com/tfountain/healthnode/internal/config"
	"github.com/tfountain/healthnode/internal/display"
	"github.com/tfountain/healthnode/internal/health"
	"github.com/tfountain/healthnode/internal/store"
	"github.com/tfountain/healthnode/internal/transfer"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: ~/.config/healthnode/config.yaml)")
	scanMode := flag.Bool("scan", false, "scan for matching devices and exit")
	serveMode := flag.Bool("serve", false, "serve the collector API instead of downloading once")
	clearStore := flag.Bool("clear-store", false, "delete all uploaded rows and exit")
	address := flag.String("address", "", "device address (skips scanning)")
	eraseAfter := flag.Bool("erase-after", false, "erase device storage after a finished transfer")
	noUpload := flag.Bool("no-upload", false, "print records without uploading")
	debugMode := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		pterm.Error.Printfln("config: %v", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		pterm.Error.Printfln("config validation: %v", err)
		os.Exit(1)
	}
	if *debugMode {
		cfg.LogLevel = "debug"
	}
	if *eraseAfter {
		cfg.Transfer.EraseAfter = true
	}
	if *address != "" {
		cfg.Device.Address = *address
	}
	setLogLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch {
	case *scanMode:
		err = runScan(ctx, cfg)
	case *clearStore:
		err = runClearStore(ctx, cfg)
	case *serveMode:
		err = runServe(ctx, cfg, *noUpload)
	default:
		err = runDownload(ctx, cfg, *noUpload)
	}
	if err != nil {
		pterm.Error.Printfln("%v", err)
		os.Exit(1)
	}
}

// loadConfig loads the config from the specified path, or falls back to
// the default config path, or uses built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}

	defaultPath := config.DefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		cfg, err := config.Load(defaultPath)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", defaultPath, err)
		}
		slog.Info("config loaded", "path", defaultPath)
		return cfg, nil
	}

	slog.Info("no config file found, using defaults")
	return config.Default(), nil
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		slog.SetLogLoggerLevel(slog.LevelDebug)
	case "warn":
		slog.SetLogLoggerLevel(slog.LevelWarn)
	case "error":
		slog.SetLogLoggerLevel(slog.LevelError)
	default:
		slog.SetLogLoggerLevel(slog.LevelInfo)
	}
}

// scanFilter builds the device filter from config.
func scanFilter(cfg *config.Config) ble.ScanFilter {
	filter := ble.DefaultScanFilter()
	if cfg.Device.Name != "" {
		filter.NameContains = append([]string{cfg.Device.Name}, filter.NameContains...)
	}
	return filter
}

func runScan(ctx context.Context, cfg *config.Config) error {
	adapter := ble.NewNativeAdapter()
	if err := adapter.Enable(); err != nil {
		return fmt.Errorf("enable adapter: %w", err)
	}

	pterm.Info.Printfln("Scanning for %s (%ds)...", cfg.Device.Name, cfg.Device.ScanTimeoutSec)
	scanCtx, cancel := context.WithTimeout(ctx, cfg.ScanTimeout())
	defer cancel()
	devices, err := adapter.Scan(scanCtx, scanFilter(cfg))
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	display.ScanResults(devices)
	if len(devices) > 0 {
		pterm.Info.Printfln("Set device.address in the config (or pass -address) to skip scanning: %s", devices[0].Address)
	}
	return nil
}

func runClearStore(ctx context.Context, cfg *config.Config) error {
	if cfg.Supabase.URL == "" {
		return fmt.Errorf("supabase.url is not configured")
	}
	client := newStoreClient(cfg)
	if err := client.Clear(ctx); err != nil {
		return err
	}
	pterm.Success.Println("All uploaded rows deleted")
	return nil
}

func runDownload(ctx context.Context, cfg *config.Config, noUpload bool) error {
	res, err := collect(ctx, cfg)
	if err != nil {
		return err
	}

	readings := health.FromRecords(res.Records)
	display.Outcome(res)
	display.Readings(readings)
	display.Summary(health.Summarize(readings))

	return upload(ctx, cfg, readings, noUpload)
}

func runServe(ctx context.Context, cfg *config.Config, noUpload bool) error {
	server := api.New(func(ctx context.Context) ([]health.Reading, transfer.Status, error) {
		res, err := collect(ctx, cfg)
		if err != nil {
			return nil, transfer.StatusIdle, err
		}
		readings := health.FromRecords(res.Records)
		if err := upload(ctx, cfg, readings, noUpload); err != nil {
			return nil, res.Status, err
		}
		return readings, res.Status, nil
	})

	pterm.Info.Printfln("Serving collector API on http://%s", cfg.API.Listen)
	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe(cfg.API.Listen) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		pterm.Info.Println("Shutting down")
		return nil
	}
}

// collect performs one full device download: find, connect, transfer.
func collect(ctx context.Context, cfg *config.Config) (*transfer.Result, error) {
	adapter := ble.NewNativeAdapter()
	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("enable adapter: %w", err)
	}

	address := cfg.Device.Address
	if address == "" {
		pterm.Info.Printfln("Scanning for %s...", cfg.Device.Name)
		dev, err := ble.FindDevice(ctx, adapter, scanFilter(cfg), cfg.ScanTimeout())
		if err != nil {
			return nil, err
		}
		pterm.Info.Printfln("Found %s (%s, %d dBm)", dev.Name, dev.Address, dev.RSSI)
		address = dev.Address
	}

	connectCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()
	conn, err := adapter.Connect(connectCtx, address)
	if err != nil {
		return nil, err
	}
	defer conn.Disconnect()
	pterm.Success.Printfln("Connected to %s", address)

	transport, err := ble.NewTransport(conn)
	if err != nil {
		return nil, err
	}

	session := transfer.NewSession(transport, transfer.Options{
		BaseTimeout: cfg.BaseTimeout(),
		PerRecord:   cfg.PerRecord(),
		QueueSize:   cfg.Transfer.QueueSize,
		SyncClock:   cfg.Transfer.SyncClock,
		EraseAfter:  cfg.Transfer.EraseAfter,
	})
	conn.OnDisconnect(session.NotifyDisconnect)

	return session.Run(ctx)
}

// upload pushes readings and their summary to Supabase, unless uploading
// is disabled by flag or by leaving supabase.url unset.
func upload(ctx context.Context, cfg *config.Config, readings []health.Reading, noUpload bool) error {
	if noUpload || cfg.Supabase.URL == "" || len(readings) == 0 {
		return nil
	}
	client := newStoreClient(cfg)
	if err := client.InsertReadings(ctx, readings); err != nil {
		return err
	}
	if err := client.InsertSummary(ctx, health.Summarize(readings)); err != nil {
		return err
	}
	pterm.Success.Printfln("Uploaded %d readings", len(readings))
	return nil
}

func newStoreClient(cfg *config.Config) *store.Client {
	return store.New(cfg.Supabase.URL, cfg.Supabase.Key,
		cfg.Supabase.ReadingsTable, cfg.Supabase.SummariesTable)
}
