package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"shiftcal/internal/config"
	"shiftcal/internal/convert"
	appLog "shiftcal/internal/log"
	"shiftcal/internal/model"
	"shiftcal/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	in         string
	out        string
	reminder   string
	tzMode     string
	debug      bool
}

func main() {
	flags := parseFlags()
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}
	appLog.Info("shiftcal starting", "version", "0.1.0")

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	// One-shot mode: convert a single file and exit.
	if flags.in != "" {
		if err := runOnce(flags, conf); err != nil {
			appLog.Error("conversion failed", err, "in", flags.in)
			os.Exit(1)
		}
		return
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"day_start_hour", conf.DayStartHour,
		"night_start_hour", conf.NightStartHour,
		"timezone", conf.Timezone,
		"export_ttl_minutes", conf.ExportTTLMinutes,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if err := web.StartServer(ctx, conf); err != nil {
		appLog.Error("HTTP server failed", err)
		os.Exit(1)
	}
	appLog.Info("shiftcal exiting")
}

// runOnce converts flags.in to an .ics file on disk.
func runOnce(flags flagConfig, conf *config.Config) error {
	data, err := os.ReadFile(flags.in)
	if err != nil {
		return err
	}

	opts := model.Options{
		TZMode:          model.TZFloating,
		TZName:          conf.Timezone,
		TZOffsetMinutes: conf.TZOffsetMinutes,
		DayStartHour:    conf.DayStartHour,
		NightStartHour:  conf.NightStartHour,
	}
	if flags.tzMode == string(model.TZFixed) {
		opts.TZMode = model.TZFixed
	}
	if flags.reminder != "" {
		spec, err := parseReminder(flags.reminder)
		if err != nil {
			return err
		}
		opts.Reminder = spec
	}

	result, err := convert.Run(flags.in, data, opts)
	if err != nil {
		return err
	}

	for _, d := range result.Diags {
		appLog.Info("row diagnostic", "kind", string(d.Kind), "page", d.Page, "row", d.Row, "message", d.Message)
	}

	out := flags.out
	if out == "" {
		out = result.Filename
	}
	if err := os.WriteFile(out, result.ICS, 0o644); err != nil {
		return err
	}
	appLog.Info("export written", "out", out, "shifts", len(result.Shifts))
	return nil
}

// parseReminder parses values like "30m", "2h" or "1d".
func parseReminder(s string) (*model.ReminderSpec, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if len(s) < 2 {
		return nil, fmt.Errorf("invalid reminder %q (expected e.g. 30m, 2h, 1d)", s)
	}

	amount, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || amount < 0 {
		return nil, fmt.Errorf("invalid reminder amount in %q", s)
	}

	var unit model.ReminderUnit
	switch s[len(s)-1] {
	case 'm':
		unit = model.UnitMinutes
	case 'h':
		unit = model.UnitHours
	case 'd':
		unit = model.UnitDays
	default:
		return nil, fmt.Errorf("invalid reminder unit in %q", s)
	}

	return &model.ReminderSpec{Amount: amount, Unit: unit}, nil
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/shiftcal/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.in, "in", "", "Convert a single schedule file and exit")
	flag.StringVar(&cfg.out, "out", "", "Output .ics path for -in (default: derived from schedule)")
	flag.StringVar(&cfg.reminder, "reminder", "", "Reminder offset for -in, e.g. 30m, 2h, 1d (default: none)")
	flag.StringVar(&cfg.tzMode, "tz", "floating", "Timestamp mode: floating or fixed")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	return cfg
}
