// panbot - pan-axis camera tracking robot.
// Follows the nearest person with a single servo-driven head and takes
// voice commands for mute and tracking control.
package main

import (
	"context"
	"flag"
	stdlog "log"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/astromech/panbot/internal/config"
	"github.com/astromech/panbot/internal/log"
	"github.com/astromech/panbot/pkg/app"
	"github.com/astromech/panbot/pkg/motion"
)

func main() {
	cfg, logLevel := parseFlags()
	log.Init(logLevel)

	a := app.New(cfg)
	if err := a.Init(); err != nil {
		stdlog.Fatalf("initialization failed: %v", err)
	}
	defer a.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := a.Run(ctx); err != nil {
		stdlog.Fatalf("runtime error: %v", err)
	}
}

func parseFlags() (config.Config, string) {
	configPath := flag.String("config", "panbot.yaml", "YAML config file (missing file uses defaults)")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	servoBackend := flag.String("servo", "", "servo backend override: pca9685, gpio, dummy")
	webAddr := flag.String("web", "", "dashboard listen address override (empty keeps config)")
	voiceEnabled := flag.Bool("voice", false, "enable the wake-word voice listener")
	tuning := flag.String("tuning", "", "motion tuning variant: smooth, responsive")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		stdlog.Fatalf("config error: %v", err)
	}
	cfg.LoadEnvConfig()

	if *servoBackend != "" {
		cfg.Servo.Backend = *servoBackend
	}
	if *webAddr != "" {
		cfg.WebAddr = *webAddr
	}
	if *voiceEnabled {
		cfg.VoiceEnabled = true
	}
	switch *tuning {
	case "smooth":
		cfg.Motion = motion.SmoothConfig()
	case "responsive":
		cfg.Motion = motion.ResponsiveConfig()
	case "":
	default:
		stdlog.Fatalf("unknown tuning %q", *tuning)
	}

	// Record the resolved config next to the source file.
	inUse := filepath.Join(filepath.Dir(*configPath), "panbot-in-use.yaml")
	if err := config.WriteInUse(cfg, inUse); err != nil {
		stdlog.Printf("could not write in-use config: %v", err)
	}

	return cfg, *logLevel
}
