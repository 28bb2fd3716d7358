// servosweep - bench utility that sweeps the pan servo back and forth
// so the linkage and pulse range can be checked without running the
// full tracker.
package main

import (
	"flag"
	"fmt"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/astromech/panbot/internal/config"
)

func main() {
	configPath := flag.String("config", "panbot.yaml", "YAML config file")
	backend := flag.String("servo", "", "servo backend override: pca9685, gpio, dummy")
	from := flag.Float64("from", 30, "sweep start angle")
	to := flag.Float64("to", 150, "sweep end angle")
	step := flag.Float64("step", 2, "degrees per step")
	pause := flag.Duration("pause", 25*time.Millisecond, "pause between steps")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		stdlog.Fatalf("config error: %v", err)
	}
	if *backend != "" {
		cfg.Servo.Backend = *backend
	}

	s, err := cfg.OpenServo()
	if err != nil {
		stdlog.Fatalf("open servo: %v", err)
	}
	defer s.Close()
	defer s.Release()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	fmt.Printf("sweeping %s servo %.0f..%.0f deg, ctrl-c to stop\n", cfg.Servo.Backend, *from, *to)
	angle, dir := *from, *step
	for {
		select {
		case <-sig:
			fmt.Println("\ndone")
			return
		default:
		}

		if err := s.SetAngle(angle); err != nil {
			stdlog.Fatalf("set angle %.1f: %v", angle, err)
		}
		angle += dir
		if angle >= *to || angle <= *from {
			dir = -dir
		}
		time.Sleep(*pause)
	}
}
