package web

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/astromech/panbot/pkg/motion"
	"github.com/astromech/panbot/pkg/servo"
)

func newTestServer() *Server {
	cfg := motion.DefaultConfig()
	state := motion.NewState(cfg.HomeAngle)
	loop := motion.NewLoop(cfg, state, servo.NewDummy())
	return NewServer("127.0.0.1:0", state, loop, nil)
}

func getLogs(t *testing.T, s *Server) []LogEntry {
	t.Helper()
	resp, err := s.app.Test(httptest.NewRequest("GET", "/api/logs", nil))
	if err != nil {
		t.Fatalf("GET /api/logs: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("GET /api/logs status = %d", resp.StatusCode)
	}
	var logs []LogEntry
	if err := json.NewDecoder(resp.Body).Decode(&logs); err != nil {
		t.Fatalf("decode logs: %v", err)
	}
	return logs
}

func TestLogsEndpointReturnsRecordedEvents(t *testing.T) {
	s := newTestServer()

	s.AddLog("info", "homed at 90.0°")
	s.AddLog("warn", "return to home did not settle before teardown")

	logs := getLogs(t, s)
	if len(logs) != 2 {
		t.Fatalf("got %d entries, want 2", len(logs))
	}
	if logs[0].Level != "info" || logs[0].Message != "homed at 90.0°" {
		t.Errorf("first entry = %+v", logs[0])
	}
	if logs[1].Level != "warn" {
		t.Errorf("second entry level = %q, want warn", logs[1].Level)
	}
}

func TestLogRingDropsOldestAtCapacity(t *testing.T) {
	s := newTestServer()

	for i := 0; i < maxLogEntries+25; i++ {
		s.AddLog("info", fmt.Sprintf("event %d", i))
	}

	logs := getLogs(t, s)
	if len(logs) != maxLogEntries {
		t.Fatalf("got %d entries, want %d", len(logs), maxLogEntries)
	}
	if logs[0].Message != "event 25" {
		t.Errorf("oldest kept entry = %q, want %q", logs[0].Message, "event 25")
	}
	if last := logs[len(logs)-1].Message; last != fmt.Sprintf("event %d", maxLogEntries+24) {
		t.Errorf("newest entry = %q", last)
	}
}

func TestTrackingToggleFlipsFlagAndLogs(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest("POST", "/api/tracking", strings.NewReader(`{"enabled": false}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("POST /api/tracking: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("POST /api/tracking status = %d", resp.StatusCode)
	}

	if s.state.TrackingEnabled() {
		t.Error("tracking still enabled after toggle")
	}

	logs := getLogs(t, s)
	if len(logs) != 1 {
		t.Fatalf("got %d log entries, want 1", len(logs))
	}
	if logs[0].Message != "tracking disabled from dashboard" {
		t.Errorf("log message = %q", logs[0].Message)
	}
}
