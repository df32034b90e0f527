package cli

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		level log.Level
		debug bool
		info  bool
	}{
		{log.DebugLevel, true, true},
		{log.InfoLevel, false, true},
		{log.WarnLevel, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			var buf bytes.Buffer
			l := newLogger(&buf, tt.level)
			l.Debug("debug line")
			l.Info("info line")
			out := buf.String()
			if got := strings.Contains(out, "debug line"); got != tt.debug {
				t.Errorf("debug logged = %v, want %v", got, tt.debug)
			}
			if got := strings.Contains(out, "info line"); got != tt.info {
				t.Errorf("info logged = %v, want %v", got, tt.info)
			}
		})
	}
}

func TestProgressDone(t *testing.T) {
	var buf bytes.Buffer
	newProgress(newLogger(&buf, log.InfoLevel)).done("solve complete", "solved", 2, "failed", 0)

	out := buf.String()
	if !regexp.MustCompile(`^\d\d:\d\d:\d\d\.\d\d `).MatchString(out) {
		t.Errorf("missing timestamp: %q", out)
	}
	for _, want := range []string{"solve complete", "solved=2", "failed=0", "elapsed="} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}
