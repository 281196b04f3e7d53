package logging

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestSetup(t *testing.T) {
	tests := []struct {
		format, level string
		want          zerolog.Level
		wantErr       bool
	}{
		{"text", "", zerolog.InfoLevel, false},
		{"json", "debug", zerolog.DebugLevel, false},
		{"", "warn", zerolog.WarnLevel, false},
		{"xml", "", 0, true},
		{"text", "loud", 0, true},
	}
	for _, tt := range tests {
		log, err := Setup(tt.format, tt.level)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Setup(%q, %q): expected error", tt.format, tt.level)
			}
			continue
		}
		if err != nil {
			t.Errorf("Setup(%q, %q): %v", tt.format, tt.level, err)
			continue
		}
		if log.GetLevel() != tt.want {
			t.Errorf("Setup(%q, %q) level = %v, want %v", tt.format, tt.level, log.GetLevel(), tt.want)
		}
	}
}
