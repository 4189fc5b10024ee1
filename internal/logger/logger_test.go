package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		opts      Options
		wantLevel zapcore.Level
		wantErr   bool
	}{
		{"defaults", Options{}, zapcore.InfoLevel, false},
		{"debug console", Options{Level: "debug", Encoding: "console"}, zapcore.DebugLevel, false},
		{"warn json", Options{Level: "warn", Encoding: "json"}, zapcore.WarnLevel, false},
		{"bad level", Options{Level: "loud"}, 0, true},
		{"bad encoding", Options{Encoding: "xml"}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewLogger(tt.opts)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewLogger failed: %v", err)
			}
			if !l.Core().Enabled(tt.wantLevel) {
				t.Errorf("level %v should be enabled", tt.wantLevel)
			}
			if tt.wantLevel > zapcore.DebugLevel && l.Core().Enabled(tt.wantLevel-1) {
				t.Errorf("level %v should be disabled", tt.wantLevel-1)
			}
		})
	}
}

func TestSync_NilLogger(t *testing.T) {
	var l Logger
	if err := l.Sync(); err != nil {
		t.Errorf("Sync on empty logger = %v", err)
	}
}
