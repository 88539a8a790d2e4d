package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		expected zerolog.Level
	}{
		{name: "empty uses default", level: "", expected: DefaultLevel},
		{name: "debug", level: "debug", expected: zerolog.DebugLevel},
		{name: "upper case", level: "INFO", expected: zerolog.InfoLevel},
		{name: "padded", level: " error ", expected: zerolog.ErrorLevel},
		{name: "unknown uses default", level: "loud", expected: DefaultLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.level))
		})
	}
}

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn", false)

	log.Info().Msg("hidden")
	log.Warn().Str("slot", "sss_key").Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"message":"shown"`)
	assert.Contains(t, out, `"slot":"sss_key"`)
}
