package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name     string
		s        string
		maxLen   int
		expected string
	}{
		{name: "shorter than max", s: "hello", maxLen: 10, expected: "hello"},
		{name: "equal to max", s: "hello", maxLen: 5, expected: "hello"},
		{name: "longer than max", s: "https://host.example", maxLen: 8, expected: "https..."},
		{name: "maxLen less than 3", s: "hello", maxLen: 2, expected: "he"},
		{name: "maxLen exactly 3", s: "hello", maxLen: 3, expected: "..."},
		{name: "empty string", s: "", maxLen: 5, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TruncateString(tt.s, tt.maxLen))
		})
	}
}

func TestPadString(t *testing.T) {
	assert.Equal(t, "hi   ", PadString("hi", 5))
	assert.Equal(t, "hello!", PadString("hello!", 5))
	assert.Equal(t, "", PadString("", 0))
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	cols := []Column{
		{Name: "Key", Key: "Key"},
		{Name: "Value", Key: "Value", Width: 10},
	}
	rows := []map[string]string{
		{"Key": "store", "Value": "sqlite"},
		{"Key": "data_dir", "Value": "/very/long/data/dir"},
	}

	RenderTable(&buf, cols, rows)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Key")
	assert.Contains(t, lines[1], "sqlite")
	assert.Contains(t, lines[2], "/very/l...")
}

func TestRenderTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	RenderTable(&buf, []Column{{Name: "Key", Key: "Key"}}, nil)
	assert.Empty(t, buf.String())
}
