package tui

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestDetectMode_NonFileWriterIsPlain(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, ModePlain, DetectMode(&buf))
	assert.False(t, IsStyled(&buf))
}

func TestDetectMode_EnvOverrides(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"plain override", "PGROWS_PLAIN", "1"},
		{"ci", "CI", "true"},
		{"no color", "NO_COLOR", "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			var buf bytes.Buffer
			assert.Equal(t, ModePlain, DetectMode(&buf))
		})
	}
}

func TestRender_PlainReturnsInput(t *testing.T) {
	style := lipgloss.NewStyle().Bold(true)
	assert.Equal(t, "[ERROR]", Render(style, "[ERROR]", false))
}
