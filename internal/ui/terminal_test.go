package ui

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldUseColor(t *testing.T) {
	tests := []struct {
		name          string
		noColor       *string
		cliColor      string
		cliColorForce string
		want          bool
	}{
		{name: "NO_COLOR disables color", noColor: ptr("1"), want: false},
		{name: "NO_COLOR empty value still disables", noColor: ptr(""), cliColorForce: "1", want: false},
		{name: "CLICOLOR=0 disables color", cliColor: "0", want: false},
		{name: "CLICOLOR_FORCE enables color without a TTY", cliColorForce: "1", want: true},
		{name: "no TTY under test", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NO_COLOR", "")
			os.Unsetenv("NO_COLOR")
			if tt.noColor != nil {
				t.Setenv("NO_COLOR", *tt.noColor)
			}
			t.Setenv("CLICOLOR", tt.cliColor)
			t.Setenv("CLICOLOR_FORCE", tt.cliColorForce)

			assert.Equal(t, tt.want, ShouldUseColor())
		})
	}
}

func TestSetColorOverridesDetection(t *testing.T) {
	t.Cleanup(func() { colorOverride.Store(0) })
	t.Setenv("NO_COLOR", "1")

	SetColor(true)
	assert.True(t, colorEnabled())
	SetColor(false)
	assert.False(t, colorEnabled())
	assert.Equal(t, "draft", RenderStatus("draft"))
}

func ptr(s string) *string { return &s }
