package settings_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sergeii/paytv/internal/settings"
)

func TestSettings_EMMSerial(t *testing.T) {
	tests := []struct {
		name       string
		settings   settings.Settings
		wantSerial uint32
		wantEnable bool
		wantEMM    bool
	}{
		{"none", settings.Settings{}, 0, false, false},
		{"enable", settings.Settings{EnableEMM: 12345678}, 12345678, true, true},
		{"disable", settings.Settings{DisableEMM: 87654321}, 87654321, false, true},
		{"enable wins", settings.Settings{EnableEMM: 1, DisableEMM: 2}, 1, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serial, enable := tt.settings.EMMSerial()
			assert.Equal(t, tt.wantSerial, serial)
			assert.Equal(t, tt.wantEnable, enable)
			assert.Equal(t, tt.wantEMM, tt.settings.WantsEMM())
		})
	}
}
