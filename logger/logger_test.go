package logger

import (
	"testing"

	"github.com/collectwise/debtchat/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.LoggingConfig
		wantErr   bool
		wantDebug bool
	}{
		{name: "json info", cfg: config.LoggingConfig{Level: "info", Format: "json"}},
		{name: "text debug", cfg: config.LoggingConfig{Level: "debug", Format: "text"}, wantDebug: true},
		{name: "bad level", cfg: config.LoggingConfig{Level: "loud", Format: "json"}, wantErr: true},
		{name: "bad format", cfg: config.LoggingConfig{Level: "info", Format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDebug, l.Core().Enabled(zap.DebugLevel))
			assert.True(t, l.Core().Enabled(zap.InfoLevel))
		})
	}
}
