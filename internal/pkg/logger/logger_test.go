package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithKeepsFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("service", "LedgerService").Info("credit", "user_id", "u1", "amount_cents", 500)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "credit", entry.Message)
	ctx := entry.ContextMap()
	assert.Equal(t, "LedgerService", ctx["service"])
	assert.Equal(t, "u1", ctx["user_id"])
}

func TestNewModes(t *testing.T) {
	for _, mode := range []string{"dev", "production"} {
		l, err := New(mode)
		require.NoError(t, err)
		require.NotNil(t, l)
	}
	Nop().Warn("ignored")
}
