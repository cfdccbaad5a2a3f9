package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogger() (*ZeroLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return FromZerolog(zerolog.New(buf)), buf
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	return m
}

func TestNewFallsBackToInfoOnUnknownLevel(t *testing.T) {
	l := New("not-a-level", false)
	require.NotNil(t, l)
	assert.Equal(t, zerolog.InfoLevel, l.zlog.GetLevel())
}

func TestEventFieldsAreStructured(t *testing.T) {
	l, buf := captureLogger()

	l.Error().
		Err(errors.New("boom")).
		Str("transaction_id", "tx-1").
		Int("attempt", 2).
		Dur("elapsed", 1500*time.Millisecond).
		Interface("extra", []int{1, 2}).
		Msg("transaction failed")

	m := decode(t, buf)
	assert.Equal(t, "error", m["level"])
	assert.Equal(t, "boom", m["error"])
	assert.Equal(t, "tx-1", m["transaction_id"])
	assert.EqualValues(t, 2, m["attempt"])
	assert.Equal(t, "transaction failed", m["message"])
}

func TestMsgfFormats(t *testing.T) {
	l, buf := captureLogger()

	l.Warn().Msgf("retry %d of %d", 1, 3)

	m := decode(t, buf)
	assert.Equal(t, "retry 1 of 3", m["message"])
}

func TestWithFieldsAttachesToAllEvents(t *testing.T) {
	l, buf := captureLogger()

	scoped := l.WithFields(map[string]any{"vendor": "postgresql"})
	scoped.Info().Msg("connected")

	m := decode(t, buf)
	assert.Equal(t, "postgresql", m["vendor"])
}

func TestDebugRespectsLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	l := FromZerolog(zerolog.New(buf).Level(zerolog.InfoLevel))

	l.Debug().Msg("hidden")
	assert.Zero(t, buf.Len())
}
