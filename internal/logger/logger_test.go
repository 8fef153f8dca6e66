package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/Domenick1991/airledger/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := newWithOutput(config.LogConfig{Level: "debug", Format: "json"}, &buf)

	log.WithField("flight_number", "AB-123").Debug("booked")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "booked", entry["msg"])
	assert.Equal(t, "AB-123", entry["flight_number"])
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	log := New(config.LogConfig{Level: "chatty", Format: "text"})

	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
}
