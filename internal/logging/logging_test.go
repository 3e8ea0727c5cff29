package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/jrsteele09/go-market-client/internal/logging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestSetupWriterJSON(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	var buf bytes.Buffer
	logger := logging.SetupWriter(&buf, "warn", "PROD")

	logger.Info().Msg("dropped")
	logger.Warn().Str("path", "/products").Msg("kept")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "kept", line["message"])
	require.Equal(t, "/products", line["path"])
}

func TestSetupWriterBadLevelDefaultsToInfo(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	var buf bytes.Buffer
	logging.SetupWriter(&buf, "loud", "PROD")
	require.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
