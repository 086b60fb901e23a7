// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

package log_test

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"

	"github.com/obolnetwork/picarlo/app/errors"
	"github.com/obolnetwork/picarlo/app/log"
	"github.com/obolnetwork/picarlo/app/z"
)

func TestWithContext(t *testing.T) {
	buf := setupJSON(t)

	ctx1 := context.Background()
	ctx2 := log.WithCtx(ctx1, z.Int("wrap2", 2))
	ctx3a := log.WithCtx(ctx2, z.Str("wrap3", "a"))
	ctx3b := log.WithCtx(ctx3a, z.Str("wrap3", "b")) // Overrides ctx3a field of same name.

	log.Debug(ctx1, "msg1", z.Int("ctx1", 1))
	log.Info(ctx2, "msg2", z.Int("ctx2", 2))
	log.Warn(ctx3b, "msg3b", nil)

	lines := decodeLines(t, buf.String())
	require.Len(t, lines, 3)

	require.Equal(t, "msg1", lines[0]["msg"])
	require.EqualValues(t, 1, lines[0]["ctx1"])
	require.NotContains(t, lines[0], "wrap2")

	require.Equal(t, "info", lines[1]["level"])
	require.EqualValues(t, 2, lines[1]["wrap2"])

	require.Equal(t, "warn", lines[2]["level"])
	require.Equal(t, "b", lines[2]["wrap3"])
}

func TestErrorWrap(t *testing.T) {
	buf := setupJSON(t)

	err1 := errors.New("first", z.Int("1", 1))
	err2 := errors.Wrap(err1, "second", z.Int("2", 2))

	log.Error(context.Background(), "third", err2, z.F64("3", 3))

	lines := decodeLines(t, buf.String())
	require.Len(t, lines, 1)
	require.Equal(t, "third: second: first", lines[0]["msg"])
	require.EqualValues(t, 1, lines[0]["1"])
	require.EqualValues(t, 2, lines[0]["2"])
	require.EqualValues(t, 3, lines[0]["3"])
	require.Contains(t, lines[0], "stacktrace")
}

func TestErrorWrapOther(t *testing.T) {
	buf := setupJSON(t)

	log.Error(context.Background(), "wrap", io.EOF)

	lines := decodeLines(t, buf.String())
	require.Len(t, lines, 1)
	require.Equal(t, "wrap: EOF", lines[0]["msg"])
}

func TestTopic(t *testing.T) {
	buf := setupJSON(t)

	ctx := log.WithTopic(context.Background(), "bench")
	log.Info(ctx, "topic")

	lines := decodeLines(t, buf.String())
	require.Equal(t, "bench", lines[0]["topic"])
}

func TestConsole(t *testing.T) {
	var buf zaptest.Buffer
	log.InitConsoleForT(t, &buf, stubTime)

	log.Info(log.WithTopic(context.Background(), "estimate"), "Estimate complete", z.Int("workers", 4))

	line := buf.Lines()[0]
	require.True(t, strings.HasPrefix(line, "00:00 INFO estimate   Estimate complete"), line)
	require.Contains(t, line, `"workers": 4`)
}

func TestLogfmt(t *testing.T) {
	var buf zaptest.Buffer
	log.InitLogfmtForT(t, &buf, stubTime)

	log.Info(context.Background(), "logfmt", z.Str("label", "serial"))

	require.Contains(t, buf.String(), "label=serial")
	require.Contains(t, buf.String(), "msg=logfmt")
}

func TestFilterAll(t *testing.T) {
	buf := setupJSON(t)

	ctx := context.Background()

	filter := log.Filter(log.WithFilterRateLimit(0)) // Limit of 0 only allows the initial burst.
	log.Info(ctx, "should", filter)
	log.Info(ctx, "all", filter)
	log.Info(ctx, "be", filter)
	log.Info(ctx, "dropped", filter)

	lines := decodeLines(t, buf.String())
	require.Len(t, lines, 1)
	require.Equal(t, "should", lines[0]["msg"])
}

func TestFilterDefault(t *testing.T) {
	buf := setupJSON(t)

	ctx := context.Background()

	filter := log.Filter() // Default limit allows 1 per minute
	log.Info(ctx, "expect", filter)
	log.Info(ctx, "dropped", filter)
	log.Info(ctx, "dropped", filter)

	lines := decodeLines(t, buf.String())
	require.Len(t, lines, 1)
	require.Equal(t, "expect", lines[0]["msg"])
}

func TestFilterNone(t *testing.T) {
	buf := setupJSON(t)

	ctx := context.Background()

	filter := log.Filter(log.WithFilterRateLimit(math.MaxInt64))
	log.Info(ctx, "expect1", filter)
	time.Sleep(time.Millisecond) // Sleep a little since we do not configure bursts.
	log.Info(ctx, "expect2", filter)

	require.Len(t, decodeLines(t, buf.String()), 2)
}

func TestConfig(t *testing.T) {
	conf := log.DefaultConfig()
	level, err := conf.ZapLevel()
	require.NoError(t, err)
	require.Equal(t, zapcore.InfoLevel, level)

	conf.Color = "force"
	color, err := conf.InferColor()
	require.NoError(t, err)
	require.True(t, color)

	conf.Color = "rainbow"
	_, err = conf.InferColor()
	require.ErrorContains(t, err, "invalid --log-color value")

	conf = log.DefaultConfig()
	conf.Format = "xml"
	require.ErrorContains(t, log.InitLogger(conf), "invalid logger format")

	conf = log.DefaultConfig()
	conf.Level = "loud"
	require.ErrorContains(t, log.InitLogger(conf), "parse level")
}

func stubTime(config *zapcore.EncoderConfig) {
	config.EncodeTime = func(_ time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString("00:00")
	}
}

// setupJSON returns a buffer that json logs are written to.
func setupJSON(t *testing.T) *zaptest.Buffer {
	t.Helper()

	var buf zaptest.Buffer
	log.InitJSONForT(t, &buf, stubTime)

	return &buf
}

func decodeLines(t *testing.T, s string) []map[string]any {
	t.Helper()

	var resp []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(s), "\n") {
		if line == "" {
			continue
		}

		m := make(map[string]any)
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		resp = append(resp, m)
	}

	return resp
}
