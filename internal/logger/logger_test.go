package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "WARN", "text")
	t.Cleanup(func() { InitWithWriter(&bytes.Buffer{}, "INFO", "text") })

	Info("hidden")
	Warn("shown", KeyFeed, "home")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "feed=home")
}

func TestJSONFormatWithContext(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "DEBUG", "json")
	t.Cleanup(func() { InitWithWriter(&bytes.Buffer{}, "INFO", "text") })

	ctx := WithContext(context.Background(), &LogContext{RequestID: "req-1", UserID: "u1"})
	InfoCtx(ctx, "fetched", KeyItems, 20)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "fetched", rec["msg"])
	assert.Equal(t, "req-1", rec[KeyRequestID])
	assert.Equal(t, "u1", rec[KeyUserID])
	assert.EqualValues(t, 20, rec[KeyItems])
}

func TestFromContextNil(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
	assert.Nil(t, FromContext(nil))
}
