package logger_test

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/landlord/pkg/logger"
)

func TestAttrs(t *testing.T) {
	t.Parallel()

	t.Run("error", func(t *testing.T) {
		t.Parallel()

		err := errors.New("boom")
		attr := logger.Error(err)
		assert.Equal(t, "error", attr.Key)
		assert.Equal(t, err, attr.Value.Any())

		assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
	})

	t.Run("keys", func(t *testing.T) {
		t.Parallel()

		assert.True(t, slog.String("domain", "acme.example.com").Equal(logger.Domain("acme.example.com")))
		assert.True(t, slog.String("tenant_id", "t-1").Equal(logger.TenantID("t-1")))
		assert.True(t, slog.String("operation", "fetch").Equal(logger.Operation("fetch")))
		assert.True(t, slog.String("component", "landlord").Equal(logger.Component("landlord")))
	})

	t.Run("duration in milliseconds", func(t *testing.T) {
		t.Parallel()

		attr := logger.Duration(1500 * time.Microsecond)
		assert.Equal(t, "duration_ms", attr.Key)
		assert.InDelta(t, 1.5, attr.Value.Float64(), 1e-9)
	})
}
