package logger

import (
	"log/slog"
	"time"
)

// Error records err under the key "error". A nil error yields an empty Attr,
// which slog drops.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

func Domain(domain string) slog.Attr {
	return slog.String("domain", domain)
}

func TenantID(id string) slog.Attr {
	return slog.String("tenant_id", id)
}

// Operation names the upstream call or cache step being logged.
func Operation(name string) slog.Attr {
	return slog.String("operation", name)
}

func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Duration records d in milliseconds under the key "duration_ms".
func Duration(d time.Duration) slog.Attr {
	return slog.Float64("duration_ms", float64(d)/float64(time.Millisecond))
}
