package discord

import (
	"log/slog"
	"time"
)

func step(label string) func() {
	start := time.Now()
	return func() { slog.Debug("trace", "step", label, "dur", time.Since(start)) }
}
