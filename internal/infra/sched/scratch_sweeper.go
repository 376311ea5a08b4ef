package sched

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ScratchSweeper periodically removes orphaned scratch files. Every pipeline
// run deletes its own scratch via defers; the sweeper only catches leftovers
// from crashes and kills, so an aggressive TTL is unnecessary.
type ScratchSweeper struct {
	dir      string
	interval time.Duration
	ttl      time.Duration
	log      *zerolog.Logger
}

func NewScratchSweeper(dir string, interval, ttl time.Duration, logger *zerolog.Logger) *ScratchSweeper {
	l := logger.With().Str("component", "ScratchSweeper").Logger()
	return &ScratchSweeper{dir: dir, interval: interval, ttl: ttl, log: &l}
}

func (w *ScratchSweeper) Run(ctx context.Context) error {
	w.log.Info().Str("dir", w.dir).Msg("starting scratch sweeper")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping scratch sweeper")
			return ctx.Err()
		case <-ticker.C:
			n := w.sweep()
			if n > 0 {
				w.log.Info().Int("count", n).Msg("orphaned scratch files removed")
			}
		}
	}
}

func (w *ScratchSweeper) sweep() int {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.log.Error().Err(err).Msg("scratch sweep failed")
		return 0
	}
	cutoff := time.Now().Add(-w.ttl)
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), "avatar-") {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(w.dir, e.Name())); err == nil {
			removed++
		}
	}
	return removed
}
