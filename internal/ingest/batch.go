package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"thirdcoast.systems/vodload/internal/manifest"
)

// ItemProcessor processes one manifest row to a terminal outcome.
type ItemProcessor interface {
	Process(ctx context.Context, row manifest.Row) Outcome
}

// RunStats tracks aggregate counters across a batch run.
type RunStats struct {
	Total    int
	Current  int
	Ingested int
	Skipped  int
	Failed   int
	// NotAttempted counts rows left unprocessed after cancellation.
	NotAttempted int

	UploadedObjects int
	UploadedBytes   int64
	Elapsed         time.Duration
	Canceled        bool

	Failures []Outcome
}

// Attempted is the number of rows that reached a terminal state.
func (s *RunStats) Attempted() int {
	return s.Ingested + s.Skipped + s.Failed
}

func (s *RunStats) record(o Outcome) {
	switch o.State {
	case StateDone:
		s.Ingested++
	case StateSkipped:
		s.Skipped++
	default:
		s.Failed++
		s.Failures = append(s.Failures, o)
	}
	s.UploadedObjects += o.Uploaded
	s.UploadedBytes += o.UploadedBytes
}

// RunBatch processes rows strictly in order, one at a time. An item failure
// never stops the batch; cancelling ctx stops it before the next row.
func RunBatch(ctx context.Context, p ItemProcessor, rows []manifest.Row, log *slog.Logger) RunStats {
	if log == nil {
		log = slog.Default()
	}
	started := time.Now()
	stats := RunStats{Total: len(rows)}

	log.Info("batch starting", "items", stats.Total)

	for i, row := range rows {
		if ctx.Err() != nil {
			stats.Canceled = true
			stats.NotAttempted = len(rows) - i
			log.Warn("batch interrupted", "remaining", stats.NotAttempted)
			break
		}
		stats.Current = i + 1
		log.Debug("processing item", "n", stats.Current, "of", stats.Total, "item_id", row.ID)

		stats.record(p.Process(ctx, row))
	}

	stats.Elapsed = time.Since(started)
	log.Info("batch finished",
		"ingested", stats.Ingested,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
		"not_attempted", stats.NotAttempted,
		"uploaded", humanize.Bytes(uint64(stats.UploadedBytes)),
		"took", stats.Elapsed.Round(time.Millisecond),
	)
	return stats
}
