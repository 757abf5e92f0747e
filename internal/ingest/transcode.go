package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"thirdcoast.systems/vodload/pkg/ffmpeg"
)

// Transcoder turns one source video into an HLS playlist and segments in outDir.
type Transcoder interface {
	Transcode(ctx context.Context, sourcePath, outDir string) error
}

// FFmpegTranscoder runs a single ffmpeg process per item.
type FFmpegTranscoder struct {
	Options ffmpeg.HLSOptions
	Log     *slog.Logger

	// probe returns the source duration for progress percentages.
	probe func(ctx context.Context, path string) (time.Duration, error)
}

func NewFFmpegTranscoder(log *slog.Logger) *FFmpegTranscoder {
	if log == nil {
		log = slog.Default()
	}
	return &FFmpegTranscoder{
		Options: ffmpeg.DefaultHLSOptions(),
		Log:     log,
		probe:   ffmpeg.ProbeDuration,
	}
}

// Transcode blocks until ffmpeg exits. A non-zero exit, or a clean exit that
// left no playlist behind, is a *TranscodeError.
func (t *FFmpegTranscoder) Transcode(ctx context.Context, sourcePath, outDir string) error {
	log := t.Log.With("source", sourcePath)

	var total time.Duration
	if t.probe != nil {
		d, err := t.probe(ctx, sourcePath)
		if err != nil {
			log.Debug("duration probe failed; progress percentages disabled", "error", err)
		} else {
			total = d
		}
	}

	progress := make(chan ffmpeg.Progress, 16)
	logged := make(chan struct{})
	go func() {
		defer close(logged)
		logProgress(log, progress, total)
	}()

	started := time.Now()
	err := ffmpeg.SegmentHLS(ctx, sourcePath, outDir, t.Options, progress)
	<-logged

	if err != nil {
		te := &TranscodeError{Source: sourcePath, Err: err}
		var ffErr *ffmpeg.Error
		if errors.As(err, &ffErr) {
			te.Diagnostic = ffErr.Diagnostic()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			te.Err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		return te
	}

	playlist := filepath.Join(outDir, ffmpeg.HLSPlaylistName)
	if info, statErr := os.Stat(playlist); statErr != nil || !info.Mode().IsRegular() {
		return &TranscodeError{Source: sourcePath, Err: fmt.Errorf("ffmpeg exited cleanly but produced no %s", ffmpeg.HLSPlaylistName)}
	}

	log.Info("transcode finished", "took", time.Since(started).Round(time.Millisecond), "media_duration", total)
	return nil
}

// logProgress logs at every 10% step when the total duration is known and
// drains the channel until it is closed.
func logProgress(log *slog.Logger, progress <-chan ffmpeg.Progress, total time.Duration) {
	mark := 10.0
	for p := range progress {
		if total <= 0 {
			continue
		}
		pct := p.Percent(total)
		if pct < mark {
			continue
		}
		log.Info("transcoding",
			"percent", int(pct),
			"speed", p.Speed,
			"output_size", humanize.Bytes(uint64(max(p.TotalSize, 0))),
		)
		for mark <= pct {
			mark += 10
		}
	}
}
