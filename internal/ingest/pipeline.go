// Package ingest runs the per-item pipeline: duplicate check, validation,
// source resolution, HLS transcode, upload and metadata insert, with the
// scratch directory removed on every exit path.
package ingest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"thirdcoast.systems/vodload/internal/db"
	"thirdcoast.systems/vodload/internal/manifest"
)

// MetadataStore is the part of the metadata store the pipeline needs.
type MetadataStore interface {
	VideoExists(ctx context.Context, id string) (bool, error)
	InsertVideo(ctx context.Context, arg *db.InsertVideoParams) error
}

// Options are the per-run paths and limits.
type Options struct {
	VideoDir   string
	ImageDir   string
	ScratchDir string

	// TranscodeTimeout bounds one transcode; NetworkTimeout bounds the
	// duplicate check, each upload and the insert. Zero means no limit.
	TranscodeTimeout time.Duration
	NetworkTimeout   time.Duration
}

type ProcessorConfig struct {
	Store      MetadataStore
	Objects    ObjectStore
	Transcoder Transcoder
	Options    Options
	Logger     *slog.Logger
	Metrics    *Metrics
}

// Processor ingests one manifest row at a time. It holds no per-item state.
type Processor struct {
	store      MetadataStore
	objects    ObjectStore
	transcoder Transcoder
	opts       Options
	log        *slog.Logger
	metrics    *Metrics
}

func NewProcessor(cfg ProcessorConfig) (*Processor, error) {
	switch {
	case cfg.Store == nil:
		return nil, errors.New("ingest: metadata store is required")
	case cfg.Objects == nil:
		return nil, errors.New("ingest: object store is required")
	case cfg.Transcoder == nil:
		return nil, errors.New("ingest: transcoder is required")
	case cfg.Options.ScratchDir == "":
		return nil, errors.New("ingest: scratch dir is required")
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Processor{
		store:      cfg.Store,
		objects:    cfg.Objects,
		transcoder: cfg.Transcoder,
		opts:       cfg.Options,
		log:        log,
		metrics:    cfg.Metrics,
	}, nil
}

// Process runs one row to a terminal state. Errors never escape: they are
// reported in the Outcome. For skipped rows Outcome.Err is ErrDuplicate.
func (p *Processor) Process(ctx context.Context, row manifest.Row) (out Outcome) {
	started := time.Now()
	log := p.log.With("item_id", row.ID, "line", row.Line)
	tr := newTracker()
	out = Outcome{ID: row.ID, Line: row.Line}
	var scratch *scratchDir

	finish := func(final State, err error) Outcome {
		// The scratch directory is gone before the result is reported.
		scratch.release()

		out.FailedAt = ""
		if final == StateFailed {
			out.FailedAt = tr.current()
		}
		tr.advance(final)
		out.State = final
		out.Err = err
		out.Trail = tr.snapshot()
		out.Elapsed = time.Since(started)
		p.metrics.itemFinished(final)

		switch final {
		case StateFailed:
			log.Error("item failed", "stage", out.FailedAt, "kind", ErrorKind(err), "error", err)
		case StateSkipped:
			log.Info("item already ingested, skipping")
		default:
			log.Info("item ingested", "hls_path", out.HLSPath, "objects", out.Uploaded, "took", out.Elapsed.Round(time.Millisecond))
		}
		return out
	}
	fail := func(err error) Outcome { return finish(StateFailed, err) }

	// Without an id the row cannot be deduplicated.
	if row.ID == "" {
		return fail(&ValidationError{Line: row.Line, Reason: "id is required"})
	}

	lookupCtx, cancel := withTimeout(ctx, p.opts.NetworkTimeout)
	exists, err := p.store.VideoExists(lookupCtx, row.ID)
	cancel()
	if err != nil {
		return fail(&LookupError{ID: row.ID, Err: err})
	}
	tr.advance(StateDedupChecked)
	if exists {
		return finish(StateSkipped, ErrDuplicate)
	}

	if err := row.Validate(); err != nil {
		return fail(&ValidationError{ID: row.ID, Line: row.Line, Reason: err.Error()})
	}
	tr.advance(StateValidated)

	src, err := ResolveSources(row, p.opts.VideoDir, p.opts.ImageDir)
	if err != nil {
		return fail(err)
	}
	tr.advance(StateResolved)
	if src.ImageInferred {
		log.Info("thumbnail name inferred from id", "image", src.ImageFileName)
	}

	scratch, err = acquireScratch(p.opts.ScratchDir, row.ID, log)
	if err != nil {
		return fail(&TranscodeError{ID: row.ID, Source: src.VideoPath, Err: err})
	}
	// finish releases it; the defer covers a panic in a stage.
	defer scratch.release()

	transcodeCtx, cancel := withTimeout(ctx, p.opts.TranscodeTimeout)
	transcodeStarted := time.Now()
	err = p.transcoder.Transcode(transcodeCtx, src.VideoPath, scratch.path)
	cancel()
	p.metrics.transcoded(time.Since(transcodeStarted))
	if err != nil {
		var te *TranscodeError
		if errors.As(err, &te) {
			te.ID = row.ID
		} else {
			err = &TranscodeError{ID: row.ID, Source: src.VideoPath, Err: err}
		}
		return fail(err)
	}
	tr.advance(StateTranscoded)

	res, err := p.publishArtifacts(ctx, log, row.ID, scratch.path, src)
	out.Uploaded = res.objects
	out.UploadedBytes = res.bytes
	if err != nil {
		return fail(err)
	}
	tr.advance(StatePublished)

	params := &db.InsertVideoParams{
		ID:            row.ID,
		Title:         row.Title,
		CreatedDate:   row.CreatedDate,
		HlsPath:       PlaylistKey(row.ID),
		ThumbnailPath: ThumbnailKey(row.ID, src.ImageFileName),
	}
	if row.Description != "" {
		desc := row.Description
		params.Description = &desc
	}

	insertCtx, cancel := withTimeout(ctx, p.opts.NetworkTimeout)
	err = p.store.InsertVideo(insertCtx, params)
	cancel()
	if err != nil {
		return fail(&PersistError{ID: row.ID, Err: err})
	}
	tr.advance(StatePersisted)

	out.HLSPath = params.HlsPath
	out.ThumbnailPath = params.ThumbnailPath
	return finish(StateDone, nil)
}
