package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"thirdcoast.systems/vodload/internal/objectstore"
)

// ObjectStore stores one local file under a key.
type ObjectStore interface {
	Put(ctx context.Context, bucket objectstore.Bucket, key, localPath string) (int64, error)
}

type publishResult struct {
	objects int
	bytes   int64
}

// publishArtifacts uploads every regular file in outDir (name order) to the
// segments bucket, then the thumbnail. It stops at the first failure and
// leaves already uploaded objects in place.
func (p *Processor) publishArtifacts(ctx context.Context, log *slog.Logger, id, outDir string, src ResolvedSources) (publishResult, error) {
	var res publishResult

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return res, &UploadError{ID: id, Bucket: objectstore.BucketSegments, Key: ObjectPrefix(id) + "/", Err: fmt.Errorf("list transcoder output: %w", err)}
	}

	put := func(bucket objectstore.Bucket, key, path string) error {
		putCtx, cancel := withTimeout(ctx, p.opts.NetworkTimeout)
		defer cancel()

		n, err := p.objects.Put(putCtx, bucket, key, path)
		if err != nil {
			return &UploadError{ID: id, Bucket: bucket, Key: key, Err: err}
		}
		res.objects++
		res.bytes += n
		p.metrics.uploaded(bucket, n)
		log.Debug("uploaded", "bucket", bucket, "key", key, "size", humanize.Bytes(uint64(n)))
		return nil
	}

	// os.ReadDir returns entries sorted by name.
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if err := put(objectstore.BucketSegments, SegmentKey(id, e.Name()), filepath.Join(outDir, e.Name())); err != nil {
			return res, err
		}
	}

	if err := put(objectstore.BucketThumbnails, ThumbnailKey(id, src.ImageFileName), src.ImagePath); err != nil {
		return res, err
	}

	log.Info("artifacts published", "objects", res.objects, "bytes", humanize.Bytes(uint64(res.bytes)))
	return res, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
