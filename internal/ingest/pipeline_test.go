package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thirdcoast.systems/vodload/internal/db"
	"thirdcoast.systems/vodload/internal/manifest"
	"thirdcoast.systems/vodload/internal/objectstore"
)

func demoRow(t *testing.T) manifest.Row {
	t.Helper()
	rows, err := manifest.FromRecords([][]string{
		{"id", "title", "videoFileName", "date"},
		{"7", "Demo", "demo", "45000"},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	return rows[0]
}

func TestProcess_Success(t *testing.T) {
	f := newFixture(t)
	touch(t, f.videoDir, "demo.mp4")
	touch(t, f.imageDir, "image7.jpg")

	out := f.processor.Process(context.Background(), demoRow(t))

	require.NoError(t, out.Err)
	assert.Equal(t, StateDone, out.State)
	assert.True(t, out.Succeeded())
	assert.Equal(t, []State{
		StateStart, StateDedupChecked, StateValidated, StateResolved,
		StateTranscoded, StatePublished, StatePersisted, StateDone,
	}, out.Trail)
	assert.Equal(t, "video_7/index.m3u8", out.HLSPath)
	assert.Equal(t, "video_7.jpg", out.ThumbnailPath)
	assert.Equal(t, 4, out.Uploaded)

	assert.Equal(t, []string{
		"video_7/index.m3u8",
		"video_7/index0.ts",
		"video_7/index1.ts",
		"video_7.jpg",
	}, f.objects.keys())
	assert.Equal(t, objectstore.BucketSegments, f.objects.puts[0].Bucket)
	assert.Equal(t, objectstore.BucketThumbnails, f.objects.puts[3].Bucket)
	assert.Equal(t, filepath.Join(f.imageDir, "image7.jpg"), f.objects.puts[3].Path)

	require.Equal(t, 1, f.transcoder.calls)
	assert.NoDirExists(t, f.transcoder.outDirs[0])

	rec, ok := f.store.videos["7"]
	require.True(t, ok)
	assert.Equal(t, "Demo", rec.Title)
	assert.Nil(t, rec.Description)
	assert.Equal(t, "video_7/index.m3u8", rec.HlsPath)
	assert.Equal(t, "video_7.jpg", rec.ThumbnailPath)
	require.NotNil(t, rec.CreatedDate)
	assert.Equal(t, time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC), *rec.CreatedDate)
}

func TestProcess_ExplicitThumbnailExtension(t *testing.T) {
	f := newFixture(t)
	touch(t, f.videoDir, "clip.mov")
	touch(t, f.imageDir, "cover.PNG")

	out := f.processor.Process(context.Background(), manifest.Row{
		ID: "abc", Title: "Clip", Description: "desc", VideoFileName: "clip.mov", ImageFileName: "cover.PNG",
	})
	require.NoError(t, out.Err)
	assert.Equal(t, "video_abc.PNG", out.ThumbnailPath)

	rec := f.store.videos["abc"]
	require.NotNil(t, rec.Description)
	assert.Equal(t, "desc", *rec.Description)
	assert.Nil(t, rec.CreatedDate)
}

func TestProcess_SkipsRecordedItem(t *testing.T) {
	f := newFixture(t)
	touch(t, f.videoDir, "demo.mp4")
	touch(t, f.imageDir, "image7.jpg")
	f.store.videos["7"] = db.InsertVideoParams{ID: "7"}

	out := f.processor.Process(context.Background(), demoRow(t))

	assert.Equal(t, StateSkipped, out.State)
	assert.True(t, out.Skipped())
	assert.ErrorIs(t, out.Err, ErrDuplicate)
	assert.Equal(t, []State{StateStart, StateDedupChecked, StateSkipped}, out.Trail)
	assert.Equal(t, 0, f.transcoder.calls)
	assert.Empty(t, f.objects.puts)
	assert.Equal(t, 0, f.store.inserts)
	requireEmptyDir(t, f.scratchDir)
}

func TestProcess_ValidationFailures(t *testing.T) {
	tests := []struct {
		name     string
		row      manifest.Row
		failedAt State
		lookups  int
	}{
		{"missing title", manifest.Row{ID: "1", VideoFileName: "a.mp4"}, StateDedupChecked, 1},
		{"missing both file names", manifest.Row{ID: "2", Title: "T"}, StateDedupChecked, 1},
		{"bad date", manifest.Row{ID: "3", Title: "T", VideoFileName: "a.mp4", DateErr: errors.New("unrecognized date")}, StateDedupChecked, 1},
		{"missing id", manifest.Row{Line: 9, Title: "T", VideoFileName: "a.mp4"}, StateStart, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			touch(t, f.videoDir, "a.mp4")

			out := f.processor.Process(context.Background(), tt.row)

			require.True(t, out.Failed())
			var verr *ValidationError
			require.ErrorAs(t, out.Err, &verr)
			assert.Equal(t, tt.failedAt, out.FailedAt)
			assert.Equal(t, StateFailed, out.Trail[len(out.Trail)-1])
			assert.Equal(t, tt.lookups, f.store.lookups)
			assert.Equal(t, 0, f.transcoder.calls)
			assert.Empty(t, f.objects.puts)
			requireEmptyDir(t, f.scratchDir)
		})
	}
}

func TestProcess_MissingSources(t *testing.T) {
	t.Run("video", func(t *testing.T) {
		f := newFixture(t)
		touch(t, f.imageDir, "image7.jpg")

		out := f.processor.Process(context.Background(), demoRow(t))

		var nf *SourceNotFoundError
		require.ErrorAs(t, out.Err, &nf)
		assert.Equal(t, "video", nf.Kind)
		assert.Equal(t, filepath.Join(f.videoDir, "demo"), nf.Path)
		assert.Equal(t, StateValidated, out.FailedAt)
		requireEmptyDir(t, f.scratchDir)
	})

	t.Run("inferred image", func(t *testing.T) {
		f := newFixture(t)
		touch(t, f.videoDir, "demo.mp4")

		out := f.processor.Process(context.Background(), demoRow(t))

		var nf *SourceNotFoundError
		require.ErrorAs(t, out.Err, &nf)
		assert.Equal(t, "image", nf.Kind)
		assert.True(t, nf.Inferred)
		assert.Equal(t, filepath.Join(f.imageDir, "image7.jpg"), nf.Path)
		assert.Contains(t, nf.Error(), "inferred")
		assert.Equal(t, 0, f.transcoder.calls)
		requireEmptyDir(t, f.scratchDir)
	})
}

func TestProcess_LookupError(t *testing.T) {
	f := newFixture(t)
	f.store.lookupErr = errors.New("connection refused")

	out := f.processor.Process(context.Background(), demoRow(t))

	var lerr *LookupError
	require.ErrorAs(t, out.Err, &lerr)
	assert.Equal(t, StateStart, out.FailedAt)
	assert.Equal(t, []State{StateStart, StateFailed}, out.Trail)
	assert.Equal(t, 0, f.store.inserts)
}

func TestProcess_TranscodeFailure(t *testing.T) {
	f := newFixture(t)
	touch(t, f.videoDir, "demo.mp4")
	touch(t, f.imageDir, "image7.jpg")
	f.transcoder.err = &TranscodeError{Source: "demo.mp4", Diagnostic: "Invalid data found when processing input", Err: errors.New("exit status 1")}

	out := f.processor.Process(context.Background(), demoRow(t))

	var terr *TranscodeError
	require.ErrorAs(t, out.Err, &terr)
	assert.Equal(t, "7", terr.ID)
	assert.Contains(t, terr.Error(), "Invalid data found")
	assert.Equal(t, StateResolved, out.FailedAt)
	assert.Empty(t, f.objects.puts)
	assert.Equal(t, 0, f.store.inserts)
	assert.NoDirExists(t, f.transcoder.outDirs[0])
}

func TestProcess_PlainTranscoderErrorIsWrapped(t *testing.T) {
	f := newFixture(t)
	touch(t, f.videoDir, "demo.mp4")
	touch(t, f.imageDir, "image7.jpg")
	f.transcoder.err = context.DeadlineExceeded

	out := f.processor.Process(context.Background(), demoRow(t))

	var terr *TranscodeError
	require.ErrorAs(t, out.Err, &terr)
	assert.ErrorIs(t, out.Err, context.DeadlineExceeded)
	assert.Equal(t, "transcode", ErrorKind(out.Err))
}

func TestProcess_UploadFailure(t *testing.T) {
	f := newFixture(t)
	touch(t, f.videoDir, "demo.mp4")
	touch(t, f.imageDir, "image7.jpg")
	f.objects.failKey = "video_7/index0.ts"

	out := f.processor.Process(context.Background(), demoRow(t))

	var uerr *UploadError
	require.ErrorAs(t, out.Err, &uerr)
	assert.Equal(t, "video_7/index0.ts", uerr.Key)
	assert.Equal(t, objectstore.BucketSegments, uerr.Bucket)
	assert.ErrorIs(t, out.Err, errUploadRefused)
	assert.Equal(t, StateTranscoded, out.FailedAt)

	// no compensating delete, no insert
	assert.Equal(t, []string{"video_7/index.m3u8"}, f.objects.keys())
	assert.Equal(t, 1, out.Uploaded)
	assert.Equal(t, 0, f.store.inserts)
	assert.NoDirExists(t, f.transcoder.outDirs[0])
}

func TestProcess_PersistFailure(t *testing.T) {
	f := newFixture(t)
	touch(t, f.videoDir, "demo.mp4")
	touch(t, f.imageDir, "image7.jpg")
	f.store.insertErr = errors.New("disk full")

	out := f.processor.Process(context.Background(), demoRow(t))

	var perr *PersistError
	require.ErrorAs(t, out.Err, &perr)
	assert.Equal(t, StatePublished, out.FailedAt)
	assert.Len(t, f.objects.puts, 4)
	assert.NoDirExists(t, f.transcoder.outDirs[0])
}

func TestProcess_RemovesStaleScratch(t *testing.T) {
	f := newFixture(t)
	touch(t, f.videoDir, "demo.mp4")
	touch(t, f.imageDir, "image7.jpg")
	touch(t, filepath.Join(f.scratchDir, "7"), "index9.ts")

	out := f.processor.Process(context.Background(), demoRow(t))

	require.NoError(t, out.Err)
	assert.Empty(t, f.transcoder.seen)
	assert.NotContains(t, f.objects.keys(), "video_7/index9.ts")
	requireEmptyDir(t, f.scratchDir)
}

func TestProcess_SanitizesScratchName(t *testing.T) {
	f := newFixture(t)
	touch(t, f.videoDir, "demo.mp4")
	touch(t, f.imageDir, "cover.jpg")

	out := f.processor.Process(context.Background(), manifest.Row{
		ID: "../escape", Title: "T", VideoFileName: "demo.mp4", ImageFileName: "cover.jpg",
	})
	require.NoError(t, out.Err)
	require.Len(t, f.transcoder.outDirs, 1)
	assert.Equal(t, f.scratchDir, filepath.Dir(f.transcoder.outDirs[0]))
	assert.Equal(t, "video_../escape/index.m3u8", out.HLSPath)
}

func TestProcess_Metrics(t *testing.T) {
	f := newFixture(t)
	touch(t, f.videoDir, "demo.mp4")
	touch(t, f.imageDir, "image7.jpg")

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	p, err := NewProcessor(ProcessorConfig{
		Store:      f.store,
		Objects:    f.objects,
		Transcoder: f.transcoder,
		Options:    Options{VideoDir: f.videoDir, ImageDir: f.imageDir, ScratchDir: f.scratchDir},
		Logger:     discardLogger(),
		Metrics:    metrics,
	})
	require.NoError(t, err)

	ctx := context.Background()
	require.True(t, p.Process(ctx, demoRow(t)).Succeeded())
	require.True(t, p.Process(ctx, demoRow(t)).Skipped())
	require.True(t, p.Process(ctx, manifest.Row{ID: "x"}).Failed())

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.items.WithLabelValues("ingested")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.items.WithLabelValues("skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.items.WithLabelValues("failed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.uploads.WithLabelValues("segments")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.uploads.WithLabelValues("thumbnails")))
	assert.Greater(t, testutil.ToFloat64(metrics.uploadedBytes), 0.0)
}

func TestNewProcessor_RequiresDependencies(t *testing.T) {
	_, err := NewProcessor(ProcessorConfig{})
	require.Error(t, err)

	_, err = NewProcessor(ProcessorConfig{Store: newMemStore(), Objects: &memObjects{}, Transcoder: &fakeTranscoder{}})
	require.Error(t, err, "scratch dir is required")
}
