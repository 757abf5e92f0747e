package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"thirdcoast.systems/vodload/internal/db"
	"thirdcoast.systems/vodload/internal/objectstore"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore is an in-memory MetadataStore.
type memStore struct {
	mu        sync.Mutex
	videos    map[string]db.InsertVideoParams
	lookupErr error
	insertErr error
	lookups   int
	inserts   int
}

func newMemStore() *memStore {
	return &memStore{videos: map[string]db.InsertVideoParams{}}
}

func (s *memStore) VideoExists(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++
	if s.lookupErr != nil {
		return false, s.lookupErr
	}
	_, ok := s.videos[id]
	return ok, nil
}

func (s *memStore) InsertVideo(ctx context.Context, arg *db.InsertVideoParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserts++
	if s.insertErr != nil {
		return s.insertErr
	}
	if _, ok := s.videos[arg.ID]; ok {
		return db.ErrDuplicateVideo
	}
	s.videos[arg.ID] = *arg
	return nil
}

type putCall struct {
	Bucket objectstore.Bucket
	Key    string
	Path   string
}

// memObjects records uploads and can fail on a chosen key.
type memObjects struct {
	mu      sync.Mutex
	puts    []putCall
	failKey string
	failAll bool
	// blockKey makes Put wait for its context on that key.
	blockKey string
}

var errUploadRefused = errors.New("upload refused")

func (o *memObjects) Put(ctx context.Context, bucket objectstore.Bucket, key, localPath string) (int64, error) {
	if key == o.blockKey {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.failAll || key == o.failKey {
		return 0, errUploadRefused
	}
	info, err := os.Stat(localPath)
	if err != nil {
		return 0, err
	}
	o.puts = append(o.puts, putCall{Bucket: bucket, Key: key, Path: localPath})
	return info.Size(), nil
}

func (o *memObjects) keys() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.puts))
	for i, p := range o.puts {
		out[i] = p.Key
	}
	return out
}

// fakeTranscoder writes a two-segment HLS output.
type fakeTranscoder struct {
	calls    int
	outDirs  []string
	err      error
	noOutput bool
	// blockOn makes Transcode wait for its context when the source has
	// this base name.
	blockOn string
	// seen lists the files present in outDir when Transcode was called.
	seen []string
}

func (f *fakeTranscoder) Transcode(ctx context.Context, sourcePath, outDir string) error {
	f.calls++
	f.outDirs = append(f.outDirs, outDir)

	entries, _ := os.ReadDir(outDir)
	for _, e := range entries {
		f.seen = append(f.seen, e.Name())
	}

	if f.err != nil {
		return f.err
	}
	if f.blockOn != "" && filepath.Base(sourcePath) == f.blockOn {
		<-ctx.Done()
		return ctx.Err()
	}
	if f.noOutput {
		return nil
	}
	files := map[string]string{
		"index.m3u8": "#EXTM3U\n#EXTINF:10.0,\nindex0.ts\n#EXTINF:4.2,\nindex1.ts\n#EXT-X-ENDLIST\n",
		"index0.ts":  "segment-0",
		"index1.ts":  "segment-1",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(outDir, name), []byte(body), 0o644); err != nil {
			return err
		}
	}
	return nil
}

type fixture struct {
	videoDir   string
	imageDir   string
	scratchDir string
	store      *memStore
	objects    *memObjects
	transcoder *fakeTranscoder
	processor  *Processor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	f := &fixture{
		videoDir:   filepath.Join(root, "video"),
		imageDir:   filepath.Join(root, "image"),
		scratchDir: filepath.Join(root, "temp_hls"),
		store:      newMemStore(),
		objects:    &memObjects{},
		transcoder: &fakeTranscoder{},
	}
	for _, d := range []string{f.videoDir, f.imageDir, f.scratchDir} {
		require.NoError(t, os.MkdirAll(d, 0o755))
	}
	f.processor = f.newProcessor(t, f.store)
	return f
}

func (f *fixture) newProcessor(t *testing.T, store MetadataStore) *Processor {
	t.Helper()
	return f.newProcessorWith(t, store, discardLogger(), nil)
}

// newProcessorWith builds a processor over the fixture directories; tune may
// adjust the options before construction.
func (f *fixture) newProcessorWith(t *testing.T, store MetadataStore, log *slog.Logger, tune func(*Options)) *Processor {
	t.Helper()
	opts := Options{
		VideoDir:   f.videoDir,
		ImageDir:   f.imageDir,
		ScratchDir: f.scratchDir,
	}
	if tune != nil {
		tune(&opts)
	}
	p, err := NewProcessor(ProcessorConfig{
		Store:      store,
		Objects:    f.objects,
		Transcoder: f.transcoder,
		Options:    opts,
		Logger:     log,
	})
	require.NoError(t, err)
	return p
}

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte("data:"+name), 0o644))
	return p
}

func requireEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries, "expected %s to be empty", dir)
}
