package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// HLSPlaylistName is the index playlist written into every HLS output directory.
const HLSPlaylistName = "index.m3u8"

// HLSOptions configures single-rendition HLS segmentation.
type HLSOptions struct {
	VideoCodec      string // default "libx264"
	Profile         string // default "baseline"
	Level           string // default "3.0"
	AudioCodec      string // default "aac"
	SegmentDuration int    // target segment length in seconds (default 10)
	StartNumber     int    // first segment number
	// ListSize is the maximum number of playlist entries; 0 keeps every segment.
	ListSize int
}

// DefaultHLSOptions returns the broadly compatible settings used for ingest:
// baseline profile, level 3.0, 10 second segments and a full playlist.
func DefaultHLSOptions() HLSOptions {
	return HLSOptions{
		VideoCodec:      "libx264",
		Profile:         "baseline",
		Level:           "3.0",
		AudioCodec:      "aac",
		SegmentDuration: 10,
	}
}

func (o HLSOptions) withDefaults() HLSOptions {
	d := DefaultHLSOptions()
	if o.VideoCodec == "" {
		o.VideoCodec = d.VideoCodec
	}
	if o.Profile == "" {
		o.Profile = d.Profile
	}
	if o.Level == "" {
		o.Level = d.Level
	}
	if o.AudioCodec == "" {
		o.AudioCodec = d.AudioCodec
	}
	if o.SegmentDuration <= 0 {
		o.SegmentDuration = d.SegmentDuration
	}
	if o.ListSize < 0 {
		o.ListSize = 0
	}
	return o
}

// HLSCommand builds the ffmpeg command that encodes input into outputDir as an
// HLS playlist (index.m3u8) plus numbered .ts segments.
func HLSCommand(input, outputDir string, opts HLSOptions) *Command {
	opts = opts.withDefaults()
	return NewCommand(input, filepath.Join(outputDir, HLSPlaylistName),
		VideoCodec(opts.VideoCodec),
		VideoProfile(opts.Profile),
		VideoLevel(opts.Level),
		AudioCodec(opts.AudioCodec),
		ExtraArgs(
			"-start_number", itoa(opts.StartNumber),
			"-hls_time", itoa(opts.SegmentDuration),
			"-hls_list_size", itoa(opts.ListSize),
		),
		Format("hls"),
	)
}

// SegmentHLS encodes input into outputDir and blocks until ffmpeg exits.
// If progress is non-nil it receives updates and is always closed before
// SegmentHLS returns.
func SegmentHLS(ctx context.Context, input, outputDir string, opts HLSOptions, progress chan<- Progress) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		if progress != nil {
			close(progress)
		}
		return fmt.Errorf("hls: mkdir %s: %w", outputDir, err)
	}
	cmd := HLSCommand(input, outputDir, opts)
	if progress != nil {
		return cmd.RunWithProgress(ctx, progress)
	}
	return cmd.Run(ctx)
}
