package ingest

import (
	"path/filepath"

	"thirdcoast.systems/vodload/pkg/ffmpeg"
)

// ObjectPrefix is the namespace of an item's objects: "video_<id>".
func ObjectPrefix(id string) string {
	return "video_" + id
}

// SegmentKey is the HLS bucket key of one transcoder output file.
func SegmentKey(id, fileName string) string {
	return ObjectPrefix(id) + "/" + fileName
}

// PlaylistKey is the key of the index playlist, recorded as hls_path.
func PlaylistKey(id string) string {
	return SegmentKey(id, ffmpeg.HLSPlaylistName)
}

// ThumbnailKey is "video_<id>" plus the thumbnail's extension.
func ThumbnailKey(id, imageFileName string) string {
	return ObjectPrefix(id) + filepath.Ext(imageFileName)
}
