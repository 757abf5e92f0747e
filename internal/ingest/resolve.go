package ingest

import (
	"os"
	"path/filepath"

	"golang.org/x/text/unicode/norm"

	"thirdcoast.systems/vodload/internal/manifest"
)

const (
	defaultVideoExt = ".mp4"
	defaultImageExt = ".jpg"
)

// ResolvedSources are the on-disk inputs of one item. Both paths are
// existing regular files.
type ResolvedSources struct {
	VideoPath string
	ImagePath string
	// ImageFileName is the adopted thumbnail name; its extension is used in
	// the thumbnail object key.
	ImageFileName string
	ImageInferred bool
}

// ResolveSources turns the row's file names into verified paths. Missing
// extensions default to .mp4 and .jpg when such a file exists, and a missing
// thumbnail name falls back to image<id>.jpg.
func ResolveSources(row manifest.Row, videoRoot, imageRoot string) (ResolvedSources, error) {
	if err := row.Validate(); err != nil {
		return ResolvedSources{}, &ValidationError{ID: row.ID, Line: row.Line, Reason: err.Error()}
	}

	videoName := withDefaultExt(videoRoot, row.VideoFileName, defaultVideoExt)
	imageName := withDefaultExt(imageRoot, row.ImageFileName, defaultImageExt)

	inferred := false
	if imageName == "" {
		imageName = "image" + row.ID + defaultImageExt
		inferred = true
	}

	var out ResolvedSources

	if videoName == "" {
		return out, &SourceNotFoundError{ID: row.ID, Kind: "video"}
	}
	adopted, ok := lookupFile(videoRoot, videoName)
	if !ok {
		return out, &SourceNotFoundError{ID: row.ID, Kind: "video", Path: filepath.Join(videoRoot, videoName), Err: os.ErrNotExist}
	}
	out.VideoPath = filepath.Join(videoRoot, adopted)

	adopted, ok = lookupFile(imageRoot, imageName)
	if !ok {
		return out, &SourceNotFoundError{
			ID:       row.ID,
			Kind:     "image",
			Path:     filepath.Join(imageRoot, imageName),
			Inferred: inferred,
			Err:      os.ErrNotExist,
		}
	}
	out.ImagePath = filepath.Join(imageRoot, adopted)
	out.ImageFileName = adopted
	out.ImageInferred = inferred

	return out, nil
}

// withDefaultExt appends ext to an extensionless name when root/name+ext
// exists. Otherwise name is returned unchanged.
func withDefaultExt(root, name, ext string) string {
	if name == "" || filepath.Ext(name) != "" {
		return name
	}
	if adopted, ok := lookupFile(root, name+ext); ok {
		return adopted
	}
	return name
}

// lookupFile finds name under root as a regular file, trying the name as
// given and its NFC and NFD forms. Spreadsheet text is usually composed while
// some filesystems store decomposed names.
func lookupFile(root, name string) (string, bool) {
	for _, candidate := range []string{name, norm.NFC.String(name), norm.NFD.String(name)} {
		info, err := os.Stat(filepath.Join(root, candidate))
		if err == nil && info.Mode().IsRegular() {
			return candidate, true
		}
	}
	return "", false
}
