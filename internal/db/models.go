package db

import (
	"time"
)

// Video is one ingested item. Rows are written once and never updated.
type Video struct {
	ID            string
	Title         string
	Description   *string
	CreatedDate   *time.Time
	HlsPath       string
	ThumbnailPath string
	IngestedAt    time.Time
}
