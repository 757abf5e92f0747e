package db

import (
	"context"
	"time"
)

const videoExists = `-- name: VideoExists :one
SELECT id FROM videos WHERE id = $1
`

func (q *Queries) videoExists(ctx context.Context, id string) (string, error) {
	row := q.db.QueryRow(ctx, videoExists, id)
	var found string
	err := row.Scan(&found)
	return found, err
}

const insertVideo = `-- name: InsertVideo :exec
INSERT INTO videos (id, title, description, created_date, hls_path, thumbnail_path)
VALUES ($1, $2, $3, $4, $5, $6)
`

type InsertVideoParams struct {
	ID            string
	Title         string
	Description   *string
	CreatedDate   *time.Time
	HlsPath       string
	ThumbnailPath string
}

func (q *Queries) insertVideo(ctx context.Context, arg *InsertVideoParams) error {
	_, err := q.db.Exec(ctx, insertVideo,
		arg.ID,
		arg.Title,
		arg.Description,
		arg.CreatedDate,
		arg.HlsPath,
		arg.ThumbnailPath,
	)
	return err
}

const getVideo = `-- name: GetVideo :one
SELECT id, title, description, created_date, hls_path, thumbnail_path, ingested_at
FROM videos
WHERE id = $1
`

func (q *Queries) GetVideo(ctx context.Context, id string) (*Video, error) {
	row := q.db.QueryRow(ctx, getVideo, id)
	var i Video
	err := row.Scan(
		&i.ID,
		&i.Title,
		&i.Description,
		&i.CreatedDate,
		&i.HlsPath,
		&i.ThumbnailPath,
		&i.IngestedAt,
	)
	return &i, err
}

const countVideos = `-- name: CountVideos :one
SELECT count(*) FROM videos
`

func (q *Queries) CountVideos(ctx context.Context) (int64, error) {
	row := q.db.QueryRow(ctx, countVideos)
	var count int64
	err := row.Scan(&count)
	return count, err
}
