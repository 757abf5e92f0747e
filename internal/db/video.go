package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// VideoExists reports whether a video with the given id has been recorded.
func (q *Queries) VideoExists(ctx context.Context, id string) (bool, error) {
	_, err := q.videoExists(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup video %s: %w", id, err)
	}
	return true, nil
}

// InsertVideo records a successfully ingested video. A second insert for the
// same id fails with ErrDuplicateVideo.
func (q *Queries) InsertVideo(ctx context.Context, arg *InsertVideoParams) error {
	if err := q.insertVideo(ctx, arg); err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("insert video %s: %w: %w", arg.ID, ErrDuplicateVideo, err)
		}
		return fmt.Errorf("insert video %s: %w", arg.ID, err)
	}
	return nil
}

// FindVideo returns the recorded video or ErrVideoNotFound.
func (q *Queries) FindVideo(ctx context.Context, id string) (*Video, error) {
	v, err := q.GetVideo(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrVideoNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get video %s: %w", id, err)
	}
	return v, nil
}
