package application

import (
	"thirdcoast.systems/vodload/internal/config"
	"thirdcoast.systems/vodload/internal/objectstore"
)

// objectStoreAttempts disables SDK retries: an upload that fails fails its
// item, and the next run retries it.
const objectStoreAttempts = 1

// NewObjectStore builds the S3/MinIO client from configuration.
func NewObjectStore(conf config.Config) (*objectstore.Client, error) {
	return objectstore.New(objectstore.Options{
		Endpoint:         conf.MinioURL(),
		Region:           conf.MinioRegion,
		AccessKey:        conf.MinioAccessKey,
		SecretKey:        conf.MinioSecretKey,
		SegmentsBucket:   conf.MinioBucketHLS,
		ThumbnailsBucket: conf.MinioBucketThumb,
		MaxAttempts:      objectStoreAttempts,
	})
}
