// Package objectstore uploads local files to an S3-compatible store such as MinIO.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
)

// Bucket names a logical destination; Options maps it to a real bucket.
type Bucket int

const (
	BucketSegments Bucket = iota
	BucketThumbnails
)

func (b Bucket) String() string {
	switch b {
	case BucketSegments:
		return "segments"
	case BucketThumbnails:
		return "thumbnails"
	default:
		return fmt.Sprintf("bucket(%d)", int(b))
	}
}

type Options struct {
	Endpoint         string // base URL, e.g. http://localhost:9000
	Region           string
	AccessKey        string
	SecretKey        string
	SegmentsBucket   string
	ThumbnailsBucket string
	// MaxAttempts bounds SDK retries per request; 0 keeps the SDK default.
	MaxAttempts int
}

// Client uploads files with PutObject using path-style addressing.
type Client struct {
	s3      *s3.Client
	buckets map[Bucket]string
}

func New(opts Options) (*Client, error) {
	if opts.Endpoint == "" {
		return nil, errors.New("objectstore: endpoint is required")
	}
	if opts.SegmentsBucket == "" || opts.ThumbnailsBucket == "" {
		return nil, errors.New("objectstore: both bucket names are required")
	}
	region := opts.Region
	if region == "" {
		region = "us-east-1"
	}

	client := s3.New(s3.Options{
		Region:                     region,
		BaseEndpoint:               aws.String(opts.Endpoint),
		UsePathStyle:               true,
		Credentials:                credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		RetryMaxAttempts:           opts.MaxAttempts,
		RequestChecksumCalculation: aws.RequestChecksumCalculationWhenRequired,
		ResponseChecksumValidation: aws.ResponseChecksumValidationWhenRequired,
	})

	return &Client{
		s3: client,
		buckets: map[Bucket]string{
			BucketSegments:   opts.SegmentsBucket,
			BucketThumbnails: opts.ThumbnailsBucket,
		},
	}, nil
}

// BucketName returns the configured bucket for b.
func (c *Client) BucketName(b Bucket) string {
	return c.buckets[b]
}

// Put uploads the file at localPath under key and returns the number of bytes sent.
func (c *Client) Put(ctx context.Context, bucket Bucket, key, localPath string) (int64, error) {
	name, ok := c.buckets[bucket]
	if !ok {
		return 0, fmt.Errorf("objectstore: unknown bucket %s", bucket)
	}

	contentType, err := ContentType(localPath)
	if err != nil {
		return 0, err
	}

	f, err := os.Open(localPath)
	if err != nil {
		return 0, fmt.Errorf("objectstore: open %s: %w", localPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("objectstore: stat %s: %w", localPath, err)
	}

	_, err = c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(name),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return 0, fmt.Errorf("objectstore: put %s/%s: %w", name, key, err)
	}
	return info.Size(), nil
}

// ContentType picks the MIME type for an upload. HLS files are mapped by
// extension; everything else is sniffed from the file content.
func ContentType(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".m3u8":
		return "application/vnd.apple.mpegurl", nil
	case ".ts":
		return "video/mp2t", nil
	}
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("objectstore: detect content type of %s: %w", path, err)
	}
	return mt.String(), nil
}
