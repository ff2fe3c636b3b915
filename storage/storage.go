package storage

import (
	"context"
	"io"

	"meetgate/config"
)

// StorageAPI is an archive target for files that leave the server, such as
// rotated access logs
type StorageAPI interface {
	Save(ctx context.Context, path string, reader io.Reader) (int64, error)
	String() string
}

// New picks the archive target from config: S3 when a bucket is set, a local
// directory otherwise. Both empty means archiving is off and nil is returned.
func New(cfg *config.ArchiveConfig) (StorageAPI, error) {
	if cfg.S3Bucket != "" {
		s3Storage, err := NewS3Storage(&Bucket{
			Name:        cfg.S3Bucket,
			Region:      cfg.S3Region,
			Endpoint:    cfg.S3Endpoint,
			Path:        cfg.S3Prefix,
			AuthDetails: cfg.S3Auth,
		})
		if err != nil {
			return nil, err
		}
		return s3Storage, nil
	}
	if cfg.Dir != "" {
		return NewDiskStorage(cfg.Dir), nil
	}
	return nil, nil
}

type countingReader struct {
	io.Reader
	n int64
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.Reader.Read(p)
	r.n += int64(n)
	return n, err
}
