package storage

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

type S3Storage struct {
	Bucket   Bucket
	s3Client s3iface.S3API
}

func NewS3Storage(bucket *Bucket) (*S3Storage, error) {
	svc, err := bucket.CreateSVC()
	if err != nil {
		return nil, err
	}
	return &S3Storage{Bucket: *bucket, s3Client: svc}, nil
}

// Save uploads the reader to <prefix>/<path>
func (s *S3Storage) Save(ctx context.Context, path string, reader io.Reader) (int64, error) {
	body := &countingReader{Reader: reader}
	uploader := s3manager.NewUploaderWithClient(s.s3Client)
	_, err := uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.Bucket.Name),
		Key:         aws.String(s.Bucket.GetRemotePath(path)),
		ContentType: aws.String("application/x-ndjson"),
		Body:        body,
	})
	return body.n, err
}

func (s *S3Storage) String() string {
	return "s3://" + s.Bucket.Name + "/" + s.Bucket.GetRemotePath("")
}
