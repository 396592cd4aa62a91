// Package fsxs3 stores files as objects in one S3 bucket under an
// optional key prefix.
package fsxs3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"

	"github.com/Abraxas-365/superagent/pkg/fsx"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

type S3FileSystem struct {
	client *s3.Client
	bucket string
	prefix string
}

func NewS3FileSystem(client *s3.Client, bucket, prefix string) *S3FileSystem {
	return &S3FileSystem{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3FileSystem) key(p string) (string, error) {
	k, err := fsx.Clean(p)
	if err != nil {
		return "", err
	}
	if s.prefix != "" {
		k = path.Join(s.prefix, k)
	}
	return k, nil
}

// URI returns the s3:// address of p.
func (s *S3FileSystem) URI(p string) string {
	k, err := s.key(p)
	if err != nil {
		return ""
	}
	return "s3://" + s.bucket + "/" + k
}

func (s *S3FileSystem) ReadFile(ctx context.Context, p string) ([]byte, error) {
	k, err := s.key(p)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(k)})
	if err != nil {
		return nil, s.wrap(err, p)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fsx.ErrRegistry.NewWithCause(fsx.ErrIO, err).WithDetail("path", p)
	}
	return data, nil
}

func (s *S3FileSystem) Exists(ctx context.Context, p string) (bool, error) {
	k, err := s.key(p)
	if err != nil {
		return false, err
	}
	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(k)})
	if err == nil {
		return true, nil
	}
	if notFound(err) {
		return false, nil
	}
	return false, s.wrap(err, p)
}

func (s *S3FileSystem) WriteFile(ctx context.Context, p string, data []byte) error {
	return s.WriteFileStream(ctx, p, bytes.NewReader(data))
}

// WriteFileStream buffers r so the upload has a known length.
func (s *S3FileSystem) WriteFileStream(ctx context.Context, p string, r io.Reader) error {
	k, err := s.key(p)
	if err != nil {
		return err
	}
	body, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return fsx.ErrRegistry.NewWithCause(fsx.ErrIO, err).WithDetail("path", p)
		}
		body = bytes.NewReader(data)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(k),
		Body:        body,
		ContentType: aws.String(fsx.ContentType(k)),
	})
	if err != nil {
		return s.wrap(err, p)
	}
	return nil
}

func (s *S3FileSystem) DeleteFile(ctx context.Context, p string) error {
	k, err := s.key(p)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(k)})
	if err != nil && !notFound(err) {
		return s.wrap(err, p)
	}
	return nil
}

func (s *S3FileSystem) wrap(err error, p string) error {
	if notFound(err) {
		return fsx.ErrRegistry.New(fsx.ErrNotFound).WithDetail("path", p)
	}
	return fsx.ErrRegistry.NewWithCause(fsx.ErrIO, err).
		WithDetail("path", p).
		WithDetail("bucket", s.bucket)
}

func notFound(err error) bool {
	var (
		noKey *types.NoSuchKey
		nf    *types.NotFound
		api   smithy.APIError
	)
	if errors.As(err, &noKey) || errors.As(err, &nf) {
		return true
	}
	return errors.As(err, &api) && (api.ErrorCode() == "NotFound" || api.ErrorCode() == "NoSuchKey")
}
