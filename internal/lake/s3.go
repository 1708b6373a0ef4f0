package lake

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// deleteBatchSize is the S3 DeleteObjects request limit.
const deleteBatchSize = 1000

// S3 is an Amazon S3-backed Store addressing objects under bucket/prefix.
type S3 struct {
	bucket   string
	prefix   string
	client   *s3.S3
	uploader *s3manager.Uploader
}

// NewS3 opens an S3 store for the given bucket and key prefix. When both
// static credential fields are set they are used directly; otherwise the
// default AWS credential chain applies (environment, shared config, IAM
// role).
func NewS3(bucket, prefix string, creds Credentials) (*S3, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3: bucket must not be empty")
	}
	cfg := aws.Config{}
	if creds.Region != "" {
		cfg.Region = aws.String(creds.Region)
	}
	if creds.AccessKeyID != "" && creds.SecretAccessKey != "" {
		cfg.Credentials = credentials.NewStaticCredentials(creds.AccessKeyID, creds.SecretAccessKey, "")
	}
	sess, err := session.NewSession(&cfg)
	if err != nil {
		return nil, fmt.Errorf("s3: session: %w", err)
	}
	return &S3{
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
		client:   s3.New(sess),
		uploader: s3manager.NewUploader(sess),
	}, nil
}

// List pages through the bucket under the pattern's literal prefix and
// returns the keys matching pattern, relative to the store prefix, sorted.
func (s *S3) List(ctx context.Context, pattern string) ([]string, error) {
	listPrefix := s.fullKey(globPrefix(pattern))

	var keys []string
	err := s.client.ListObjectsPagesWithContext(ctx,
		&s3.ListObjectsInput{
			Bucket: aws.String(s.bucket),
			Prefix: aws.String(listPrefix),
		},
		func(page *s3.ListObjectsOutput, lastPage bool) bool {
			for _, obj := range page.Contents {
				key := s.relKey(aws.StringValue(obj.Key))
				if matchKey(pattern, key) {
					keys = append(keys, key)
				}
			}
			return !lastPage
		})
	if err != nil {
		return nil, fmt.Errorf("s3: list %s: %w", pattern, err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Open fetches the object at key.
func (s *S3) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(key)),
	})
	if err != nil {
		return nil, fmt.Errorf("s3: get %s: %w", key, err)
	}
	return out.Body, nil
}

// Put uploads the contents of r to key. The uploader handles multipart
// uploads for large objects.
func (s *S3) Put(ctx context.Context, key string, r io.Reader) error {
	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(key)),
		Body:   r,
	})
	if err != nil {
		return fmt.Errorf("s3: put %s: %w", key, err)
	}
	return nil
}

// DeletePrefix removes every object under prefix in batches of up to 1000
// keys per DeleteObjects call.
func (s *S3) DeletePrefix(ctx context.Context, prefix string) error {
	full := s.fullKey(prefix)
	if full != "" && !strings.HasSuffix(full, "/") {
		full += "/"
	}

	var (
		batch    []*s3.ObjectIdentifier
		flushErr error
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		_, err := s.client.DeleteObjectsWithContext(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &s3.Delete{Objects: batch, Quiet: aws.Bool(true)},
		})
		batch = batch[:0]
		return err
	}

	err := s.client.ListObjectsPagesWithContext(ctx,
		&s3.ListObjectsInput{
			Bucket: aws.String(s.bucket),
			Prefix: aws.String(full),
		},
		func(page *s3.ListObjectsOutput, lastPage bool) bool {
			for _, obj := range page.Contents {
				batch = append(batch, &s3.ObjectIdentifier{Key: obj.Key})
				if len(batch) >= deleteBatchSize {
					if flushErr = flush(); flushErr != nil {
						return false
					}
				}
			}
			return !lastPage
		})
	if err == nil {
		err = flushErr
	}
	if err == nil {
		err = flush()
	}
	if err != nil {
		return fmt.Errorf("s3: delete prefix %s: %w", prefix, err)
	}
	return nil
}

// fullKey maps a store-relative key onto the bucket keyspace.
func (s *S3) fullKey(key string) string {
	if s.prefix == "" {
		return key
	}
	if key == "" {
		return s.prefix + "/"
	}
	return s.prefix + "/" + key
}

// relKey strips the store prefix from a bucket key.
func (s *S3) relKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return strings.TrimPrefix(key, s.prefix+"/")
}
