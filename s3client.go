package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/slmtnm/bnav/browse"
)

const downloadMode os.FileMode = 0o644

// S3Client adapts the AWS S3 client to browse.Store.
type S3Client struct {
	client *s3.Client
	config *S3Config
}

var (
	_ browse.Store        = (*S3Client)(nil)
	_ browse.Prober       = (*S3Client)(nil)
	_ browse.ObjectReader = (*S3Client)(nil)
)

// NewS3Client creates a new S3 client from configuration.
//
// Without keys in the config the SDK default credential chain is used.
func NewS3Client(ctx context.Context, cfg *S3Config) (*S3Client, error) {
	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, &browse.StoreError{Op: "Connect", Code: browse.CodeNoCredentials, Message: "failed to load AWS config", Err: err}
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if !cfg.IsAWS() {
			o.BaseEndpoint = aws.String(cfg.GetEndpointURL())
			o.UsePathStyle = true // Required for MinIO and some S3-compatible services
		}
	})

	return &S3Client{
		client: client,
		config: cfg,
	}, nil
}

// Probe checks the credentials by listing buckets.
func (c *S3Client) Probe(ctx context.Context) error {
	_, err := c.client.ListBuckets(ctx, &s3.ListBucketsInput{MaxBuckets: aws.Int32(1)})
	if err != nil {
		return storeError("Probe", "", "", err)
	}
	return nil
}

// HeadContainer checks if a bucket exists and is accessible.
func (c *S3Client) HeadContainer(ctx context.Context, bucket string) error {
	_, err := c.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err != nil {
		se := storeError("HeadBucket", bucket, "", err)
		// HeadBucket has no body, so a missing bucket only shows up as a bare 404.
		if se.Code == browse.CodeNotFound {
			se.Code = browse.CodeNoSuchBucket
		}
		return se
	}
	return nil
}

// ListObjects lists one page of objects in a bucket with a prefix.
// Common prefixes are returned as entries whose key ends with the delimiter.
func (c *S3Client) ListObjects(ctx context.Context, req browse.ListRequest) (*browse.ListPage, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(req.Container),
	}
	if req.Prefix != "" {
		input.Prefix = aws.String(req.Prefix)
	}
	if req.Delimiter != "" {
		input.Delimiter = aws.String(req.Delimiter)
	}
	if req.ContinuationToken != "" {
		input.ContinuationToken = aws.String(req.ContinuationToken)
	}
	if req.MaxKeys > 0 {
		input.MaxKeys = aws.Int32(int32(req.MaxKeys))
	}

	result, err := c.client.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, storeError("ListObjectsV2", req.Container, req.Prefix, err)
	}

	page := &browse.ListPage{
		Entries: make([]browse.ObjectEntry, 0, len(result.CommonPrefixes)+len(result.Contents)),
	}
	for _, prefix := range result.CommonPrefixes {
		page.Entries = append(page.Entries, browse.ObjectEntry{Key: aws.ToString(prefix.Prefix)})
	}
	for _, obj := range result.Contents {
		page.Entries = append(page.Entries, browse.ObjectEntry{
			Key:      aws.ToString(obj.Key),
			Size:     uint64(max(aws.ToInt64(obj.Size), 0)),
			Modified: aws.ToTime(obj.LastModified),
		})
	}
	if aws.ToBool(result.IsTruncated) {
		page.NextToken = aws.ToString(result.NextContinuationToken)
	}

	return page, nil
}

// PutObject uploads a local file to S3.
func (c *S3Client) PutObject(ctx context.Context, bucket, key, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open '%s': %w", localPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat '%s': %w", localPath, err)
	}

	_, err = c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
	})
	if err != nil {
		return storeError("PutObject", bucket, key, err)
	}

	return nil
}

// GetObject downloads an object from S3 to localPath.
//
// The body is written to a temporary file next to localPath and renamed into
// place, so a failed download never leaves a partial file behind.
func (c *S3Client) GetObject(ctx context.Context, bucket, key, localPath string) error {
	result, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return storeError("GetObject", bucket, key, err)
	}
	defer result.Body.Close()

	tmp, err := os.CreateTemp(filepath.Dir(localPath), "."+filepath.Base(localPath)+".*")
	if err != nil {
		return fmt.Errorf("failed to create file in '%s': %w", filepath.Dir(localPath), err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, result.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to read object data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write '%s': %w", localPath, err)
	}
	// CreateTemp uses 0600; downloads get the usual file mode.
	if err := os.Chmod(tmp.Name(), downloadMode); err != nil {
		return fmt.Errorf("failed to set mode on '%s': %w", localPath, err)
	}

	return os.Rename(tmp.Name(), localPath)
}

// ReadObject reads at most limit bytes from the start of an object.
func (c *S3Client) ReadObject(ctx context.Context, bucket, key string, limit int64) ([]byte, error) {
	result, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Range:  aws.String(fmt.Sprintf("bytes=0-%d", limit-1)),
	})
	if err != nil {
		// Ranged reads of an empty object fail with InvalidRange.
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "InvalidRange" {
			return nil, nil
		}
		return nil, storeError("GetObject", bucket, key, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(io.LimitReader(result.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("failed to read object data: %w", err)
	}

	return data, nil
}

// DeleteObject deletes an object from S3.
func (c *S3Client) DeleteObject(ctx context.Context, bucket, key string) error {
	_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return storeError("DeleteObject", bucket, key, err)
	}

	return nil
}

// storeError converts an SDK error into a browse.StoreError carrying the S3 error code.
func storeError(op, bucket, key string, err error) *browse.StoreError {
	se := &browse.StoreError{
		Op:        op,
		Container: bucket,
		Key:       key,
		Err:       err,
	}

	var noSuchKey *types.NoSuchKey
	var noSuchBucket *types.NoSuchBucket
	var notFound *types.NotFound
	var apiErr smithy.APIError

	switch {
	case errors.As(err, &noSuchKey):
		se.Code = browse.CodeNoSuchKey
	case errors.As(err, &noSuchBucket):
		se.Code = browse.CodeNoSuchBucket
	case errors.As(err, &notFound):
		se.Code = browse.CodeNotFound
	case errors.As(err, &apiErr):
		se.Code = apiErr.ErrorCode()
		se.Message = apiErr.ErrorMessage()
		return se
	default:
		se.Code = codeFromMessage(err.Error())
	}

	if errors.As(err, &apiErr) {
		se.Message = apiErr.ErrorMessage()
	}
	return se
}

// messageCodes are matched against errors that carry no API code, such as
// credential resolution failures raised before a request is signed.
var messageCodes = []struct {
	needle string
	code   string
}{
	{"failed to retrieve credentials", browse.CodeNoCredentials},
	{"no EC2 IMDS role found", browse.CodeNoCredentials},
	{"InvalidAccessKeyId", browse.CodeInvalidAccessKeyID},
	{"SignatureDoesNotMatch", browse.CodeSignatureDoesNotMatch},
	{"NoSuchBucket", browse.CodeNoSuchBucket},
	{"NoSuchKey", browse.CodeNoSuchKey},
	{"AccessDenied", browse.CodeAccessDenied},
	{"StatusCode: 403", browse.CodeForbidden},
	{"StatusCode: 404", browse.CodeNotFound},
}

func codeFromMessage(msg string) string {
	for _, m := range messageCodes {
		if strings.Contains(msg, m.needle) {
			return m.code
		}
	}
	return ""
}
