// Package s3 implements the Object Store Adapter (OSA, spec.md §2): put,
// get, delete, and presign of opaque blobs under stable keys, against any
// S3-compatible endpoint (including Cloudflare R2).
package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/SkyAerope/Brainpile/pkg/config"
	"github.com/SkyAerope/Brainpile/pkg/core"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// presignTTL is the validity window for presigned GET URLs (spec.md §6:
// "Presigned URLs valid for 3600s").
const presignTTL = 3600 * time.Second

// Client wraps the S3 SDK client with the narrow put/get/delete/presign
// surface the ingestion-and-retrieval engine needs.
type Client struct {
	raw           *s3.Client
	presignClient *s3.PresignClient
	bucket        string
}

// NewClient builds a Client from the process configuration, targeting any
// S3-compatible endpoint via path-style addressing.
func NewClient(ctx context.Context, cfg config.S3Config) (*Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	raw := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	return &Client{
		raw:           raw,
		presignClient: s3.NewPresignClient(raw),
		bucket:        cfg.Bucket,
	}, nil
}

// Put uploads bytes under key, returning a StoreError on failure.
func (c *Client) Put(ctx context.Context, key string, data []byte, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: &c.bucket,
		Key:    &key,
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = &contentType
	}
	if _, err := c.raw.PutObject(ctx, input); err != nil {
		return &core.StoreError{Op: "s3.Put(" + key + ")", Err: err}
	}
	return nil
}

// Get downloads the bytes stored under key.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := c.raw.GetObject(ctx, &s3.GetObjectInput{Bucket: &c.bucket, Key: &key})
	if err != nil {
		return nil, &core.StoreError{Op: "s3.Get(" + key + ")", Err: err}
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, &core.StoreError{Op: "s3.Get(" + key + ")", Err: err}
	}
	return data, nil
}

// Delete removes the blob stored under key. Deletion failures are reported
// but, per spec.md §4.8, are treated as best-effort by callers.
func (c *Client) Delete(ctx context.Context, key string) error {
	if _, err := c.raw.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &c.bucket, Key: &key}); err != nil {
		return &core.StoreError{Op: "s3.Delete(" + key + ")", Err: err}
	}
	return nil
}

// Presign generates a time-limited GET URL for key, valid for 3600s
// (spec.md §6).
func (c *Client) Presign(ctx context.Context, key string) (string, error) {
	req, err := c.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &c.bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignTTL))
	if err != nil {
		return "", &core.StoreError{Op: "s3.Presign(" + key + ")", Err: err}
	}
	return req.URL, nil
}
