// Package s3images keeps marker images in an S3-compatible bucket (MinIO in
// development). Image ids are object keys.
package s3images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/ermil/internal/server/providers"
	"github.com/google/uuid"
)

const providerName = "s3"

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type Options struct {
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
	Bucket       string
}

type Host struct {
	client objectAPI
	bucket string
	caller providers.Caller
	now    func() time.Time
}

func NewHost(ctx context.Context, opts Options, caller providers.Caller) (*Host, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(opts.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.AccessKey,
			opts.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if opts.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(opts.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &Host{client: client, bucket: opts.Bucket, caller: caller, now: time.Now}, nil
}

// NewObjectKey returns markers/<yyyy>/<mm>/<dd>/<uuid>.png for t.
func NewObjectKey(t time.Time) string {
	return fmt.Sprintf("markers/%04d/%02d/%02d/%s.png", t.Year(), t.Month(), t.Day(), uuid.New())
}

func (h *Host) Upload(ctx context.Context, image []byte) (string, error) {
	key := NewObjectKey(h.now().UTC())

	err := h.caller.Do(ctx, providerName, "upload", func(ctx context.Context) error {
		_, err := h.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(h.bucket),
			Key:           aws.String(key),
			Body:          bytes.NewReader(image),
			ContentType:   aws.String("image/png"),
			ContentLength: aws.Int64(int64(len(image))),
		})
		return classify("upload", err)
	})
	if err != nil {
		return "", err
	}

	return key, nil
}

// Delete removes the object. S3 reports success for keys that do not exist.
func (h *Host) Delete(ctx context.Context, id string) error {
	return h.caller.Do(ctx, providerName, "delete", func(ctx context.Context) error {
		_, err := h.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(h.bucket),
			Key:    aws.String(id),
		})
		return classify("delete", err)
	})
}

func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var re *awshttp.ResponseError
	if errors.As(err, &re) {
		return &providers.Error{Provider: providerName, Op: op, Status: re.HTTPStatusCode(), Err: err}
	}

	return providers.TransportError(providerName, op, err)
}
