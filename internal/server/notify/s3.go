package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}

	newObjectID = uuid.NewString
)

// S3Settings locates the outbox bucket. BaseEndpoint points at MinIO or any
// other S3-compatible store; empty uses the AWS default.
type S3Settings struct {
	Bucket       string
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
}

// S3Outbox stores each rendered message as an HTML object. A mailer process
// picks objects up from the bucket and delivers them.
type S3Outbox struct {
	bucket string
	client *s3.Client
	now    func() time.Time
}

func NewS3Outbox(ctx context.Context, s S3Settings) (*S3Outbox, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.AccessKey,
			s.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Outbox{bucket: s.Bucket, client: client, now: time.Now}, nil
}

func (o *S3Outbox) objectKey() string {
	d := o.now().UTC()
	return fmt.Sprintf("outbox/password-reset/%d/%02d/%02d/%s.html", d.Year(), d.Month(), d.Day(), newObjectID())
}

func (o *S3Outbox) Send(ctx context.Context, msg *Message) error {
	key := o.objectKey()
	_, err := putObject(o.client, ctx, &s3.PutObjectInput{
		Bucket:      aws.String(o.bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(msg.HTML),
		ContentType: aws.String("text/html; charset=utf-8"),
		Metadata: map[string]string{
			"to":      msg.To,
			"subject": msg.Subject,
		},
	})
	if err != nil {
		return fmt.Errorf("outbox put %s: %w", key, err)
	}
	return nil
}
