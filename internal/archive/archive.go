// Package archive stores analysis exports in S3-compatible object storage.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"regexp"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

var (
	// ErrNotConfigured is returned when no bucket is set.
	ErrNotConfigured = errors.New("archive bucket is not configured")
	// ErrInvalidName is returned for names PutAnalysis could not have produced.
	ErrInvalidName = errors.New("invalid archived analysis name")
	// ErrObjectNotFound is returned when the bucket has no such export.
	ErrObjectNotFound = errors.New("archived analysis not found")
)

var analysisName = regexp.MustCompile(`^\d+\.json$`)

// Config describes the target bucket. Endpoint and static keys are optional;
// without keys the default AWS credential chain is used.
type Config struct {
	Bucket    string `json:"bucket"`
	Endpoint  string `json:"endpoint,omitempty"`
	Region    string `json:"region,omitempty"`
	AccessKey string `json:"-"`
	SecretKey string `json:"-"`
	// PathStyle addresses objects as endpoint/bucket/key, needed by MinIO
	PathStyle bool `json:"path_style,omitempty"`
}

// Enabled reports whether a bucket is configured.
func (c Config) Enabled() bool {
	return c.Bucket != ""
}

// ObjectAPI is the subset of the S3 client the archive uses.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Archiver uploads exports to one bucket.
type Archiver struct {
	client ObjectAPI
	bucket string
	now    func() time.Time
}

// New builds an S3 client from cfg.
func New(ctx context.Context, cfg Config) (*Archiver, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}

	region := cfg.Region
	if region == "" {
		region = "auto"
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})
	return NewWithClient(client, cfg.Bucket), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client ObjectAPI, bucket string) *Archiver {
	return &Archiver{client: client, bucket: bucket, now: time.Now}
}

// AnalysisKey returns the object key for an analysis export.
func AnalysisKey(sessionID uuid.UUID, at time.Time) string {
	return fmt.Sprintf("analyses/%s/%d.json", sessionID, at.UnixNano())
}

// PutAnalysis uploads an analysis export and returns its key.
func (a *Archiver) PutAnalysis(ctx context.Context, sessionID uuid.UUID, data []byte) (string, error) {
	key := AnalysisKey(sessionID, a.now())
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	log.Printf("[archive] stored s3://%s/%s (%d bytes)", a.bucket, key, len(data))
	return key, nil
}

// GetAnalysis downloads an export stored by PutAnalysis for the session. name
// is the last element of the key PutAnalysis returned.
func (a *Archiver) GetAnalysis(ctx context.Context, sessionID uuid.UUID, name string) ([]byte, error) {
	if !analysisName.MatchString(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	key := fmt.Sprintf("analyses/%s/%s", sessionID, name)

	out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to download %s: %w", key, err)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}
