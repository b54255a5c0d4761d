package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/nijaru/yt-summary/config"
	"github.com/nijaru/yt-summary/errors"
	pkgerrors "github.com/pkg/errors"
)

// SummaryObjectKey is the single object holding the most recent summary.
const SummaryObjectKey = "last-summary.json"

type summaryObject struct {
	Summary   string    `json:"summary"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SpacesStore keeps the most recent summary in an S3-compatible bucket, such
// as DigitalOcean Spaces.
type SpacesStore struct {
	client *s3.Client
	bucket string
}

func NewSpacesStore(ctx context.Context, cfg config.SpacesConfig) (*SpacesStore, error) {
	const op = "storage.NewSpacesStore"

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, errors.Internal(op, err, "unable to load SDK config")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
	})

	return &SpacesStore{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

// Load returns the stored summary, or "" when the object does not exist yet.
func (s *SpacesStore) Load(ctx context.Context) (string, error) {
	const op = "storage.SpacesStore.Load"

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(SummaryObjectKey),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if pkgerrors.As(err, &noSuchKey) {
			return "", nil
		}
		return "", errors.Internal(op, err, "failed to get from Spaces")
	}
	defer result.Body.Close()

	var obj summaryObject
	if err := json.NewDecoder(result.Body).Decode(&obj); err != nil {
		return "", errors.Internal(op, err, "failed to decode summary object")
	}
	return obj.Summary, nil
}

// Save overwrites the stored summary.
func (s *SpacesStore) Save(ctx context.Context, summary string) error {
	const op = "storage.SpacesStore.Save"

	data, err := json.Marshal(summaryObject{
		Summary:   summary,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return errors.Internal(op, err, "failed to marshal summary object")
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(SummaryObjectKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return errors.Internal(op, err, "failed to save to Spaces")
	}
	return nil
}
