package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"vidtube/internal/config"
	"vidtube/internal/middleware"
	"vidtube/internal/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3Store keeps assets in an S3-compatible bucket. The object key is the storage ID.
type S3Store struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	baseURL  string
	prober   *DurationProber
}

// NewS3Store configures a client and uploader targeting the media bucket from cfg.
func NewS3Store(ctx context.Context, cfg *config.Config) (*S3Store, error) {
	if strings.TrimSpace(cfg.MediaBucket) == "" {
		return nil, fmt.Errorf("s3 store: bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.MediaRegion),
	}

	if cfg.MediaAccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.MediaAccessKeyID, cfg.MediaSecretAccessKey, ""),
		))
	}

	if strings.TrimSpace(cfg.MediaEndpoint) != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, _ ...interface{}) (aws.Endpoint, error) {
			if service == s3.ServiceID {
				return aws.Endpoint{
					URL:           cfg.MediaEndpoint,
					SigningRegion: cfg.MediaRegion,
				}, nil
			}
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		})
		loadOpts = append(loadOpts, awsconfig.WithEndpointResolverWithOptions(resolver))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
		u.LeavePartsOnError = false
	})

	return &S3Store{
		client:   client,
		uploader: uploader,
		bucket:   cfg.MediaBucket,
		baseURL:  publicBaseURL(cfg),
		prober:   NewDurationProber(cfg.MediaFFProbePath),
	}, nil
}

func publicBaseURL(cfg *config.Config) string {
	if base := strings.TrimSuffix(cfg.MediaPublicBaseURL, "/"); base != "" {
		return base
	}
	if endpoint := strings.TrimSuffix(cfg.MediaEndpoint, "/"); endpoint != "" {
		return endpoint + "/" + cfg.MediaBucket
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.MediaBucket, cfg.MediaRegion)
}

// Upload pushes the staged file to the bucket. Video uploads also report their duration.
func (s *S3Store) Upload(ctx context.Context, in UploadInput) (asset *Asset, err error) {
	if in.Path == "" {
		return nil, ErrMissingFile
	}

	ctx, span := observability.TraceMediaOperation(ctx, "upload", string(in.ResourceType))
	start := time.Now()
	defer func() {
		observability.RecordError(span, err)
		observability.ObserveMedia("upload", string(in.ResourceType), start, err)
		span.End()
	}()

	f, err := os.Open(in.Path)
	if err != nil {
		return nil, fmt.Errorf("open staged file: %w", err)
	}
	defer func() { _ = f.Close() }()

	key := path.Join(folderFor(in.ResourceType), uuid.NewString()+strings.ToLower(filepath.Ext(in.Path)))
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   f,
	}
	if in.ContentType != "" {
		input.ContentType = aws.String(in.ContentType)
	}

	if _, err = s.uploader.Upload(ctx, input); err != nil {
		return nil, fmt.Errorf("s3 store upload %s: %w", key, err)
	}

	asset = &Asset{
		URL:          s.baseURL + "/" + key,
		StorageID:    key,
		ResourceType: in.ResourceType,
	}

	if in.ResourceType == ResourceVideo && s.prober != nil {
		d, probeErr := s.prober.Duration(ctx, in.Path)
		if probeErr != nil {
			middleware.Logger.WarnContext(ctx, "could not read video duration",
				slog.String("storage_id", key), slog.String("error", probeErr.Error()))
		} else {
			asset.Duration = d
		}
	}

	return asset, nil
}

// Delete removes the object identified by storageID.
func (s *S3Store) Delete(ctx context.Context, storageID string, resourceType ResourceType) (err error) {
	ctx, span := observability.TraceMediaOperation(ctx, "delete", string(resourceType))
	start := time.Now()
	defer func() {
		observability.RecordError(span, err)
		observability.ObserveMedia("delete", string(resourceType), start, err)
		span.End()
	}()

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storageID),
	})
	if err != nil {
		return fmt.Errorf("s3 store delete %s: %w", storageID, err)
	}
	return nil
}

func folderFor(rt ResourceType) string {
	switch rt {
	case ResourceVideo:
		return "videos"
	case ResourceImage:
		return "images"
	default:
		return "raw"
	}
}
