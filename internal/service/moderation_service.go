package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/rs/zerolog/log"

	appconfig "github.com/Lwan2205/storefront/internal/config"
	"github.com/Lwan2205/storefront/internal/utils"
)

// ImageModerator screens uploaded product images before they are staged.
type ImageModerator interface {
	Check(ctx context.Context, image []byte) error
}

// rekognitionAPI is the subset of the Rekognition client used here.
type rekognitionAPI interface {
	DetectModerationLabels(ctx context.Context, in *rekognition.DetectModerationLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectModerationLabelsOutput, error)
}

// ModerationService rejects images that AWS Rekognition flags as unsafe.
type ModerationService struct {
	client        rekognitionAPI
	minConfidence float64
}

// NewModerationService returns a Rekognition-backed moderator, or a
// pass-through one when moderation is disabled.
func NewModerationService(ctx context.Context, cfg *appconfig.AWSConfig) (ImageModerator, error) {
	if !cfg.ModerationEnabled {
		return NopModerator{}, nil
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.RekognitionRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config: %w", err)
	}
	return &ModerationService{
		client:        rekognition.NewFromConfig(awsCfg),
		minConfidence: cfg.MinConfidence,
	}, nil
}

// Check returns utils.ErrImageRejected when any moderation label is found.
func (s *ModerationService) Check(ctx context.Context, image []byte) error {
	out, err := s.client.DetectModerationLabels(ctx, &rekognition.DetectModerationLabelsInput{
		Image:         &types.Image{Bytes: image},
		MinConfidence: aws.Float32(float32(s.minConfidence)),
	})
	if err != nil {
		return fmt.Errorf("moderation failed: %w", err)
	}
	if len(out.ModerationLabels) == 0 {
		return nil
	}

	names := make([]string, 0, len(out.ModerationLabels))
	for _, l := range out.ModerationLabels {
		names = append(names, aws.ToString(l.Name))
	}
	log.Warn().Strs("labels", names).Msg("Product image rejected by moderation")
	return fmt.Errorf("%w: %s", utils.ErrImageRejected, strings.Join(names, ", "))
}

// NopModerator accepts every image.
type NopModerator struct{}

func (NopModerator) Check(context.Context, []byte) error { return nil }
