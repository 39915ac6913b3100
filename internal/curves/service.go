package curves

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/graphcapture/internal/apperrors"
	"github.com/RMahshie/graphcapture/internal/metrics"
	"github.com/RMahshie/graphcapture/internal/repository"
	"github.com/RMahshie/graphcapture/internal/storage"
	"github.com/RMahshie/graphcapture/pkg/models"
)

// MaxListLimit bounds the size of a curve listing page
const MaxListLimit = 100

// ImageUpload is a presigned upload for a curve's source image
type ImageUpload struct {
	ImageKey  string
	UploadURL string
	ExpiresIn time.Duration
}

// ImageDownload is a presigned download for a curve's source image
type ImageDownload struct {
	ImageKey    string
	DownloadURL string
}

// CurveService implements the curve and data point operations
type CurveService interface {
	CreateCurve(ctx context.Context, in models.CurveCreate) (*models.Curve, error)
	ListCurves(ctx context.Context, skip, limit int) ([]*models.Curve, error)
	GetCurve(ctx context.Context, id int64) (*models.Curve, error)
	UpdateCurve(ctx context.Context, id int64, in models.CurveUpdate) (*models.Curve, error)
	DeleteCurve(ctx context.Context, id int64) error

	AddDataPoint(ctx context.Context, curveID int64, in models.DataPointCreate) (*models.DataPoint, error)
	ListDataPoints(ctx context.Context, curveID int64) ([]models.DataPoint, error)
	DeleteDataPoint(ctx context.Context, id int64) error

	CreateImageUpload(ctx context.Context, curveID int64, contentType string) (*ImageUpload, error)
	GetImageURL(ctx context.Context, curveID int64) (*ImageDownload, error)
}

type curveService struct {
	curves  repository.CurveRepository
	points  repository.DataPointRepository
	images  storage.S3Service
	metrics *metrics.Collector
}

// NewCurveService creates the service. images may be nil when object storage
// is not configured; collector may be nil to disable metrics.
func NewCurveService(curves repository.CurveRepository, points repository.DataPointRepository, images storage.S3Service, collector *metrics.Collector) CurveService {
	return &curveService{
		curves:  curves,
		points:  points,
		images:  images,
		metrics: collector,
	}
}

func (s *curveService) CreateCurve(ctx context.Context, in models.CurveCreate) (*models.Curve, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	curve := models.NewCurve(in)
	if err := s.curves.CreateCurve(ctx, curve); err != nil {
		return nil, err
	}

	log.Info().Int64("curveID", curve.ID).Str("curveName", curve.CurveName).Int("points", len(curve.DataPoints)).Msg("Curve created")
	if s.metrics != nil {
		s.metrics.CurvesCreated.Inc()
		s.metrics.PointsCreated.Add(float64(len(curve.DataPoints)))
	}

	return curve, nil
}

func (s *curveService) ListCurves(ctx context.Context, skip, limit int) ([]*models.Curve, error) {
	if skip < 0 {
		return nil, apperrors.NewValidationError("skip must be non-negative").
			WithFields([]apperrors.FieldError{{Field: "skip", Message: "skip must be non-negative"}})
	}
	if limit < 0 {
		return nil, apperrors.NewValidationError("limit must be non-negative").
			WithFields([]apperrors.FieldError{{Field: "limit", Message: "limit must be non-negative"}})
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if limit == 0 {
		return []*models.Curve{}, nil
	}

	return s.curves.ListCurves(ctx, skip, limit)
}

func (s *curveService) GetCurve(ctx context.Context, id int64) (*models.Curve, error) {
	return s.curves.GetCurve(ctx, id)
}

func (s *curveService) UpdateCurve(ctx context.Context, id int64, in models.CurveUpdate) (*models.Curve, error) {
	if nulls := in.NonNullableNulls(); len(nulls) > 0 {
		fields := make([]apperrors.FieldError, 0, len(nulls))
		for _, field := range nulls {
			fields = append(fields, apperrors.FieldError{Field: field, Message: field + " cannot be null"})
		}
		return nil, apperrors.NewValidationError(fields[0].Message).WithFields(fields)
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	curve, err := s.curves.UpdateCurve(ctx, id, in)
	if err != nil {
		return nil, err
	}

	log.Info().Int64("curveID", id).Msg("Curve updated")
	return curve, nil
}

func (s *curveService) DeleteCurve(ctx context.Context, id int64) error {
	imageKey, err := s.curves.DeleteCurve(ctx, id)
	if err != nil {
		return err
	}

	log.Info().Int64("curveID", id).Msg("Curve deleted")
	if s.metrics != nil {
		s.metrics.CurvesDeleted.Inc()
	}

	// The curve is already gone; a leftover image is only logged
	if imageKey != nil && s.images != nil {
		if err := s.images.DeleteFile(ctx, *imageKey); err != nil {
			log.Warn().Err(err).Int64("curveID", id).Str("imageKey", *imageKey).Msg("Failed to delete curve image")
		}
	}

	return nil
}

func (s *curveService) AddDataPoint(ctx context.Context, curveID int64, in models.DataPointCreate) (*models.DataPoint, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	point := models.NewDataPoint(curveID, in)
	if err := s.points.AddDataPoint(ctx, &point); err != nil {
		return nil, err
	}

	log.Info().Int64("curveID", curveID).Int64("pointID", point.ID).Msg("Data point added")
	if s.metrics != nil {
		s.metrics.PointsCreated.Inc()
	}

	return &point, nil
}

func (s *curveService) ListDataPoints(ctx context.Context, curveID int64) ([]models.DataPoint, error) {
	return s.points.ListDataPoints(ctx, curveID)
}

func (s *curveService) DeleteDataPoint(ctx context.Context, id int64) error {
	if err := s.points.DeleteDataPoint(ctx, id); err != nil {
		return err
	}

	log.Info().Int64("pointID", id).Msg("Data point deleted")
	if s.metrics != nil {
		s.metrics.PointsDeleted.Inc()
	}
	return nil
}

func (s *curveService) CreateImageUpload(ctx context.Context, curveID int64, contentType string) (*ImageUpload, error) {
	if s.images == nil {
		return nil, apperrors.NewStorageError("image storage is not configured", nil)
	}

	key, err := storage.ImageKey(curveID, uuid.New().String(), contentType)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error()).
			WithFields([]apperrors.FieldError{{Field: "content_type", Message: err.Error()}})
	}

	// Confirm the curve exists before handing out a URL
	if _, err := s.curves.GetCurve(ctx, curveID); err != nil {
		return nil, err
	}

	uploadURL, err := s.images.GenerateUploadURL(ctx, key, contentType)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to prepare image upload", err)
	}

	previous, err := s.curves.SetImageKey(ctx, curveID, key)
	if err != nil {
		return nil, err
	}

	// The replaced image is no longer referenced; a leftover is only logged
	if previous != nil && *previous != key {
		if err := s.images.DeleteFile(ctx, *previous); err != nil {
			log.Warn().Err(err).Int64("curveID", curveID).Str("imageKey", *previous).Msg("Failed to delete replaced curve image")
		}
	}

	log.Info().Int64("curveID", curveID).Str("imageKey", key).Msg("Curve image upload prepared")
	return &ImageUpload{
		ImageKey:  key,
		UploadURL: uploadURL,
		ExpiresIn: storage.UploadURLExpiry,
	}, nil
}

func (s *curveService) GetImageURL(ctx context.Context, curveID int64) (*ImageDownload, error) {
	if s.images == nil {
		return nil, apperrors.NewStorageError("image storage is not configured", nil)
	}

	curve, err := s.curves.GetCurve(ctx, curveID)
	if err != nil {
		return nil, err
	}
	if curve.ImageKey == nil {
		return nil, apperrors.NewNotFoundError("Curve image")
	}

	downloadURL, err := s.images.GenerateDownloadURL(ctx, *curve.ImageKey)
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to prepare download for curve %d", curveID), err)
	}

	return &ImageDownload{ImageKey: *curve.ImageKey, DownloadURL: downloadURL}, nil
}
