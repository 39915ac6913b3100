package repository

import (
	"context"

	"github.com/RMahshie/graphcapture/pkg/models"
)

// CurveRepository defines the interface for curve data operations.
// Implementations return apperrors kinds: NotFound for missing curves and
// Storage for every persistence fault.
type CurveRepository interface {
	// CreateCurve persists the curve and its embedded points atomically and
	// fills in generated IDs and timestamps.
	CreateCurve(ctx context.Context, curve *models.Curve) error
	ListCurves(ctx context.Context, skip, limit int) ([]*models.Curve, error)
	GetCurve(ctx context.Context, id int64) (*models.Curve, error)
	UpdateCurve(ctx context.Context, id int64, update models.CurveUpdate) (*models.Curve, error)
	// SetImageKey stores the curve's image key and returns the key it
	// replaced, if any.
	SetImageKey(ctx context.Context, id int64, key string) (*string, error)
	// DeleteCurve removes the curve and its points, returning the image key
	// the curve referenced, if any.
	DeleteCurve(ctx context.Context, id int64) (*string, error)
}

// DataPointRepository defines the interface for data point operations
type DataPointRepository interface {
	// AddDataPoint verifies the parent curve and inserts the point, filling
	// in its ID and timestamp.
	AddDataPoint(ctx context.Context, point *models.DataPoint) error
	ListDataPoints(ctx context.Context, curveID int64) ([]models.DataPoint, error)
	DeleteDataPoint(ctx context.Context, id int64) error
}
