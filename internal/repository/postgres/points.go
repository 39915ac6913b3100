package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/RMahshie/graphcapture/internal/apperrors"
	"github.com/RMahshie/graphcapture/internal/repository"
	"github.com/RMahshie/graphcapture/pkg/models"
)

// PostgresDataPointRepository implements DataPointRepository for PostgreSQL
type PostgresDataPointRepository struct {
	base
}

// NewPostgresDataPointRepository creates a new PostgreSQL data point repository
func NewPostgresDataPointRepository(db *sql.DB, timeout time.Duration) repository.DataPointRepository {
	return &PostgresDataPointRepository{base{db: db, timeout: timeout}}
}

// lockCurveTx fails with NotFound unless the curve exists. The row is held
// FOR SHARE so a concurrent delete waits for this transaction.
func lockCurveTx(ctx context.Context, tx *sql.Tx, curveID int64) error {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM curves WHERE id = $1 FOR SHARE`, curveID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NewNotFoundError("Curve")
	}
	return err
}

// AddDataPoint inserts a point after verifying its parent curve
func (r *PostgresDataPointRepository) AddDataPoint(ctx context.Context, point *models.DataPoint) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	return r.withTx(ctx, nil, "add data point", func(tx *sql.Tx) error {
		if err := lockCurveTx(ctx, tx, point.CurveID); err != nil {
			return err
		}

		query := `
			INSERT INTO data_points (curve_id, x_value, y_value)
			VALUES ($1, $2, $3)
			RETURNING id, created_at`

		err := tx.QueryRowContext(ctx, query, point.CurveID, point.XValue, point.YValue).Scan(&point.ID, &point.CreatedAt)
		if isForeignKeyViolation(err) {
			return apperrors.NewNotFoundError("Curve")
		}
		return err
	})
}

// ListDataPoints returns a curve's points ordered by ID
func (r *PostgresDataPointRepository) ListDataPoints(ctx context.Context, curveID int64) ([]models.DataPoint, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var points []models.DataPoint
	err := r.withTx(ctx, &sql.TxOptions{ReadOnly: true}, "list data points", func(tx *sql.Tx) error {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM curves WHERE id = $1)`, curveID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return apperrors.NewNotFoundError("Curve")
		}

		rows, err := tx.QueryContext(ctx, `SELECT `+pointColumns+` FROM data_points WHERE curve_id = $1 ORDER BY id`, curveID)
		if err != nil {
			return err
		}
		points, err = scanPoints(rows)
		return err
	})
	if err != nil {
		return nil, err
	}

	return points, nil
}

// DeleteDataPoint removes a single point by its own ID
func (r *PostgresDataPointRepository) DeleteDataPoint(ctx context.Context, id int64) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	result, err := r.db.ExecContext(ctx, `DELETE FROM data_points WHERE id = $1`, id)
	if err != nil {
		return storageError("delete data point", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return storageError("delete data point", err)
	}
	if n == 0 {
		return apperrors.NewNotFoundError("Data point")
	}
	return nil
}
