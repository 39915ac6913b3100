package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/RMahshie/graphcapture/internal/apperrors"
	"github.com/RMahshie/graphcapture/internal/repository"
	"github.com/RMahshie/graphcapture/pkg/models"
)

const curveColumns = `id, curve_name, part_number, manufacturer, graph_title, x_label, y_label,
	other_symbols, temperature, discoveree_cat_id, x_scale, y_scale, x_unit, y_unit,
	x_min, x_max, y_min, y_max, image_key, created_at, updated_at`

const pointColumns = `id, curve_id, x_value, y_value, created_at`

// PostgresCurveRepository implements CurveRepository for PostgreSQL
type PostgresCurveRepository struct {
	base
}

// NewPostgresCurveRepository creates a new PostgreSQL curve repository.
// Every call is bounded by timeout; zero disables the bound.
func NewPostgresCurveRepository(db *sql.DB, timeout time.Duration) repository.CurveRepository {
	return &PostgresCurveRepository{base{db: db, timeout: timeout}}
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCurve(row rowScanner) (*models.Curve, error) {
	var curve models.Curve
	var partNumber, manufacturer, graphTitle, xLabel, yLabel, otherSymbols sql.NullString
	var temperature, xUnit, yUnit, imageKey sql.NullString
	var discovereeCatID sql.NullInt64

	err := row.Scan(
		&curve.ID,
		&curve.CurveName,
		&partNumber,
		&manufacturer,
		&graphTitle,
		&xLabel,
		&yLabel,
		&otherSymbols,
		&temperature,
		&discovereeCatID,
		&curve.XScale,
		&curve.YScale,
		&xUnit,
		&yUnit,
		&curve.XMin,
		&curve.XMax,
		&curve.YMin,
		&curve.YMax,
		&imageKey,
		&curve.CreatedAt,
		&curve.UpdatedAt)

	if err != nil {
		return nil, err
	}

	curve.PartNumber = nullString(partNumber)
	curve.Manufacturer = nullString(manufacturer)
	curve.GraphTitle = nullString(graphTitle)
	curve.XLabel = nullString(xLabel)
	curve.YLabel = nullString(yLabel)
	curve.OtherSymbols = nullString(otherSymbols)
	curve.Temperature = nullString(temperature)
	curve.DiscovereeCatID = nullInt64(discovereeCatID)
	curve.XUnit = nullString(xUnit)
	curve.YUnit = nullString(yUnit)
	curve.ImageKey = nullString(imageKey)
	curve.DataPoints = []models.DataPoint{}

	return &curve, nil
}

func scanPoints(rows *sql.Rows) ([]models.DataPoint, error) {
	defer rows.Close()

	points := []models.DataPoint{}
	for rows.Next() {
		var p models.DataPoint
		if err := rows.Scan(&p.ID, &p.CurveID, &p.XValue, &p.YValue, &p.CreatedAt); err != nil {
			return nil, err
		}
		points = append(points, p)
	}

	return points, rows.Err()
}

// CreateCurve inserts a curve and its embedded points in one transaction
func (r *PostgresCurveRepository) CreateCurve(ctx context.Context, curve *models.Curve) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	return r.withTx(ctx, nil, "create curve", func(tx *sql.Tx) error {
		query := `
			INSERT INTO curves (curve_name, part_number, manufacturer, graph_title, x_label, y_label,
				other_symbols, temperature, discoveree_cat_id, x_scale, y_scale, x_unit, y_unit,
				x_min, x_max, y_min, y_max)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
			RETURNING id, created_at, updated_at`

		err := tx.QueryRowContext(ctx, query,
			curve.CurveName,
			curve.PartNumber,
			curve.Manufacturer,
			curve.GraphTitle,
			curve.XLabel,
			curve.YLabel,
			curve.OtherSymbols,
			curve.Temperature,
			curve.DiscovereeCatID,
			curve.XScale,
			curve.YScale,
			curve.XUnit,
			curve.YUnit,
			curve.XMin,
			curve.XMax,
			curve.YMin,
			curve.YMax).Scan(&curve.ID, &curve.CreatedAt, &curve.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert curve: %w", err)
		}

		if len(curve.DataPoints) == 0 {
			return nil
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO data_points (curve_id, x_value, y_value)
			VALUES ($1, $2, $3)
			RETURNING id, created_at`)
		if err != nil {
			return fmt.Errorf("prepare point insert: %w", err)
		}
		defer stmt.Close()

		for i := range curve.DataPoints {
			p := &curve.DataPoints[i]
			p.CurveID = curve.ID
			if err := stmt.QueryRowContext(ctx, p.CurveID, p.XValue, p.YValue).Scan(&p.ID, &p.CreatedAt); err != nil {
				return fmt.Errorf("insert point %d: %w", i, err)
			}
		}

		return nil
	})
}

// ListCurves returns a page of curves ordered by ID, each with its points
func (r *PostgresCurveRepository) ListCurves(ctx context.Context, skip, limit int) ([]*models.Curve, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	curves := []*models.Curve{}
	err := r.withTx(ctx, &sql.TxOptions{ReadOnly: true}, "list curves", func(tx *sql.Tx) error {
		query := `SELECT ` + curveColumns + ` FROM curves ORDER BY id LIMIT $1 OFFSET $2`

		rows, err := tx.QueryContext(ctx, query, limit, skip)
		if err != nil {
			return err
		}
		defer rows.Close()

		byID := make(map[int64]*models.Curve)
		ids := []int64{}
		for rows.Next() {
			curve, err := scanCurve(rows)
			if err != nil {
				return err
			}
			curves = append(curves, curve)
			byID[curve.ID] = curve
			ids = append(ids, curve.ID)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		rows.Close()

		if len(ids) == 0 {
			return nil
		}

		pointRows, err := tx.QueryContext(ctx,
			`SELECT `+pointColumns+` FROM data_points WHERE curve_id = ANY($1) ORDER BY curve_id, id`,
			pq.Array(ids))
		if err != nil {
			return err
		}
		points, err := scanPoints(pointRows)
		if err != nil {
			return err
		}
		for _, p := range points {
			byID[p.CurveID].DataPoints = append(byID[p.CurveID].DataPoints, p)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return curves, nil
}

// GetCurve retrieves a curve and its points by ID
func (r *PostgresCurveRepository) GetCurve(ctx context.Context, id int64) (*models.Curve, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var curve *models.Curve
	err := r.withTx(ctx, &sql.TxOptions{ReadOnly: true}, "get curve", func(tx *sql.Tx) error {
		var err error
		curve, err = getCurveTx(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return curve, nil
}

func getCurveTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Curve, error) {
	curve, err := scanCurve(tx.QueryRowContext(ctx, `SELECT `+curveColumns+` FROM curves WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("Curve")
	}
	if err != nil {
		return nil, err
	}

	if err := loadPointsTx(ctx, tx, curve); err != nil {
		return nil, err
	}
	return curve, nil
}

func loadPointsTx(ctx context.Context, tx *sql.Tx, curve *models.Curve) error {
	rows, err := tx.QueryContext(ctx, `SELECT `+pointColumns+` FROM data_points WHERE curve_id = $1 ORDER BY id`, curve.ID)
	if err != nil {
		return err
	}
	points, err := scanPoints(rows)
	if err != nil {
		return err
	}
	curve.DataPoints = points
	return nil
}

// assignment is one column of a partial update
type assignment struct {
	column string
	value  any
}

// curveAssignments lists the columns present in a partial update, in a
// fixed order so generated SQL is stable. Nullable columns sent as null are
// set to NULL.
func curveAssignments(u models.CurveUpdate) []assignment {
	var out []assignment
	set := func(column string, present bool, value any) {
		if present {
			out = append(out, assignment{column: column, value: value})
		}
	}
	setNullable := func(column string, present bool, value any) {
		switch {
		case present:
			out = append(out, assignment{column: column, value: value})
		case u.IsNull(column):
			out = append(out, assignment{column: column, value: nil})
		}
	}

	set("curve_name", u.CurveName != nil, u.CurveName)
	setNullable("part_number", u.PartNumber != nil, u.PartNumber)
	setNullable("manufacturer", u.Manufacturer != nil, u.Manufacturer)
	setNullable("graph_title", u.GraphTitle != nil, u.GraphTitle)
	setNullable("x_label", u.XLabel != nil, u.XLabel)
	setNullable("y_label", u.YLabel != nil, u.YLabel)
	setNullable("other_symbols", u.OtherSymbols != nil, u.OtherSymbols)
	setNullable("temperature", u.Temperature != nil, u.Temperature)
	setNullable("discoveree_cat_id", u.DiscovereeCatID != nil, u.DiscovereeCatID)
	set("x_scale", u.XScale != nil, u.XScale)
	set("y_scale", u.YScale != nil, u.YScale)
	setNullable("x_unit", u.XUnit != nil, u.XUnit)
	setNullable("y_unit", u.YUnit != nil, u.YUnit)
	set("x_min", u.XMin != nil, u.XMin)
	set("x_max", u.XMax != nil, u.XMax)
	set("y_min", u.YMin != nil, u.YMin)
	set("y_max", u.YMax != nil, u.YMax)

	return out
}

// buildUpdateQuery renders the UPDATE statement for the given assignments.
// updated_at is always refreshed, even when no field is present.
func buildUpdateQuery(assignments []assignment) (string, []any) {
	sets := make([]string, 0, len(assignments)+1)
	args := make([]any, 0, len(assignments)+1)
	for i, a := range assignments {
		sets = append(sets, fmt.Sprintf("%s = $%d", a.column, i+1))
		args = append(args, a.value)
	}
	sets = append(sets, "updated_at = NOW()")

	query := fmt.Sprintf(`UPDATE curves SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args)+1, curveColumns)
	return query, args
}

// UpdateCurve applies the present fields of a partial update
func (r *PostgresCurveRepository) UpdateCurve(ctx context.Context, id int64, update models.CurveUpdate) (*models.Curve, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query, args := buildUpdateQuery(curveAssignments(update))
	args = append(args, id)

	var curve *models.Curve
	err := r.withTx(ctx, nil, "update curve", func(tx *sql.Tx) error {
		var err error
		curve, err = scanCurve(tx.QueryRowContext(ctx, query, args...))
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NewNotFoundError("Curve")
		}
		if err != nil {
			return err
		}
		return loadPointsTx(ctx, tx, curve)
	})
	if err != nil {
		return nil, err
	}

	return curve, nil
}

// SetImageKey records the object key of the curve's source image and
// returns the key it replaced, if any.
func (r *PostgresCurveRepository) SetImageKey(ctx context.Context, id int64, key string) (*string, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		UPDATE curves c
		SET image_key = $1, updated_at = NOW()
		FROM (SELECT id, image_key FROM curves WHERE id = $2 FOR UPDATE) previous
		WHERE c.id = previous.id
		RETURNING previous.image_key`

	var previous sql.NullString
	err := r.db.QueryRowContext(ctx, query, key, id).Scan(&previous)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("Curve")
	}
	if err != nil {
		return nil, storageError("set curve image", err)
	}

	return nullString(previous), nil
}

// DeleteCurve removes a curve; data_points rows go with it via ON DELETE CASCADE
func (r *PostgresCurveRepository) DeleteCurve(ctx context.Context, id int64) (*string, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var imageKey sql.NullString
	err := r.withTx(ctx, nil, "delete curve", func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `DELETE FROM curves WHERE id = $1 RETURNING image_key`, id).Scan(&imageKey)
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NewNotFoundError("Curve")
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	return nullString(imageKey), nil
}
