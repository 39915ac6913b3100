package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgContainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/RMahshie/graphcapture/internal/apperrors"
	"github.com/RMahshie/graphcapture/pkg/models"
)

func ptr[T any](v T) *T { return &v }

func TestBuildUpdateQuery(t *testing.T) {
	tests := []struct {
		name      string
		update    models.CurveUpdate
		wantQuery string
		wantArgs  int
	}{
		{
			name:      "no fields only refreshes updated_at",
			update:    models.CurveUpdate{},
			wantQuery: "UPDATE curves SET updated_at = NOW() WHERE id = $1 RETURNING ",
			wantArgs:  0,
		},
		{
			name:      "single field",
			update:    models.CurveUpdate{Temperature: ptr("85C")},
			wantQuery: "UPDATE curves SET temperature = $1, updated_at = NOW() WHERE id = $2 RETURNING ",
			wantArgs:  1,
		},
		{
			name:      "fields keep column order",
			update:    models.CurveUpdate{YMax: ptr(5.0), CurveName: ptr("renamed"), XScale: ptr(models.ScaleLogarithmic)},
			wantQuery: "UPDATE curves SET curve_name = $1, x_scale = $2, y_max = $3, updated_at = NOW() WHERE id = $4 RETURNING ",
			wantArgs:  3,
		},
		{
			name:      "null clears nullable columns only",
			update:    models.CurveUpdate{XUnit: ptr("mV"), NullFields: []string{"curve_name", "temperature"}},
			wantQuery: "UPDATE curves SET temperature = $1, x_unit = $2, updated_at = NOW() WHERE id = $3 RETURNING ",
			wantArgs:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := buildUpdateQuery(curveAssignments(tt.update))
			assert.Contains(t, query, tt.wantQuery)
			assert.Len(t, args, tt.wantArgs)
		})
	}
}

// setupPostgres starts a PostgreSQL container with the schema applied
func setupPostgres(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()

	container, err := pgContainer.Run(ctx,
		"postgres:15-alpine",
		pgContainer.WithDatabase("graphcapture_test"),
		pgContainer.WithUsername("testuser"),
		pgContainer.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, container.Terminate(ctx))
	})

	dbURL, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := Open(ctx, dbURL, PoolConfig{MaxOpenConns: 5, MaxIdleConns: 2})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, EnsureSchema(ctx, db))
	// Applying twice must be harmless
	require.NoError(t, EnsureSchema(ctx, db))

	return db
}

func resetTables(t *testing.T, db *sql.DB) {
	t.Helper()
	_, err := db.Exec(`TRUNCATE curves RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
}

func countPoints(t *testing.T, db *sql.DB, curveID int64) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM data_points WHERE curve_id = $1`, curveID).Scan(&n))
	return n
}

func newTestCurve(name string, points ...[2]float64) *models.Curve {
	in := models.CurveCreate{CurveName: name}
	for _, p := range points {
		in.DataPoints = append(in.DataPoints, models.DataPointCreate{XValue: ptr(p[0]), YValue: ptr(p[1])})
	}
	return models.NewCurve(in)
}

func TestPostgresRepositories_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := setupPostgres(t)
	curves := NewPostgresCurveRepository(db, 5*time.Second)
	points := NewPostgresDataPointRepository(db, 5*time.Second)
	ctx := context.Background()

	t.Run("create with embedded points", func(t *testing.T) {
		resetTables(t, db)

		curve := newTestCurve("Id vs Vds", [2]float64{0, 0}, [2]float64{1, 2.5}, [2]float64{2, 4})
		curve.Temperature = ptr("25C")
		require.NoError(t, curves.CreateCurve(ctx, curve))

		assert.NotZero(t, curve.ID)
		assert.False(t, curve.CreatedAt.IsZero())

		stored, err := curves.GetCurve(ctx, curve.ID)
		require.NoError(t, err)
		assert.Equal(t, "Id vs Vds", stored.CurveName)
		assert.Equal(t, models.ScaleLinear, stored.XScale)
		assert.Equal(t, 100.0, stored.YMax)
		assert.Equal(t, "25C", *stored.Temperature)
		assert.Nil(t, stored.PartNumber)
		require.Len(t, stored.DataPoints, 3)
		for i, p := range stored.DataPoints {
			assert.Equal(t, curve.ID, p.CurveID)
			if i > 0 {
				assert.Greater(t, p.ID, stored.DataPoints[i-1].ID)
			}
		}
		assert.Equal(t, 2.5, stored.DataPoints[1].YValue)
	})

	t.Run("failed create persists nothing", func(t *testing.T) {
		resetTables(t, db)

		_, err := db.Exec(`ALTER TABLE data_points ADD CONSTRAINT x_value_below_1000 CHECK (x_value < 1000)`)
		require.NoError(t, err)
		t.Cleanup(func() {
			_, err := db.Exec(`ALTER TABLE data_points DROP CONSTRAINT x_value_below_1000`)
			require.NoError(t, err)
		})

		// The curve row and first point insert fine; the second point fails
		curve := newTestCurve("rolled back", [2]float64{1, 1}, [2]float64{5000, 2})

		err = curves.CreateCurve(ctx, curve)
		require.Error(t, err)
		assert.True(t, apperrors.IsStorage(err))

		list, err := curves.ListCurves(ctx, 0, 100)
		require.NoError(t, err)
		assert.Empty(t, list)

		var n int
		require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM data_points`).Scan(&n))
		assert.Equal(t, 0, n)
	})

	t.Run("oversized name persists nothing", func(t *testing.T) {
		resetTables(t, db)

		tooLong := make([]byte, 300)
		for i := range tooLong {
			tooLong[i] = 'a'
		}
		curve := newTestCurve(string(tooLong), [2]float64{1, 1})

		err := curves.CreateCurve(ctx, curve)
		require.Error(t, err)
		assert.True(t, apperrors.IsStorage(err))

		list, err := curves.ListCurves(ctx, 0, 100)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("missing curve is not found", func(t *testing.T) {
		resetTables(t, db)

		_, err := curves.GetCurve(ctx, 999)
		assert.True(t, apperrors.IsNotFound(err))

		_, err = curves.DeleteCurve(ctx, 999)
		assert.True(t, apperrors.IsNotFound(err))

		_, err = curves.UpdateCurve(ctx, 999, models.CurveUpdate{Temperature: ptr("1C")})
		assert.True(t, apperrors.IsNotFound(err))

		_, err = curves.SetImageKey(ctx, 999, "images/x.png")
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("delete cascades to points", func(t *testing.T) {
		resetTables(t, db)

		curve := newTestCurve("cascade", [2]float64{1, 1}, [2]float64{2, 2}, [2]float64{3, 3})
		require.NoError(t, curves.CreateCurve(ctx, curve))
		require.Equal(t, 3, countPoints(t, db, curve.ID))

		imageKey, err := curves.DeleteCurve(ctx, curve.ID)
		require.NoError(t, err)
		assert.Nil(t, imageKey)
		assert.Equal(t, 0, countPoints(t, db, curve.ID))

		_, err = curves.DeleteCurve(ctx, curve.ID)
		assert.True(t, apperrors.IsNotFound(err))

		_, err = points.ListDataPoints(ctx, curve.ID)
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("partial update leaves other fields", func(t *testing.T) {
		resetTables(t, db)

		curve := newTestCurve("partial", [2]float64{1, 10}, [2]float64{2, 20})
		curve.PartNumber = ptr("IRF540")
		curve.XUnit = ptr("V")
		require.NoError(t, curves.CreateCurve(ctx, curve))

		updated, err := curves.UpdateCurve(ctx, curve.ID, models.CurveUpdate{Temperature: ptr("125C")})
		require.NoError(t, err)

		assert.Equal(t, "125C", *updated.Temperature)
		assert.Equal(t, "partial", updated.CurveName)
		assert.Equal(t, "IRF540", *updated.PartNumber)
		assert.Equal(t, "V", *updated.XUnit)
		assert.Equal(t, curve.XMax, updated.XMax)
		assert.Equal(t, curve.CreatedAt.Unix(), updated.CreatedAt.Unix())
		assert.False(t, updated.UpdatedAt.Before(curve.UpdatedAt))
		require.Len(t, updated.DataPoints, 2)
		assert.Equal(t, curve.DataPoints[0].ID, updated.DataPoints[0].ID)
	})

	t.Run("null clears nullable fields", func(t *testing.T) {
		resetTables(t, db)

		curve := newTestCurve("clearing")
		curve.Temperature = ptr("25C")
		curve.PartNumber = ptr("IRF540")
		require.NoError(t, curves.CreateCurve(ctx, curve))

		var update models.CurveUpdate
		require.NoError(t, json.Unmarshal([]byte(`{"temperature": null}`), &update))

		updated, err := curves.UpdateCurve(ctx, curve.ID, update)
		require.NoError(t, err)
		assert.Nil(t, updated.Temperature)
		assert.Equal(t, "IRF540", *updated.PartNumber)

		stored, err := curves.GetCurve(ctx, curve.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.Temperature)
	})

	t.Run("skip and limit follow insertion order", func(t *testing.T) {
		resetTables(t, db)

		for _, name := range []string{"A", "B", "C"} {
			require.NoError(t, curves.CreateCurve(ctx, newTestCurve(name)))
		}

		page, err := curves.ListCurves(ctx, 1, 1)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, "B", page[0].CurveName)

		all, err := curves.ListCurves(ctx, 0, 100)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "A", all[0].CurveName)
		assert.Equal(t, "C", all[2].CurveName)
		assert.NotNil(t, all[0].DataPoints)
	})

	t.Run("list attaches points to the right curves", func(t *testing.T) {
		resetTables(t, db)

		first := newTestCurve("first", [2]float64{1, 1})
		second := newTestCurve("second", [2]float64{2, 2}, [2]float64{3, 3})
		require.NoError(t, curves.CreateCurve(ctx, first))
		require.NoError(t, curves.CreateCurve(ctx, second))

		all, err := curves.ListCurves(ctx, 0, 10)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Len(t, all[0].DataPoints, 1)
		assert.Len(t, all[1].DataPoints, 2)
		assert.Equal(t, second.ID, all[1].DataPoints[1].CurveID)
	})

	t.Run("add point requires an existing curve", func(t *testing.T) {
		resetTables(t, db)

		point := &models.DataPoint{CurveID: 4242, XValue: 1, YValue: 2}
		err := points.AddDataPoint(ctx, point)
		assert.True(t, apperrors.IsNotFound(err))
		assert.Equal(t, 0, countPoints(t, db, 4242))
	})

	t.Run("point lifecycle", func(t *testing.T) {
		resetTables(t, db)

		curve := newTestCurve("points", [2]float64{0, 0})
		require.NoError(t, curves.CreateCurve(ctx, curve))

		added := &models.DataPoint{CurveID: curve.ID, XValue: 5, YValue: 6}
		require.NoError(t, points.AddDataPoint(ctx, added))
		assert.NotZero(t, added.ID)

		list, err := points.ListDataPoints(ctx, curve.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, added.ID, list[1].ID)

		require.NoError(t, points.DeleteDataPoint(ctx, curve.DataPoints[0].ID))
		assert.True(t, apperrors.IsNotFound(points.DeleteDataPoint(ctx, curve.DataPoints[0].ID)))

		list, err = points.ListDataPoints(ctx, curve.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, added.ID, list[0].ID)
	})

	t.Run("image key round trip", func(t *testing.T) {
		resetTables(t, db)

		curve := newTestCurve("image")
		require.NoError(t, curves.CreateCurve(ctx, curve))

		first := "images/curves/1/" + uuid.New().String() + ".png"
		previous, err := curves.SetImageKey(ctx, curve.ID, first)
		require.NoError(t, err)
		assert.Nil(t, previous)

		key := "images/curves/1/" + uuid.New().String() + ".png"
		previous, err = curves.SetImageKey(ctx, curve.ID, key)
		require.NoError(t, err)
		require.NotNil(t, previous)
		assert.Equal(t, first, *previous)

		stored, err := curves.GetCurve(ctx, curve.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.ImageKey)
		assert.Equal(t, key, *stored.ImageKey)

		deletedKey, err := curves.DeleteCurve(ctx, curve.ID)
		require.NoError(t, err)
		require.NotNil(t, deletedKey)
		assert.Equal(t, key, *deletedKey)
	})

	t.Run("expired context is a timeout storage error", func(t *testing.T) {
		expired, cancel := context.WithDeadline(ctx, time.Now().Add(-time.Second))
		defer cancel()

		_, err := curves.GetCurve(expired, 1)
		require.Error(t, err)
		appErr, ok := apperrors.As(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrorTypeStorage, appErr.Type)
		assert.True(t, appErr.Timeout)
	})
}
