package models

import (
	"bytes"
	"encoding/json"
	"slices"
	"time"
)

// Axis scale values accepted for x_scale and y_scale
const (
	ScaleLinear      = "Linear"
	ScaleLogarithmic = "Logarithmic"
)

// Defaults applied to a curve's axis configuration when the client omits them
const (
	DefaultScale   = ScaleLinear
	DefaultAxisMin = 0.0
	DefaultAxisMax = 100.0
)

// Curve represents a stored curve record (for internal use)
type Curve struct {
	ID              int64
	CurveName       string
	PartNumber      *string
	Manufacturer    *string
	GraphTitle      *string
	XLabel          *string
	YLabel          *string
	OtherSymbols    *string
	Temperature     *string
	DiscovereeCatID *int64
	XScale          string
	YScale          string
	XUnit           *string
	YUnit           *string
	XMin            float64
	XMax            float64
	YMin            float64
	YMax            float64
	ImageKey        *string
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// Ordered by point ID
	DataPoints []DataPoint
}

// DataPoint represents a stored x/y sample belonging to a curve
type DataPoint struct {
	ID        int64
	CurveID   int64
	XValue    float64
	YValue    float64
	CreatedAt time.Time
}

// DataPointCreate is the input shape for a new data point
type DataPointCreate struct {
	XValue *float64 `json:"x_value" required:"true" doc:"X coordinate of the sample" validate:"required"`
	YValue *float64 `json:"y_value" required:"true" doc:"Y coordinate of the sample" validate:"required"`
}

// CurveCreate is the input shape for a new curve. Nil optional fields are
// stored as NULL, except scales and bounds which fall back to their defaults.
type CurveCreate struct {
	CurveName       string            `json:"curve_name" minLength:"1" maxLength:"255" required:"true" doc:"Curve name" validate:"required,max=255"`
	PartNumber      *string           `json:"part_number,omitempty" nullable:"true" maxLength:"255" doc:"Part number of the measured component" validate:"omitnil,max=255"`
	Manufacturer    *string           `json:"manufacturer,omitempty" nullable:"true" maxLength:"255" doc:"Component manufacturer" validate:"omitnil,max=255"`
	GraphTitle      *string           `json:"graph_title,omitempty" nullable:"true" maxLength:"255" doc:"Title of the source graph" validate:"omitnil,max=255"`
	XLabel          *string           `json:"x_label,omitempty" nullable:"true" maxLength:"255" doc:"X axis label" validate:"omitnil,max=255"`
	YLabel          *string           `json:"y_label,omitempty" nullable:"true" maxLength:"255" doc:"Y axis label" validate:"omitnil,max=255"`
	OtherSymbols    *string           `json:"other_symbols,omitempty" nullable:"true" doc:"Other symbols printed on the graph"`
	Temperature     *string           `json:"temperature,omitempty" nullable:"true" maxLength:"100" doc:"Measurement temperature" validate:"omitnil,max=100"`
	DiscovereeCatID *int64            `json:"discoveree_cat_id,omitempty" nullable:"true" doc:"Discoveree category identifier"`
	XScale          *string           `json:"x_scale,omitempty" enum:"Linear,Logarithmic" doc:"X axis scale, defaults to Linear" validate:"omitnil,oneof=Linear Logarithmic"`
	YScale          *string           `json:"y_scale,omitempty" enum:"Linear,Logarithmic" doc:"Y axis scale, defaults to Linear" validate:"omitnil,oneof=Linear Logarithmic"`
	XUnit           *string           `json:"x_unit,omitempty" nullable:"true" maxLength:"100" doc:"X axis unit" validate:"omitnil,max=100"`
	YUnit           *string           `json:"y_unit,omitempty" nullable:"true" maxLength:"100" doc:"Y axis unit" validate:"omitnil,max=100"`
	XMin            *float64          `json:"x_min,omitempty" nullable:"true" doc:"X axis minimum, defaults to 0"`
	XMax            *float64          `json:"x_max,omitempty" nullable:"true" doc:"X axis maximum, defaults to 100"`
	YMin            *float64          `json:"y_min,omitempty" nullable:"true" doc:"Y axis minimum, defaults to 0"`
	YMax            *float64          `json:"y_max,omitempty" nullable:"true" doc:"Y axis maximum, defaults to 100"`
	DataPoints      []DataPointCreate `json:"data_points,omitempty" doc:"Initial data points" validate:"dive"`
}

// notNullUpdateFields are update fields backed by NOT NULL columns
var notNullUpdateFields = map[string]bool{
	"curve_name": true,
	"x_scale":    true,
	"y_scale":    true,
	"x_min":      true,
	"x_max":      true,
	"y_min":      true,
	"y_max":      true,
}

// CurveUpdate is a partial update. Absent fields are left unchanged, non-nil
// fields are applied and fields listed in NullFields are cleared. Points are
// managed through the data point operations.
type CurveUpdate struct {
	CurveName       *string  `json:"curve_name,omitempty" minLength:"1" maxLength:"255" doc:"Curve name" validate:"omitnil,min=1,max=255"`
	PartNumber      *string  `json:"part_number,omitempty" nullable:"true" maxLength:"255" doc:"Part number of the measured component" validate:"omitnil,max=255"`
	Manufacturer    *string  `json:"manufacturer,omitempty" nullable:"true" maxLength:"255" doc:"Component manufacturer" validate:"omitnil,max=255"`
	GraphTitle      *string  `json:"graph_title,omitempty" nullable:"true" maxLength:"255" doc:"Title of the source graph" validate:"omitnil,max=255"`
	XLabel          *string  `json:"x_label,omitempty" nullable:"true" maxLength:"255" doc:"X axis label" validate:"omitnil,max=255"`
	YLabel          *string  `json:"y_label,omitempty" nullable:"true" maxLength:"255" doc:"Y axis label" validate:"omitnil,max=255"`
	OtherSymbols    *string  `json:"other_symbols,omitempty" nullable:"true" doc:"Other symbols printed on the graph"`
	Temperature     *string  `json:"temperature,omitempty" nullable:"true" maxLength:"100" doc:"Measurement temperature" validate:"omitnil,max=100"`
	DiscovereeCatID *int64   `json:"discoveree_cat_id,omitempty" nullable:"true" doc:"Discoveree category identifier"`
	XScale          *string  `json:"x_scale,omitempty" enum:"Linear,Logarithmic" doc:"X axis scale" validate:"omitnil,oneof=Linear Logarithmic"`
	YScale          *string  `json:"y_scale,omitempty" enum:"Linear,Logarithmic" doc:"Y axis scale" validate:"omitnil,oneof=Linear Logarithmic"`
	XUnit           *string  `json:"x_unit,omitempty" nullable:"true" maxLength:"100" doc:"X axis unit" validate:"omitnil,max=100"`
	YUnit           *string  `json:"y_unit,omitempty" nullable:"true" maxLength:"100" doc:"Y axis unit" validate:"omitnil,max=100"`
	XMin            *float64 `json:"x_min,omitempty" doc:"X axis minimum"`
	XMax            *float64 `json:"x_max,omitempty" doc:"X axis maximum"`
	YMin            *float64 `json:"y_min,omitempty" doc:"Y axis minimum"`
	YMax            *float64 `json:"y_max,omitempty" doc:"Y axis maximum"`

	// NullFields lists the JSON fields sent as an explicit null
	NullFields []string `json:"-"`
}

// UnmarshalJSON decodes the update and records which fields were sent as null
func (u *CurveUpdate) UnmarshalJSON(data []byte) error {
	type plain CurveUpdate
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	p.NullFields = nil
	for name, value := range raw {
		if bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			p.NullFields = append(p.NullFields, name)
		}
	}
	slices.Sort(p.NullFields)

	*u = CurveUpdate(p)
	return nil
}

// IsNull reports whether field was sent as an explicit null
func (u CurveUpdate) IsNull(field string) bool {
	return slices.Contains(u.NullFields, field)
}

// NonNullableNulls returns the null fields whose columns cannot be cleared
func (u CurveUpdate) NonNullableNulls() []string {
	var out []string
	for _, field := range u.NullFields {
		if notNullUpdateFields[field] {
			out = append(out, field)
		}
	}
	return out
}

// DataPointResponse is the output shape of a data point
type DataPointResponse struct {
	ID        int64     `json:"id" doc:"Data point ID"`
	CurveID   int64     `json:"curve_id" doc:"Owning curve ID"`
	XValue    float64   `json:"x_value" doc:"X coordinate"`
	YValue    float64   `json:"y_value" doc:"Y coordinate"`
	CreatedAt time.Time `json:"created_at" doc:"When the point was stored"`
}

// CurveResponse is the output shape of a curve including its points
type CurveResponse struct {
	ID              int64               `json:"id" doc:"Curve ID"`
	CurveName       string              `json:"curve_name" doc:"Curve name"`
	PartNumber      *string             `json:"part_number" doc:"Part number of the measured component"`
	Manufacturer    *string             `json:"manufacturer" doc:"Component manufacturer"`
	GraphTitle      *string             `json:"graph_title" doc:"Title of the source graph"`
	XLabel          *string             `json:"x_label" doc:"X axis label"`
	YLabel          *string             `json:"y_label" doc:"Y axis label"`
	OtherSymbols    *string             `json:"other_symbols" doc:"Other symbols printed on the graph"`
	Temperature     *string             `json:"temperature" doc:"Measurement temperature"`
	DiscovereeCatID *int64              `json:"discoveree_cat_id" doc:"Discoveree category identifier"`
	XScale          string              `json:"x_scale" enum:"Linear,Logarithmic" doc:"X axis scale"`
	YScale          string              `json:"y_scale" enum:"Linear,Logarithmic" doc:"Y axis scale"`
	XUnit           *string             `json:"x_unit" doc:"X axis unit"`
	YUnit           *string             `json:"y_unit" doc:"Y axis unit"`
	XMin            float64             `json:"x_min" doc:"X axis minimum"`
	XMax            float64             `json:"x_max" doc:"X axis maximum"`
	YMin            float64             `json:"y_min" doc:"Y axis minimum"`
	YMax            float64             `json:"y_max" doc:"Y axis maximum"`
	ImageKey        *string             `json:"image_key" doc:"Object key of the source graph image"`
	CreatedAt       time.Time           `json:"created_at" doc:"Creation timestamp"`
	UpdatedAt       time.Time           `json:"updated_at" doc:"Last modification timestamp"`
	DataPoints      []DataPointResponse `json:"data_points" doc:"Data points ordered by insertion"`
}

// NewDataPointResponse maps a stored point to its output shape
func NewDataPointResponse(p DataPoint) DataPointResponse {
	return DataPointResponse{
		ID:        p.ID,
		CurveID:   p.CurveID,
		XValue:    p.XValue,
		YValue:    p.YValue,
		CreatedAt: p.CreatedAt,
	}
}

// NewDataPointResponses maps a slice of points, never returning nil
func NewDataPointResponses(points []DataPoint) []DataPointResponse {
	out := make([]DataPointResponse, 0, len(points))
	for _, p := range points {
		out = append(out, NewDataPointResponse(p))
	}
	return out
}

// NewCurveResponse maps a stored curve to its output shape
func NewCurveResponse(c *Curve) CurveResponse {
	return CurveResponse{
		ID:              c.ID,
		CurveName:       c.CurveName,
		PartNumber:      c.PartNumber,
		Manufacturer:    c.Manufacturer,
		GraphTitle:      c.GraphTitle,
		XLabel:          c.XLabel,
		YLabel:          c.YLabel,
		OtherSymbols:    c.OtherSymbols,
		Temperature:     c.Temperature,
		DiscovereeCatID: c.DiscovereeCatID,
		XScale:          c.XScale,
		YScale:          c.YScale,
		XUnit:           c.XUnit,
		YUnit:           c.YUnit,
		XMin:            c.XMin,
		XMax:            c.XMax,
		YMin:            c.YMin,
		YMax:            c.YMax,
		ImageKey:        c.ImageKey,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
		DataPoints:      NewDataPointResponses(c.DataPoints),
	}
}

// NewCurve builds a curve record from validated input, applying defaults
// for scales and axis bounds.
func NewCurve(in CurveCreate) *Curve {
	c := &Curve{
		CurveName:       in.CurveName,
		PartNumber:      in.PartNumber,
		Manufacturer:    in.Manufacturer,
		GraphTitle:      in.GraphTitle,
		XLabel:          in.XLabel,
		YLabel:          in.YLabel,
		OtherSymbols:    in.OtherSymbols,
		Temperature:     in.Temperature,
		DiscovereeCatID: in.DiscovereeCatID,
		XScale:          stringOr(in.XScale, DefaultScale),
		YScale:          stringOr(in.YScale, DefaultScale),
		XUnit:           in.XUnit,
		YUnit:           in.YUnit,
		XMin:            floatOr(in.XMin, DefaultAxisMin),
		XMax:            floatOr(in.XMax, DefaultAxisMax),
		YMin:            floatOr(in.YMin, DefaultAxisMin),
		YMax:            floatOr(in.YMax, DefaultAxisMax),
	}

	c.DataPoints = make([]DataPoint, 0, len(in.DataPoints))
	for _, p := range in.DataPoints {
		c.DataPoints = append(c.DataPoints, NewDataPoint(0, p))
	}

	return c
}

// NewDataPoint builds a point record for the given curve from validated input
func NewDataPoint(curveID int64, in DataPointCreate) DataPoint {
	return DataPoint{
		CurveID: curveID,
		XValue:  floatOr(in.XValue, 0),
		YValue:  floatOr(in.YValue, 0),
	}
}

func stringOr(v *string, def string) string {
	if v == nil {
		return def
	}
	return *v
}

func floatOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
