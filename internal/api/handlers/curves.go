package handlers

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/RMahshie/graphcapture/internal/curves"
	"github.com/RMahshie/graphcapture/pkg/models"
)

// CurveHandler handles curve and data point HTTP requests
type CurveHandler struct {
	svc curves.CurveService
}

// NewCurveHandler creates a new curve handler
func NewCurveHandler(svc curves.CurveService) *CurveHandler {
	return &CurveHandler{svc: svc}
}

// CreateCurve creates a curve together with its embedded points
func (h *CurveHandler) CreateCurve(ctx context.Context, req *models.CreateCurveRequest) (*models.CreateCurveResponse, error) {
	log.Info().Str("curveName", req.Body.CurveName).Int("points", len(req.Body.DataPoints)).Msg("Creating new curve")

	curve, err := h.svc.CreateCurve(ctx, req.Body)
	if err != nil {
		return nil, toHTTPError(err, "Error creating curve")
	}

	return &models.CreateCurveResponse{Body: models.NewCurveResponse(curve)}, nil
}

// ListCurves returns a page of curves
func (h *CurveHandler) ListCurves(ctx context.Context, req *models.ListCurvesRequest) (*models.ListCurvesResponse, error) {
	list, err := h.svc.ListCurves(ctx, req.Skip, req.Limit)
	if err != nil {
		return nil, toHTTPError(err, "Error fetching curves")
	}

	body := make([]models.CurveResponse, 0, len(list))
	for _, c := range list {
		body = append(body, models.NewCurveResponse(c))
	}
	return &models.ListCurvesResponse{Body: body}, nil
}

// GetCurve returns a single curve with its points
func (h *CurveHandler) GetCurve(ctx context.Context, req *models.GetCurveRequest) (*models.GetCurveResponse, error) {
	curve, err := h.svc.GetCurve(ctx, req.ID)
	if err != nil {
		return nil, toHTTPError(err, "Error fetching curve")
	}

	return &models.GetCurveResponse{Body: models.NewCurveResponse(curve)}, nil
}

// UpdateCurve applies a partial update to a curve
func (h *CurveHandler) UpdateCurve(ctx context.Context, req *models.UpdateCurveRequest) (*models.UpdateCurveResponse, error) {
	log.Info().Int64("curveID", req.ID).Msg("Updating curve")

	curve, err := h.svc.UpdateCurve(ctx, req.ID, req.Body)
	if err != nil {
		return nil, toHTTPError(err, "Error updating curve")
	}

	return &models.UpdateCurveResponse{Body: models.NewCurveResponse(curve)}, nil
}

// DeleteCurve deletes a curve and its data points
func (h *CurveHandler) DeleteCurve(ctx context.Context, req *models.DeleteCurveRequest) (*struct{}, error) {
	log.Info().Int64("curveID", req.ID).Msg("Deleting curve")

	if err := h.svc.DeleteCurve(ctx, req.ID); err != nil {
		return nil, toHTTPError(err, "Error deleting curve")
	}
	return nil, nil
}

// AddDataPoint adds a single data point to a curve
func (h *CurveHandler) AddDataPoint(ctx context.Context, req *models.AddDataPointRequest) (*models.AddDataPointResponse, error) {
	point, err := h.svc.AddDataPoint(ctx, req.ID, req.Body)
	if err != nil {
		return nil, toHTTPError(err, "Error adding data point")
	}

	return &models.AddDataPointResponse{Body: models.NewDataPointResponse(*point)}, nil
}

// ListDataPoints returns all data points for a curve
func (h *CurveHandler) ListDataPoints(ctx context.Context, req *models.ListDataPointsRequest) (*models.ListDataPointsResponse, error) {
	points, err := h.svc.ListDataPoints(ctx, req.ID)
	if err != nil {
		return nil, toHTTPError(err, "Error fetching data points")
	}

	return &models.ListDataPointsResponse{Body: models.NewDataPointResponses(points)}, nil
}

// DeleteDataPoint deletes a specific data point
func (h *CurveHandler) DeleteDataPoint(ctx context.Context, req *models.DeleteDataPointRequest) (*struct{}, error) {
	log.Info().Int64("pointID", req.ID).Msg("Deleting data point")

	if err := h.svc.DeleteDataPoint(ctx, req.ID); err != nil {
		return nil, toHTTPError(err, "Error deleting data point")
	}
	return nil, nil
}

// CreateImageUpload returns a presigned URL for uploading the curve's source image
func (h *CurveHandler) CreateImageUpload(ctx context.Context, req *models.CreateImageUploadRequest) (*models.CreateImageUploadResponse, error) {
	upload, err := h.svc.CreateImageUpload(ctx, req.ID, req.Body.ContentType)
	if err != nil {
		return nil, toHTTPError(err, "Failed to prepare image upload")
	}

	return &models.CreateImageUploadResponse{
		Body: models.CreateImageUploadResponseBody{
			ImageKey:  upload.ImageKey,
			UploadURL: upload.UploadURL,
			ExpiresIn: int(upload.ExpiresIn.Seconds()),
		},
	}, nil
}

// GetImage returns a presigned URL for downloading the curve's source image
func (h *CurveHandler) GetImage(ctx context.Context, req *models.GetImageRequest) (*models.GetImageResponse, error) {
	download, err := h.svc.GetImageURL(ctx, req.ID)
	if err != nil {
		return nil, toHTTPError(err, "Failed to fetch image")
	}

	resp := &models.GetImageResponse{}
	resp.Body.ImageKey = download.ImageKey
	resp.Body.DownloadURL = download.DownloadURL
	return resp, nil
}
