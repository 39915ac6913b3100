package models

import (
	"time"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Body struct {
		Status  string    `json:"status" example:"healthy" doc:"Service health status"`
		Version string    `json:"version" example:"1.0.0" doc:"API version"`
		Time    time.Time `json:"time" doc:"Current server time"`
	}
}

// BannerResponse is returned from the service root
type BannerResponse struct {
	Body struct {
		Message string `json:"message" example:"Graph Capture API is running!" doc:"Service banner"`
		Version string `json:"version" example:"1.0.0" doc:"API version"`
	}
}

// CreateCurveRequest represents a request to create a curve with optional points
type CreateCurveRequest struct {
	Body CurveCreate
}

// CreateCurveResponse represents the created curve
type CreateCurveResponse struct {
	Body CurveResponse
}

// ListCurvesRequest represents a paginated curve listing
type ListCurvesRequest struct {
	Skip  int `query:"skip" default:"0" minimum:"0" doc:"Number of curves to skip"`
	Limit int `query:"limit" default:"100" minimum:"0" doc:"Maximum number of curves to return (capped at 100)"`
}

// ListCurvesResponse represents a page of curves
type ListCurvesResponse struct {
	Body []CurveResponse
}

// GetCurveRequest represents a request for a single curve
type GetCurveRequest struct {
	ID int64 `path:"id" doc:"Curve ID"`
}

// GetCurveResponse represents a single curve with its points
type GetCurveResponse struct {
	Body CurveResponse
}

// UpdateCurveRequest represents a partial curve update
type UpdateCurveRequest struct {
	ID   int64 `path:"id" doc:"Curve ID"`
	Body CurveUpdate
}

// UpdateCurveResponse represents the updated curve
type UpdateCurveResponse struct {
	Body CurveResponse
}

// DeleteCurveRequest represents a request to delete a curve and its points
type DeleteCurveRequest struct {
	ID int64 `path:"id" doc:"Curve ID"`
}

// AddDataPointRequest represents a request to add a point to a curve
type AddDataPointRequest struct {
	ID   int64 `path:"id" doc:"Curve ID"`
	Body DataPointCreate
}

// AddDataPointResponse represents the stored point
type AddDataPointResponse struct {
	Body DataPointResponse
}

// ListDataPointsRequest represents a request for a curve's points
type ListDataPointsRequest struct {
	ID int64 `path:"id" doc:"Curve ID"`
}

// ListDataPointsResponse represents a curve's points in insertion order
type ListDataPointsResponse struct {
	Body []DataPointResponse
}

// DeleteDataPointRequest represents a request to delete a single point
type DeleteDataPointRequest struct {
	ID int64 `path:"id" doc:"Data point ID"`
}

// CreateImageUploadRequest represents a request to attach a source graph image
type CreateImageUploadRequest struct {
	ID   int64 `path:"id" doc:"Curve ID"`
	Body struct {
		ContentType string `json:"content_type" enum:"image/png,image/jpeg,image/webp,image/gif" required:"true" doc:"Image MIME type"`
	}
}

// CreateImageUploadResponseBody is the body of the image upload response
type CreateImageUploadResponseBody struct {
	ImageKey  string `json:"image_key" doc:"Object key the image will be stored under"`
	UploadURL string `json:"upload_url" doc:"Pre-signed S3 URL for image upload"`
	ExpiresIn int    `json:"expires_in" doc:"URL expiration time in seconds"`
}

// CreateImageUploadResponse represents the response from requesting an image upload
type CreateImageUploadResponse struct {
	Body CreateImageUploadResponseBody
}

// GetImageRequest represents a request for a curve's image download URL
type GetImageRequest struct {
	ID int64 `path:"id" doc:"Curve ID"`
}

// GetImageResponse represents a curve image download URL
type GetImageResponse struct {
	Body struct {
		ImageKey    string `json:"image_key" doc:"Object key of the image"`
		DownloadURL string `json:"download_url" doc:"Pre-signed S3 URL for image download"`
	}
}
