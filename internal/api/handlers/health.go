package handlers

import (
	"context"
	"time"

	"github.com/RMahshie/graphcapture/pkg/models"
)

// APIVersion is reported by the banner and health endpoints
const APIVersion = "1.0.0"

// Banner returns the service banner
func Banner(ctx context.Context, input *struct{}) (*models.BannerResponse, error) {
	resp := &models.BannerResponse{}
	resp.Body.Message = "Graph Capture API is running!"
	resp.Body.Version = APIVersion
	return resp, nil
}

// Health returns the health status of the service
func Health(ctx context.Context, input *struct{}) (*models.HealthResponse, error) {
	resp := &models.HealthResponse{}
	resp.Body.Status = "healthy"
	resp.Body.Version = APIVersion
	resp.Body.Time = time.Now()
	return resp, nil
}
