package api

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/RMahshie/graphcapture/internal/api/handlers"
	"github.com/RMahshie/graphcapture/internal/curves"
	"github.com/RMahshie/graphcapture/internal/metrics"
)

// RouterConfig holds what the HTTP surface needs to be assembled
type RouterConfig struct {
	AllowedOrigins []string
	Service        curves.CurveService
	Metrics        *metrics.Collector
	ImagesEnabled  bool
}

// NewRouter builds the Chi router with middleware, CORS and the Huma API
func NewRouter(cfg RouterConfig) (*chi.Mux, huma.API) {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(RequestLogger())
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	if cfg.Metrics != nil {
		router.Use(cfg.Metrics.Middleware)
	}
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	config := huma.DefaultConfig("Graph Capture API", handlers.APIVersion)
	config.DocsPath = "/api/docs"
	config.OpenAPIPath = "/api/openapi"
	api := humachi.New(router, config)

	RegisterRoutes(api, cfg.Service, cfg.ImagesEnabled)

	return router, api
}

// RegisterRoutes sets up all API routes
func RegisterRoutes(api huma.API, svc curves.CurveService, imagesEnabled bool) {
	curveHandler := handlers.NewCurveHandler(svc)

	// Service banner and health
	for _, method := range []string{http.MethodGet, http.MethodHead} {
		suffix := ""
		if method == http.MethodHead {
			suffix = "-head"
		}

		huma.Register(api, huma.Operation{
			OperationID: "banner" + suffix,
			Method:      method,
			Path:        "/",
			Summary:     "Service banner",
			Description: "Confirms the API is running",
			Tags:        []string{"Health"},
		}, handlers.Banner)

		huma.Register(api, huma.Operation{
			OperationID: "health" + suffix,
			Method:      method,
			Path:        "/health",
			Summary:     "Health check",
			Description: "Returns the health status of the service",
			Tags:        []string{"Health"},
		}, handlers.Health)
	}

	// Curves
	huma.Register(api, huma.Operation{
		OperationID:   "createCurve",
		Method:        http.MethodPost,
		Path:          "/api/curves",
		Summary:       "Create a curve",
		Description:   "Creates a curve together with any embedded data points in a single transaction",
		Tags:          []string{"Curves"},
		DefaultStatus: http.StatusCreated,
	}, curveHandler.CreateCurve)

	huma.Register(api, huma.Operation{
		OperationID: "listCurves",
		Method:      http.MethodGet,
		Path:        "/api/curves",
		Summary:     "List curves",
		Description: "Returns a page of curves with their data points",
		Tags:        []string{"Curves"},
	}, curveHandler.ListCurves)

	huma.Register(api, huma.Operation{
		OperationID: "getCurve",
		Method:      http.MethodGet,
		Path:        "/api/curves/{id}",
		Summary:     "Get a curve",
		Description: "Returns a single curve with its data points",
		Tags:        []string{"Curves"},
	}, curveHandler.GetCurve)

	huma.Register(api, huma.Operation{
		OperationID: "updateCurve",
		Method:      http.MethodPut,
		Path:        "/api/curves/{id}",
		Summary:     "Update a curve",
		Description: "Applies the supplied fields to a curve; data points are left untouched",
		Tags:        []string{"Curves"},
	}, curveHandler.UpdateCurve)

	huma.Register(api, huma.Operation{
		OperationID:   "deleteCurve",
		Method:        http.MethodDelete,
		Path:          "/api/curves/{id}",
		Summary:       "Delete a curve",
		Description:   "Deletes a curve and all of its data points",
		Tags:          []string{"Curves"},
		DefaultStatus: http.StatusNoContent,
	}, curveHandler.DeleteCurve)

	// Data points
	huma.Register(api, huma.Operation{
		OperationID:   "addDataPoint",
		Method:        http.MethodPost,
		Path:          "/api/curves/{id}/points",
		Summary:       "Add a data point",
		Description:   "Appends a single data point to an existing curve",
		Tags:          []string{"Data Points"},
		DefaultStatus: http.StatusCreated,
	}, curveHandler.AddDataPoint)

	huma.Register(api, huma.Operation{
		OperationID: "listDataPoints",
		Method:      http.MethodGet,
		Path:        "/api/curves/{id}/points",
		Summary:     "List data points",
		Description: "Returns all data points of a curve in insertion order",
		Tags:        []string{"Data Points"},
	}, curveHandler.ListDataPoints)

	huma.Register(api, huma.Operation{
		OperationID:   "deleteDataPoint",
		Method:        http.MethodDelete,
		Path:          "/api/points/{id}",
		Summary:       "Delete a data point",
		Description:   "Deletes a single data point",
		Tags:          []string{"Data Points"},
		DefaultStatus: http.StatusNoContent,
	}, curveHandler.DeleteDataPoint)

	if !imagesEnabled {
		return
	}

	// Source graph images
	huma.Register(api, huma.Operation{
		OperationID:   "createCurveImageUpload",
		Method:        http.MethodPost,
		Path:          "/api/curves/{id}/image",
		Summary:       "Prepare a curve image upload",
		Description:   "Returns a pre-signed URL for uploading the source graph image of a curve",
		Tags:          []string{"Images"},
		DefaultStatus: http.StatusCreated,
	}, curveHandler.CreateImageUpload)

	huma.Register(api, huma.Operation{
		OperationID: "getCurveImage",
		Method:      http.MethodGet,
		Path:        "/api/curves/{id}/image",
		Summary:     "Get a curve image URL",
		Description: "Returns a pre-signed URL for downloading the source graph image of a curve",
		Tags:        []string{"Images"},
	}, curveHandler.GetImage)
}
