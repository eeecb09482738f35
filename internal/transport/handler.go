package transport

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"go-c2rcc/internal/config"
	apperrors "go-c2rcc/internal/errors"
	"go-c2rcc/internal/logger"
	"go-c2rcc/internal/metrics"
	"go-c2rcc/internal/service"
	"go-c2rcc/pkg/models"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// NewHandler wires all routes of the processing API
func NewHandler(svc service.ProcessingService, cfg *config.Config) http.Handler {
	r := gin.New()

	r.Use(
		gin.Recovery(),
		metrics.Middleware(),
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	r.GET("/health", healthCheck(svc))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := r.Group("/v1")
	{
		v1.GET("/sensors", listSensors(svc))
		v1.GET("/flags", listFlags(svc))
		v1.GET("/config", defaultConfig(svc))
		v1.GET("/nets/:sensor", describeNets(svc, cfg))
		v1.POST("/process", processPixels(svc, cfg))
		v1.POST("/jobs", submitJob(svc))
		v1.GET("/jobs", listJobs(svc))
		v1.GET("/jobs/:id", getJob(svc))
	}

	return r
}

// bindProcessRequest decodes the body on top of the service defaults, so
// a partial "config" object only overrides the fields it names.
func bindProcessRequest(c *gin.Context, svc service.ProcessingService) (models.ProcessRequest, bool) {
	defaults := svc.DefaultConfig()
	req := models.ProcessRequest{Config: &defaults}
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, "request body too large", err)
			return req, false
		}
		logger.WithError(err).WithFields(logrus.Fields{
			"ip": c.ClientIP(),
		}).Error("Invalid request format")
		respondError(c, http.StatusBadRequest, "invalid request format",
			apperrors.NewValidationError("invalid request format", err).WithDetails(err.Error()))
		return req, false
	}
	return req, true
}

func processPixels(svc service.ProcessingService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		req, ok := bindProcessRequest(c, svc)
		if !ok {
			return
		}

		logger.WithFields(logrus.Fields{
			"sensor":  req.Sensor,
			"net_set": req.NetSet,
			"pixels":  len(req.Pixels),
			"ip":      c.ClientIP(),
		}).Info("Processing pixel batch")

		resp, err := svc.Process(ctx, req)
		if err != nil {
			respondError(c, determineStatusCode(err), "processing failed", err)
			return
		}

		logger.WithFields(logrus.Fields{
			"sensor":             resp.Sensor,
			"net_set":            resp.NetSet,
			"pixels":             resp.Summary.Pixels,
			"valid_pixels":       resp.Summary.ValidPixels,
			"processing_time_ms": time.Since(startTime).Milliseconds(),
		}).Info("Pixel batch processed successfully")

		c.JSON(http.StatusOK, resp)
	}
}

func submitJob(svc service.ProcessingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, ok := bindProcessRequest(c, svc)
		if !ok {
			return
		}

		job, err := svc.SubmitJob(c.Request.Context(), req)
		if err != nil {
			respondError(c, determineStatusCode(err), "job rejected", err)
			return
		}

		statusURL := "/v1/jobs/" + job.ID
		c.Header("Location", statusURL)
		c.JSON(http.StatusAccepted, models.JobAccepted{
			ID:        job.ID,
			Status:    job.Status,
			StatusURL: statusURL,
		})
	}
}

func getJob(svc service.ProcessingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		job, err := svc.GetJob(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, determineStatusCode(err), "job lookup failed", err)
			return
		}
		c.JSON(http.StatusOK, job)
	}
}

func listJobs(svc service.ProcessingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		jobs, err := svc.ListJobs(c.Request.Context())
		if err != nil {
			respondError(c, determineStatusCode(err), "job listing failed", err)
			return
		}
		// results are only served per job
		summaries := make([]models.Job, len(jobs))
		for i, j := range jobs {
			summaries[i] = *j
			summaries[i].Result = nil
		}
		c.JSON(http.StatusOK, gin.H{"jobs": summaries})
	}
}

func describeNets(svc service.ProcessingService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		info, err := svc.DescribeNetSet(ctx, c.Param("sensor"), c.Query("net_set"))
		if err != nil {
			respondError(c, determineStatusCode(err), "network set unavailable", err)
			return
		}
		c.JSON(http.StatusOK, info)
	}
}

func listSensors(svc service.ProcessingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"sensors": svc.Sensors()})
	}
}

func listFlags(svc service.ProcessingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"flags": svc.Flags()})
	}
}

func defaultConfig(svc service.ProcessingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, svc.DefaultConfig())
	}
}

func healthCheck(svc service.ProcessingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		loaded := svc.LoadedSets()
		if loaded == nil {
			loaded = []string{}
		}
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:     "available",
			Version:    Version,
			Time:       time.Now().UTC().Format(time.RFC3339),
			LoadedSets: loaded,
			Queue:      svc.QueueStats(),
		})
	}
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last().Err
			respondError(c, determineStatusCode(err), "request processing failed", err)
		}
	}
}

func determineStatusCode(err error) int {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	entry := logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	})
	if code >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}

	resp := service.ToErrorResponse(err)
	if resp.Error == string(apperrors.ErrorTypeInternal) && code < http.StatusInternalServerError {
		resp.Error = http.StatusText(code)
	}
	c.AbortWithStatusJSON(code, resp)
}
