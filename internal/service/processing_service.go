package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"go-c2rcc/internal/algorithm"
	"go-c2rcc/internal/ancillary"
	apperrors "go-c2rcc/internal/errors"
	"go-c2rcc/internal/logger"
	"go-c2rcc/internal/metrics"
	"go-c2rcc/internal/netset"
	"go-c2rcc/internal/processor"
	"go-c2rcc/internal/repository"
	"go-c2rcc/internal/sensor"
	"go-c2rcc/internal/strategy"
	"go-c2rcc/pkg/models"
	"go-c2rcc/pkg/validation"
)

// maxReportedIssues bounds the issue list copied into error details
const maxReportedIssues = 10

// ProcessingService defines the operations exposed over HTTP and the CLI
type ProcessingService interface {
	// Process corrects a batch of pixels synchronously
	Process(ctx context.Context, req models.ProcessRequest) (*models.ProcessResponse, error)

	// SubmitJob validates the request and queues it for asynchronous processing
	SubmitJob(ctx context.Context, req models.ProcessRequest) (*models.Job, error)
	GetJob(ctx context.Context, id string) (*models.Job, error)
	ListJobs(ctx context.Context) ([]*models.Job, error)

	// Catalog
	Sensors() []models.SensorInfo
	Flags() []models.FlagInfo
	DescribeNetSet(ctx context.Context, sensorName, netSet string) (*models.NetSetInfo, error)
	LoadedSets() []string
	DefaultConfig() algorithm.Config
	QueueStats() processor.PoolStats

	Close()
}

// AlgorithmProvider builds algorithms on top of shared network sets
type AlgorithmProvider interface {
	Create(ctx context.Context, sensorName, netSet string, cfg algorithm.Config) (*algorithm.Algorithm, string, error)
	NetSet(ctx context.Context, profile *sensor.Profile, name string) (*netset.Set, string, error)
	Loaded() []string
}

// Options are the service level settings
type Options struct {
	Defaults       algorithm.Config
	ProcessTimeout time.Duration
	JobRetention   time.Duration
	Ancillary      ancillary.Source
}

// processingService implements ProcessingService
type processingService struct {
	algorithms AlgorithmProvider
	runner     *processor.Runner
	jobs       repository.JobRepository
	pool       *processor.WorkerPool
	validator  *validation.ObservationValidator
	opts       Options

	baseCtx context.Context
	cancel  context.CancelFunc
}

// NewProcessingService creates the service and starts the job workers
func NewProcessingService(
	algorithms AlgorithmProvider,
	runner *processor.Runner,
	jobs repository.JobRepository,
	pool *processor.WorkerPool,
	validator *validation.ObservationValidator,
	opts Options,
) ProcessingService {
	if opts.Ancillary.Atmosphere == nil || opts.Ancillary.Elevation == nil {
		opts.Ancillary = ancillary.DefaultSource()
	}
	ctx, cancel := context.WithCancel(context.Background())
	pool.Start()
	return &processingService{
		algorithms: algorithms,
		runner:     runner,
		jobs:       jobs,
		pool:       pool,
		validator:  validator,
		opts:       opts,
		baseCtx:    ctx,
		cancel:     cancel,
	}
}

func (s *processingService) Process(ctx context.Context, req models.ProcessRequest) (*models.ProcessResponse, error) {
	start := time.Now()
	if err := s.validate(req); err != nil {
		return nil, err
	}

	cfg := s.opts.Defaults
	if req.Config != nil {
		cfg = *req.Config
	}
	if req.Preset != "" {
		preset, err := strategy.ForName(req.Preset)
		if err != nil {
			return nil, err
		}
		cfg = preset.Apply(cfg)
	}
	alg, setName, err := s.algorithms.Create(ctx, req.Sensor, req.NetSet, cfg)
	if err != nil {
		return nil, err
	}

	observations, fluxFactor, err := s.toObservations(alg.Profile(), req)
	if err != nil {
		return nil, err
	}

	if s.opts.ProcessTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.ProcessTimeout)
		defer cancel()
	}
	results, summary, err := s.runner.ProcessScene(ctx, alg, observations)
	if err != nil {
		return nil, err
	}

	resp := &models.ProcessResponse{
		Sensor:            alg.Profile().Name,
		NetSet:            setName,
		Timestamp:         time.Now().UTC(),
		ProcessingTimeSec: time.Since(start).Seconds(),
		SolarFluxFactor:   fluxFactor,
		Summary:           summary,
		Results:           make([]models.PixelResult, len(results)),
	}
	for i, r := range results {
		resp.Results[i] = models.NewPixelResult(r)
	}
	return resp, nil
}

// validate rejects requests with critical issues and logs the warnings
func (s *processingService) validate(req models.ProcessRequest) error {
	issues := s.validator.ValidateRequest(req)
	if len(issues) == 0 {
		return nil
	}
	messages := s.validator.ConvertIssuesToMessages(issues)
	if len(messages) > maxReportedIssues {
		messages = append(messages[:maxReportedIssues], fmt.Sprintf("and %d more", len(issues)-maxReportedIssues))
	}
	if s.validator.HasCriticalIssues(issues) {
		return apperrors.NewValidationError("request contains invalid pixels", nil).
			WithDetails(strings.Join(messages, "; "))
	}
	logger.WithFields(logrus.Fields{
		"sensor":   req.Sensor,
		"warnings": messages,
	}).Warn("Request accepted with warnings")
	return nil
}

// toObservations resolves missing ancillary values and, for radiance
// sensors, the sun-earth distance corrected default solar flux.
func (s *processingService) toObservations(p *sensor.Profile, req models.ProcessRequest) ([]algorithm.PixelObservation, float64, error) {
	var t time.Time
	var flux []float64
	var factor float64
	if req.AcquisitionTime != nil {
		t = *req.AcquisitionTime
		if req.AcquisitionEnd != nil {
			t = ancillary.CenterTime(t, *req.AcquisitionEnd)
		}
		factor = ancillary.SolarFluxCorrectionFactor(t)
		if !p.InputIsReflectance {
			flux = ancillary.CorrectSolarFlux(p.DefaultSolarFlux, t)
		}
	}

	source, err := requestAncillary(s.opts.Ancillary, req.Ancillary)
	if err != nil {
		return nil, 0, err
	}

	out := make([]algorithm.PixelObservation, len(req.Pixels))
	for i, px := range req.Pixels {
		anc, err := source.Resolve(t, px.X, px.Y, px.Lat, px.Lon, px.Ozone, px.SurfacePressure, px.Altitude)
		if err != nil {
			return nil, 0, apperrors.NewProcessingError("ancillary data unavailable", err)
		}
		obs := algorithm.PixelObservation{
			X:               px.X,
			Y:               px.Y,
			Lat:             px.Lat,
			Lon:             px.Lon,
			SunZenith:       px.SunZenith,
			SunAzimuth:      px.SunAzimuth,
			ViewZenith:      px.ViewZenith,
			ViewAzimuth:     px.ViewAzimuth,
			Altitude:        anc.Altitude,
			SurfacePressure: anc.SurfacePressure,
			Ozone:           anc.Ozone,
			Radiances:       px.Radiances,
			SolarFlux:       px.SolarFlux,
			Valid:           px.IsValid(),
		}
		if len(obs.SolarFlux) == 0 {
			obs.SolarFlux = flux
		}
		out[i] = obs
	}
	return out, factor, nil
}

// requestAncillary swaps the atmosphere provider of base for the snapshots
// carried by the request, if any.
func requestAncillary(base ancillary.Source, in *models.AncillaryInput) (ancillary.Source, error) {
	if in == nil {
		return base, nil
	}
	start, err := ancillary.NewConstant(in.Start.Ozone, in.Start.SurfacePressure)
	if err != nil {
		return base, err
	}
	if in.End == nil {
		base.Atmosphere = start
		return base, nil
	}
	end, err := ancillary.NewConstant(in.End.Ozone, in.End.SurfacePressure)
	if err != nil {
		return base, err
	}
	blended, err := ancillary.NewInterpolated(start, in.Start.Time, end, in.End.Time)
	if err != nil {
		return base, err
	}
	base.Atmosphere = blended
	return base, nil
}

func (s *processingService) SubmitJob(ctx context.Context, req models.ProcessRequest) (*models.Job, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	profile, err := sensor.Lookup(req.Sensor)
	if err != nil {
		return nil, err
	}
	if req.Preset != "" {
		if _, err := strategy.ForName(req.Preset); err != nil {
			return nil, err
		}
	}

	if s.opts.JobRetention > 0 {
		if n, err := s.jobs.PurgeFinished(ctx, time.Now().Add(-s.opts.JobRetention)); err == nil && n > 0 {
			logger.WithField("purged", n).Debug("Expired jobs removed")
		}
	}

	job := &models.Job{
		ID:        uuid.NewString(),
		Status:    models.JobQueued,
		Sensor:    profile.Name,
		NetSet:    req.NetSet,
		Pixels:    len(req.Pixels),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, apperrors.NewInternalError("failed to store job", err)
	}

	metrics.JobQueued()
	id := job.ID
	if !s.pool.Submit(func() { s.runJob(id, req) }) {
		metrics.JobFinished()
		busy := apperrors.NewBusyError("job queue is full", nil)
		s.finishJob(id, nil, busy)
		return nil, busy
	}

	logger.WithJob(id, job.Sensor).WithField("pixels", job.Pixels).Info("Job queued")
	return job, nil
}

func (s *processingService) runJob(id string, req models.ProcessRequest) {
	defer metrics.JobFinished()

	started := time.Now().UTC()
	if err := s.jobs.Update(s.baseCtx, id, func(job *models.Job) {
		job.Status = models.JobRunning
		job.StartedAt = &started
	}); err != nil {
		logger.WithError(err).WithField("job_id", id).Warn("Failed to mark job running")
	}

	resp, err := s.Process(processor.WithJobID(s.baseCtx, id), req)
	s.finishJob(id, resp, err)

	entry := logger.WithJob(id, req.Sensor).WithField("duration_ms", time.Since(started).Milliseconds())
	if err != nil {
		entry.WithError(err).Warn("Job failed")
		return
	}
	entry.Info("Job succeeded")
}

func (s *processingService) finishJob(id string, resp *models.ProcessResponse, err error) {
	finished := time.Now().UTC()
	updateErr := s.jobs.Update(context.Background(), id, func(job *models.Job) {
		job.FinishedAt = &finished
		if err != nil {
			job.Status = models.JobFailed
			job.Error = ToErrorResponse(err)
			return
		}
		job.Status = models.JobSucceeded
		job.NetSet = resp.NetSet
		job.Result = resp
	})
	if updateErr != nil {
		logger.WithError(updateErr).WithField("job_id", id).Error("Failed to record job outcome")
	}
}

func (s *processingService) GetJob(ctx context.Context, id string) (*models.Job, error) {
	job, err := s.jobs.Get(ctx, id)
	switch {
	case err == nil:
		return job, nil
	case errors.Is(err, repository.ErrInvalidJobID):
		return nil, apperrors.NewValidationError("invalid job id", err)
	case errors.Is(err, repository.ErrJobNotFound):
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("job %s not found", id), nil)
	default:
		return nil, apperrors.NewInternalError("failed to read job", err)
	}
}

func (s *processingService) ListJobs(ctx context.Context) ([]*models.Job, error) {
	jobs, err := s.jobs.List(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list jobs", err)
	}
	return jobs, nil
}

func (s *processingService) Sensors() []models.SensorInfo {
	return SensorCatalog()
}

// SensorCatalog describes every registered sensor
func SensorCatalog() []models.SensorInfo {
	var out []models.SensorInfo
	for _, name := range sensor.Names() {
		p, err := sensor.Lookup(name)
		if err != nil {
			continue
		}
		out = append(out, models.SensorInfo{
			Name:               p.Name,
			Description:        p.Description,
			InputBands:         p.InputBands,
			InputIsReflectance: p.InputIsReflectance,
			Wavelengths:        p.Wavelengths,
			AtmosphereBands:    p.AtmosphereBands,
			WaterBands:         p.WaterBands,
			NetSets:            p.NetSetNames(),
			DefaultNetSet:      p.DefaultNetSet,
		})
	}
	return out
}

func (s *processingService) Flags() []models.FlagInfo {
	return FlagCatalog()
}

// FlagCatalog lists the bits of the quality word
func FlagCatalog() []models.FlagInfo {
	flags := algorithm.AllFlags()
	out := make([]models.FlagInfo, len(flags))
	for i, f := range flags {
		out[i] = models.FlagInfo{Bit: uint(f), Name: f.String(), Mask: f.Mask()}
	}
	return out
}

// DescribeNetSet loads the set if needed, checks every network against
// the sensor and reports the roles.
func (s *processingService) DescribeNetSet(ctx context.Context, sensorName, netSet string) (*models.NetSetInfo, error) {
	profile, err := sensor.Lookup(sensorName)
	if err != nil {
		return nil, err
	}
	set, name, err := s.algorithms.NetSet(ctx, profile, netSet)
	if err != nil {
		return nil, err
	}
	if _, err := algorithm.New(profile, set, s.opts.Defaults); err != nil {
		return nil, err
	}
	return DescribeSet(profile.Name, name, set), nil
}

// DescribeSet lists the networks of a loaded set
func DescribeSet(sensorName, name string, set *netset.Set) *models.NetSetInfo {
	info := &models.NetSetInfo{Sensor: sensorName, Name: name}
	for _, r := range netset.Roles() {
		m := set.Model(r)
		role := models.NetRoleInfo{
			Role:    r.String(),
			Source:  set.Source(r),
			Inputs:  m.InputSize(),
			Outputs: m.OutputSize(),
		}
		if t, ok := m.(interface{ Topology() string }); ok {
			role.Topology = t.Topology()
		}
		info.Roles = append(info.Roles, role)
	}
	return info
}

func (s *processingService) LoadedSets() []string {
	return s.algorithms.Loaded()
}

func (s *processingService) QueueStats() processor.PoolStats {
	return s.pool.GetStats()
}

func (s *processingService) DefaultConfig() algorithm.Config {
	return s.opts.Defaults
}

// Close cancels running jobs and stops the workers
func (s *processingService) Close() {
	s.cancel()
	s.pool.Close()
}

// ToErrorResponse converts an error into its wire form
func ToErrorResponse(err error) *models.ErrorResponse {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return &models.ErrorResponse{
			Error:   string(appErr.Type),
			Message: appErr.Message,
			Details: appErr.Details,
		}
	}
	return &models.ErrorResponse{
		Error:   string(apperrors.ErrorTypeInternal),
		Message: err.Error(),
	}
}
