package container

import (
	"context"
	"fmt"
	"net/http"

	"go-c2rcc/internal/ancillary"
	"go-c2rcc/internal/config"
	"go-c2rcc/internal/factory"
	"go-c2rcc/internal/logger"
	"go-c2rcc/internal/observer"
	"go-c2rcc/internal/processor"
	"go-c2rcc/internal/repository"
	"go-c2rcc/internal/service"
	"go-c2rcc/internal/transport"
	"go-c2rcc/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config     *config.Config
	events     *observer.EventPublisher
	components *factory.ComponentFactory
	jobs       repository.JobRepository
	service    service.ProcessingService
	handler    http.Handler
}

// NewContainer builds the dependency graph from a loaded configuration
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}

	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(observer.NewMetricsObserver())

	components, err := factory.NewComponentFactory(cfg, events)
	if err != nil {
		return nil, fmt.Errorf("failed to create network source: %w", err)
	}

	atmosphere, err := ancillary.NewConstant(cfg.Ozone, cfg.SurfacePressure)
	if err != nil {
		return nil, fmt.Errorf("invalid ancillary defaults: %w", err)
	}

	thresholds := validation.DefaultObservationThresholds()
	thresholds.MaxPixels = cfg.MaxPixels

	jobs := repository.NewMemoryJobRepository()
	svc := service.NewProcessingService(
		components.AlgorithmFactory,
		processor.NewRunner(cfg.PixelConcurrency, cfg.ChunkSize).WithEvents(events),
		jobs,
		processor.NewWorkerPool(cfg.Workers, cfg.QueueSize),
		validation.NewObservationValidatorWithThresholds(thresholds),
		service.Options{
			Defaults:       cfg.Algorithm,
			ProcessTimeout: cfg.ProcessTimeout,
			JobRetention:   cfg.JobRetention,
			Ancillary: ancillary.Source{
				Atmosphere: atmosphere,
				Elevation:  ancillary.ConstantElevation(ancillary.DefaultAltitude),
			},
		},
	)

	return &Container{
		config:     cfg,
		events:     events,
		components: components,
		jobs:       jobs,
		service:    svc,
		handler:    transport.NewHandler(svc, cfg),
	}, nil
}

// Preload loads the configured default network set so the first request
// does not pay for it.
func (c *Container) Preload(ctx context.Context) error {
	if c.config.Sensor == "" {
		return nil
	}
	_, err := c.service.DescribeNetSet(ctx, c.config.Sensor, c.config.NetSet)
	return err
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Service returns the processing service
func (c *Container) Service() service.ProcessingService {
	return c.service
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Close stops the job workers and drains pending events
func (c *Container) Close() {
	c.service.Close()
	c.events.Flush()
}
