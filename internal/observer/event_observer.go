package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"go-c2rcc/internal/metrics"
)

// ProcessingEvent describes one step of a network load or scene run
type ProcessingEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	JobID          string                 `json:"job_id,omitempty"`
	Sensor         string                 `json:"sensor"`
	NetSet         string                 `json:"net_set,omitempty"`
	Pixels         int                    `json:"pixels"`
	ValidPixels    int                    `json:"valid_pixels"`
	FlagCounts     map[string]int         `json:"flag_counts,omitempty"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of processing event
type EventType string

const (
	// SceneStarted when a batch of pixels is handed to the processor
	SceneStarted EventType = "scene_started"
	// SceneCompleted when every pixel of a batch has a result
	SceneCompleted EventType = "scene_completed"
	// SceneFailed when a batch is rejected or cancelled
	SceneFailed EventType = "scene_failed"
	// NetsLoaded when a network set has been fetched and parsed
	NetsLoaded EventType = "nets_loaded"
	// NetsLoadFailed when a network set could not be built
	NetsLoadFailed EventType = "nets_load_failed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event ProcessingEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event ProcessingEvent)
}

// LoggingObserver logs processing events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles processing events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event ProcessingEvent) {
	fields := logrus.Fields{
		"event_type":      event.EventType,
		"sensor":          event.Sensor,
		"processing_time": event.ProcessingTime,
		"success":         event.Success,
	}
	if event.JobID != "" {
		fields["job_id"] = event.JobID
	}
	if event.NetSet != "" {
		fields["net_set"] = event.NetSet
	}
	if event.Pixels > 0 {
		fields["pixels"] = event.Pixels
		fields["valid_pixels"] = event.ValidPixels
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	switch event.EventType {
	case SceneStarted:
		o.logger.WithFields(fields).Debug("Scene processing started")
	case SceneCompleted:
		o.logger.WithFields(fields).Info("Scene processing completed")
	case SceneFailed:
		o.logger.WithFields(fields).Error("Scene processing failed")
	case NetsLoaded:
		o.logger.WithFields(fields).Info("Network set loaded")
	case NetsLoadFailed:
		o.logger.WithFields(fields).Error("Network set load failed")
	default:
		o.logger.WithFields(fields).Info("Processing event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver keeps running totals and mirrors them to Prometheus
type MetricsObserver struct {
	mu                  sync.RWMutex
	totalScenes         int64
	completedScenes     int64
	failedScenes        int64
	totalPixels         int64
	totalProcessingTime time.Duration
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

// OnEvent handles processing events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event ProcessingEvent) {
	switch event.EventType {
	case SceneCompleted:
		metrics.ObservePixels(event.Sensor, event.ValidPixels, event.Pixels-event.ValidPixels)
		metrics.ObserveFlags(event.Sensor, event.FlagCounts)
		metrics.ObserveScene(event.Sensor, "ok", event.ProcessingTime)
	case SceneFailed:
		metrics.ObserveScene(event.Sensor, "failed", event.ProcessingTime)
	case NetsLoaded:
		metrics.ObserveNetLoad("ok")
	case NetsLoadFailed:
		metrics.ObserveNetLoad("failed")
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case SceneStarted:
		o.totalScenes++
	case SceneCompleted:
		o.completedScenes++
		o.totalPixels += int64(event.Pixels)
		o.totalProcessingTime += event.ProcessingTime
	case SceneFailed:
		o.failedScenes++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current metrics
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	avgProcessingTime := time.Duration(0)
	if o.completedScenes > 0 {
		avgProcessingTime = o.totalProcessingTime / time.Duration(o.completedScenes)
	}

	return map[string]interface{}{
		"total_scenes":          o.totalScenes,
		"completed_scenes":      o.completedScenes,
		"failed_scenes":         o.failedScenes,
		"total_pixels":          o.totalPixels,
		"total_processing_time": o.totalProcessingTime,
		"avg_processing_time":   avgProcessingTime,
	}
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
	wg        sync.WaitGroup
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers notifies all observers of an event
func (p *EventPublisher) NotifyObservers(ctx context.Context, event ProcessingEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	// Notify observers concurrently
	for _, observer := range observers {
		p.wg.Add(1)
		go func(obs Observer) {
			defer p.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					// Log panic but don't crash the application
					logrus.WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}(observer)
	}
}

// Flush blocks until every notification sent so far has been handled
func (p *EventPublisher) Flush() {
	p.wg.Wait()
}
