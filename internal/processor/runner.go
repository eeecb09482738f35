// Package processor runs the pixel algorithm over whole scenes: bounded
// parallel batches for synchronous requests and a worker pool for
// asynchronous jobs.
package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"go-c2rcc/internal/algorithm"
	apperrors "go-c2rcc/internal/errors"
	"go-c2rcc/internal/logger"
	"go-c2rcc/internal/observer"
	"go-c2rcc/internal/sensor"
)

const maxReportedProblems = 5

// PixelProcessor is the part of an algorithm the runner needs
type PixelProcessor interface {
	CheckObservation(obs algorithm.PixelObservation) error
	ProcessPixel(obs algorithm.PixelObservation) algorithm.Result
	Profile() *sensor.Profile
}

// Runner splits a scene into chunks and processes them concurrently
type Runner struct {
	concurrency int
	chunkSize   int
	events      observer.Subject
}

// NewRunner creates a runner that keeps at most concurrency chunks of
// chunkSize pixels in flight.
func NewRunner(concurrency, chunkSize int) *Runner {
	if concurrency <= 0 {
		concurrency = 1
	}
	if chunkSize <= 0 {
		chunkSize = 1024
	}
	return &Runner{concurrency: concurrency, chunkSize: chunkSize}
}

// WithEvents publishes scene events to s
func (r *Runner) WithEvents(s observer.Subject) *Runner {
	r.events = s
	return r
}

type jobIDKey struct{}

// WithJobID tags a context so that scene events carry the job ID
func WithJobID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, jobIDKey{}, id)
}

func jobID(ctx context.Context) string {
	id, _ := ctx.Value(jobIDKey{}).(string)
	return id
}

// ProcessScene checks every observation, then processes all pixels. Results
// keep the order of the input. Cancellation is honoured between chunks.
func (r *Runner) ProcessScene(ctx context.Context, alg PixelProcessor, pixels []algorithm.PixelObservation) ([]algorithm.Result, Summary, error) {
	start := time.Now()
	sensorName := alg.Profile().Name
	event := observer.ProcessingEvent{JobID: jobID(ctx), Sensor: sensorName, Pixels: len(pixels)}
	r.publish(ctx, observer.SceneStarted, event)

	fail := func(err error) ([]algorithm.Result, Summary, error) {
		event.ProcessingTime = time.Since(start)
		event.ErrorMessage = err.Error()
		r.publish(ctx, observer.SceneFailed, event)
		return nil, Summary{}, err
	}

	if len(pixels) == 0 {
		return fail(apperrors.NewValidationError("scene contains no pixels", nil))
	}
	if err := checkAll(alg, pixels); err != nil {
		return fail(err)
	}

	results := make([]algorithm.Result, len(pixels))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for lo := 0; lo < len(pixels); lo += r.chunkSize {
		lo := lo
		hi := min(lo+r.chunkSize, len(pixels))
		if gCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			for i := lo; i < hi; i++ {
				results[i] = alg.ProcessPixel(pixels[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fail(contextError(err))
	}
	if err := ctx.Err(); err != nil {
		return fail(contextError(err))
	}

	summary := Summarize(results)
	event.ProcessingTime = time.Since(start)
	event.Success = true
	event.ValidPixels = summary.ValidPixels
	event.FlagCounts = summary.FlagCounts
	r.publish(ctx, observer.SceneCompleted, event)

	logger.WithFields(logrus.Fields{
		"sensor":       sensorName,
		"pixels":       len(pixels),
		"valid_pixels": summary.ValidPixels,
		"chunks":       (len(pixels) + r.chunkSize - 1) / r.chunkSize,
		"duration_ms":  event.ProcessingTime.Milliseconds(),
	}).Debug("Scene processed")

	return results, summary, nil
}

func checkAll(alg PixelProcessor, pixels []algorithm.PixelObservation) error {
	var problems []string
	bad := 0
	for _, obs := range pixels {
		if err := alg.CheckObservation(obs); err != nil {
			bad++
			if len(problems) < maxReportedProblems {
				problems = append(problems, err.Error())
			}
		}
	}
	if bad == 0 {
		return nil
	}
	return apperrors.NewValidationError(
		fmt.Sprintf("%d of %d pixels do not match sensor %s", bad, len(pixels), alg.Profile().Name), nil).
		WithDetails(strings.Join(problems, "; "))
}

func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTimeoutError("scene processing timed out", err)
	}
	return apperrors.NewProcessingError("scene processing cancelled", err)
}

func (r *Runner) publish(ctx context.Context, t observer.EventType, e observer.ProcessingEvent) {
	if r.events == nil {
		return
	}
	e.EventType = t
	e.Timestamp = time.Now()
	r.events.NotifyObservers(ctx, e)
}
