package processor

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"go-c2rcc/internal/algorithm"
	apperrors "go-c2rcc/internal/errors"
	"go-c2rcc/internal/observer"
	"go-c2rcc/internal/sensor"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeProcessor derives every result from the pixel coordinates
type fakeProcessor struct {
	profile  *sensor.Profile
	delay    time.Duration
	inFlight atomic.Int64
	peak     atomic.Int64
	calls    atomic.Int64
}

func newFakeProcessor(t *testing.T) *fakeProcessor {
	t.Helper()
	p, err := sensor.Lookup("meris")
	require.NoError(t, err)
	return &fakeProcessor{profile: p}
}

func (f *fakeProcessor) Profile() *sensor.Profile { return f.profile }

func (f *fakeProcessor) CheckObservation(obs algorithm.PixelObservation) error {
	if len(obs.Radiances) != f.profile.InputBands {
		return fmt.Errorf("pixel (%d,%d): %d band values", obs.X, obs.Y, len(obs.Radiances))
	}
	return nil
}

func (f *fakeProcessor) ProcessPixel(obs algorithm.PixelObservation) algorithm.Result {
	n := f.inFlight.Add(1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	defer f.inFlight.Add(-1)
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	res := algorithm.Result{X: obs.X, Y: obs.Y}
	if !obs.Valid {
		return res
	}
	res.IOPs.Apig = float64(obs.X)
	res.WaterOOS = 0.5
	if obs.X%2 == 0 {
		res.Flags.Set(algorithm.FlagCloud, true)
	}
	res.Flags.Set(algorithm.FlagValid, true)
	return res
}

func scene(n, bands int) []algorithm.PixelObservation {
	pixels := make([]algorithm.PixelObservation, n)
	for i := range pixels {
		pixels[i] = algorithm.PixelObservation{X: i, Y: 1, Radiances: make([]float64, bands), Valid: true}
	}
	return pixels
}

func TestProcessScene_KeepsOrderAndSummarizes(t *testing.T) {
	alg := newFakeProcessor(t)
	pixels := scene(10, 15)
	pixels[9].Valid = false

	results, summary, err := NewRunner(3, 4).ProcessScene(context.Background(), alg, pixels)
	require.NoError(t, err)
	require.Len(t, results, 10)
	for i, r := range results {
		assert.Equal(t, i, r.X)
	}

	assert.Equal(t, 10, summary.Pixels)
	assert.Equal(t, 9, summary.ValidPixels)
	assert.Equal(t, 5, summary.FlagCounts["Cloud_risk"])
	assert.Equal(t, 9, summary.FlagCounts["Valid_PE"])
	assert.Equal(t, 0, summary.FlagCounts["Rtosa_OOR"])

	// apig = 0..8 over the valid pixels
	assert.Equal(t, 9, summary.Apig.Count)
	assert.InDelta(t, 4.0, summary.Apig.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(7.5), summary.Apig.StdDev, 1e-12)
	assert.Equal(t, 0.0, summary.Apig.Min)
	assert.Equal(t, 8.0, summary.Apig.Max)
	assert.Equal(t, 0.0, summary.WaterOOS.StdDev)
}

func TestProcessScene_BoundedConcurrency(t *testing.T) {
	alg := newFakeProcessor(t)
	alg.delay = time.Millisecond

	_, _, err := NewRunner(2, 1).ProcessScene(context.Background(), alg, scene(12, 15))
	require.NoError(t, err)
	assert.LessOrEqual(t, alg.peak.Load(), int64(2))
	assert.Equal(t, int64(12), alg.calls.Load())
}

func TestProcessScene_RejectsMismatchedPixels(t *testing.T) {
	alg := newFakeProcessor(t)
	pixels := scene(8, 15)
	pixels[2].Radiances = pixels[2].Radiances[:3]
	pixels[6].Radiances = nil

	_, _, err := NewRunner(2, 2).ProcessScene(context.Background(), alg, pixels)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	assert.Contains(t, err.Error(), "2 of 8 pixels")
	assert.Zero(t, alg.calls.Load(), "nothing is processed when any pixel is rejected")

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Details, "pixel (2,1)")
}

func TestProcessScene_EmptyScene(t *testing.T) {
	_, _, err := NewRunner(1, 1).ProcessScene(context.Background(), newFakeProcessor(t), nil)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestProcessScene_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	alg := newFakeProcessor(t)
	_, _, err := NewRunner(2, 2).ProcessScene(ctx, alg, scene(20, 15))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeProcessing))
	assert.Zero(t, alg.calls.Load())
}

func TestProcessScene_DeadlineExceeded(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	alg := newFakeProcessor(t)
	alg.delay = 2 * time.Millisecond
	_, _, err := NewRunner(1, 1).ProcessScene(ctx, alg, scene(200, 15))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeTimeout))
	assert.Less(t, alg.calls.Load(), int64(200))
}

type sceneRecorder struct {
	mu     sync.Mutex
	events []observer.ProcessingEvent
}

func (r *sceneRecorder) OnEvent(_ context.Context, e observer.ProcessingEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *sceneRecorder) GetObserverName() string { return "scene_recorder" }

func TestProcessScene_PublishesEvents(t *testing.T) {
	pub := observer.NewEventPublisher()
	rec := &sceneRecorder{}
	pub.Subscribe(rec)

	runner := NewRunner(2, 3).WithEvents(pub)
	ctx := WithJobID(context.Background(), "job-42")
	_, _, err := runner.ProcessScene(ctx, newFakeProcessor(t), scene(5, 15))
	require.NoError(t, err)
	_, _, err = runner.ProcessScene(ctx, newFakeProcessor(t), nil)
	require.Error(t, err)
	pub.Flush()

	counts := map[observer.EventType]int{}
	for _, e := range rec.events {
		counts[e.EventType]++
		assert.Equal(t, "job-42", e.JobID)
		assert.Equal(t, "meris", e.Sensor)
		if e.EventType == observer.SceneCompleted {
			assert.True(t, e.Success)
			assert.Equal(t, 5, e.ValidPixels)
			assert.Equal(t, 3, e.FlagCounts["Cloud_risk"])
		}
	}
	assert.Equal(t, 2, counts[observer.SceneStarted])
	assert.Equal(t, 1, counts[observer.SceneCompleted])
	assert.Equal(t, 1, counts[observer.SceneFailed])
}

func TestSummarize_SkipsNonFinite(t *testing.T) {
	valid := algorithm.Flags(0)
	valid.Set(algorithm.FlagValid, true)
	results := []algorithm.Result{
		{Flags: valid, CHL: 2},
		{Flags: valid, CHL: math.Inf(1)},
		{Flags: valid, CHL: math.NaN()},
		{Flags: valid, CHL: 4},
		{CHL: 100},
	}
	s := Summarize(results)
	assert.Equal(t, 4, s.ValidPixels)
	assert.Equal(t, 2, s.CHL.Count)
	assert.Equal(t, 3.0, s.CHL.Mean)
	assert.Equal(t, Stats{}, Summarize(nil).CHL)

	single := Summarize(results[:1])
	assert.Equal(t, Stats{Count: 1, Mean: 2, Min: 2, Max: 2}, single.CHL)
}
