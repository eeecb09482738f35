package factory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"go-c2rcc/internal/algorithm"
	"go-c2rcc/internal/config"
	apperrors "go-c2rcc/internal/errors"
	"go-c2rcc/internal/logger"
	"go-c2rcc/internal/netset"
	"go-c2rcc/internal/observer"
	"go-c2rcc/internal/sensor"
	"go-c2rcc/internal/storage"
	"go-c2rcc/pkg/validation"
)

// AlternativeNetSet selects the networks found in the configured
// alternative directory instead of a built-in binding.
const AlternativeNetSet = "alternative"

// StorageFactory creates the network source selected by configuration
type StorageFactory interface {
	CreateFetcher(cfg *config.Config) (storage.NetFetcher, error)
}

// storageFactory implements StorageFactory
type storageFactory struct {
	urlValidator *validation.URLValidator
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory() StorageFactory {
	return &storageFactory{urlValidator: validation.NewURLValidator()}
}

// CreateFetcher creates a fetcher for cfg.NetSource
func (f *storageFactory) CreateFetcher(cfg *config.Config) (storage.NetFetcher, error) {
	switch cfg.NetSource {
	case config.NetSourceFile:
		return storage.NewFileFetcher(cfg.NetDir), nil
	case config.NetSourceHTTP:
		if err := f.urlValidator.ValidateBaseURL(cfg.NetBaseURL); err != nil {
			return nil, apperrors.NewConfigError("invalid network base URL", err)
		}
		return storage.NewHTTPNetFetcher(cfg.NetBaseURL, cfg.NetFetchTimeout), nil
	case config.NetSourceAzure:
		fetcher, err := storage.NewAzureFetcher(cfg.AzureAccount, cfg.AzureKey, cfg.AzureContainer, cfg.AzurePrefix)
		if err != nil {
			return nil, apperrors.NewConfigError("cannot create azure network source", err)
		}
		return fetcher, nil
	default:
		return nil, apperrors.NewConfigError(fmt.Sprintf("unsupported network source: %s", cfg.NetSource), nil)
	}
}

type setEntry struct {
	done chan struct{}
	set  *netset.Set
	err  error
}

// AlgorithmFactory builds per-request algorithms on top of network sets
// that are loaded once per sensor and set name and then shared.
type AlgorithmFactory struct {
	fetcher        storage.NetFetcher
	loader         *netset.Loader
	alternativeDir string
	events         observer.Subject

	mu   sync.Mutex
	sets map[string]*setEntry
}

// NewAlgorithmFactory creates a factory loading networks through fetcher
func NewAlgorithmFactory(fetcher storage.NetFetcher, alternativeDir string) *AlgorithmFactory {
	return &AlgorithmFactory{
		fetcher:        fetcher,
		loader:         netset.NewLoader(fetcher),
		alternativeDir: alternativeDir,
		sets:           make(map[string]*setEntry),
	}
}

// WithEvents publishes network load events to s
func (f *AlgorithmFactory) WithEvents(s observer.Subject) *AlgorithmFactory {
	f.events = s
	return f
}

// canonicalName maps a requested set name to the name it is cached under.
// An empty name selects the sensor default. Storage is not touched.
func (f *AlgorithmFactory) canonicalName(profile *sensor.Profile, name string) (string, error) {
	name = strings.TrimSpace(name)
	if strings.EqualFold(name, AlternativeNetSet) {
		if f.alternativeDir == "" {
			return "", apperrors.NewConfigError("no alternative network directory configured", nil)
		}
		if _, ok := f.fetcher.(storage.Lister); !ok {
			return "", apperrors.NewConfigError("network source cannot list an alternative directory", nil)
		}
		return AlternativeNetSet, nil
	}

	if name == "" {
		name = profile.DefaultNetSet
	}
	if _, err := profile.NetSet(name); err != nil {
		return "", err
	}
	for _, key := range profile.NetSetNames() {
		if strings.EqualFold(key, name) {
			return key, nil
		}
	}
	return name, nil
}

// binding resolves the resources of a canonical set. The alternative set
// is discovered by listing the alternative directory.
func (f *AlgorithmFactory) binding(ctx context.Context, profile *sensor.Profile, canonical string) (netset.Binding, error) {
	if canonical == AlternativeNetSet {
		return netset.ResolveAlternative(ctx, f.fetcher.(storage.Lister), f.alternativeDir)
	}
	return profile.NetSet(canonical)
}

// NetSet returns the loaded set, loading it on first use. Concurrent
// callers for the same set share one load; failed loads are not cached.
func (f *AlgorithmFactory) NetSet(ctx context.Context, profile *sensor.Profile, name string) (*netset.Set, string, error) {
	canonical, err := f.canonicalName(profile, name)
	if err != nil {
		return nil, "", err
	}
	key := profile.Name + "/" + canonical

	f.mu.Lock()
	entry, ok := f.sets[key]
	if !ok {
		entry = &setEntry{done: make(chan struct{})}
		f.sets[key] = entry
	}
	f.mu.Unlock()

	if ok {
		select {
		case <-entry.done:
			return entry.set, canonical, entry.err
		case <-ctx.Done():
			return nil, "", apperrors.NewTimeoutError("waiting for network set", ctx.Err())
		}
	}

	start := time.Now()
	binding, err := f.binding(ctx, profile, canonical)
	if err == nil {
		entry.set, err = f.loader.Load(ctx, binding)
	}
	entry.err = err
	if entry.err != nil {
		f.mu.Lock()
		delete(f.sets, key)
		f.mu.Unlock()
	}
	close(entry.done)

	f.publishLoad(ctx, profile.Name, canonical, time.Since(start), entry.err)
	return entry.set, canonical, entry.err
}

func (f *AlgorithmFactory) publishLoad(ctx context.Context, sensorName, setName string, d time.Duration, err error) {
	fields := logrus.Fields{"sensor": sensorName, "net_set": setName, "duration_ms": d.Milliseconds()}
	event := observer.ProcessingEvent{
		EventType:      observer.NetsLoaded,
		Timestamp:      time.Now(),
		Sensor:         sensorName,
		NetSet:         setName,
		ProcessingTime: d,
		Success:        err == nil,
	}
	if err != nil {
		event.EventType = observer.NetsLoadFailed
		event.ErrorMessage = err.Error()
		logger.WithFields(fields).WithError(err).Warn("Network set unavailable")
	} else {
		logger.WithFields(fields).Info("Network set ready")
	}
	if f.events != nil {
		f.events.NotifyObservers(ctx, event)
	}
}

// Create builds an algorithm for the sensor, set and configuration
func (f *AlgorithmFactory) Create(ctx context.Context, sensorName, netSetName string, cfg algorithm.Config) (*algorithm.Algorithm, string, error) {
	profile, err := sensor.Lookup(sensorName)
	if err != nil {
		return nil, "", err
	}
	set, canonical, err := f.NetSet(ctx, profile, netSetName)
	if err != nil {
		return nil, "", err
	}
	alg, err := algorithm.New(profile, set, cfg)
	if err != nil {
		return nil, "", err
	}
	return alg, canonical, nil
}

// Loaded lists the sets that finished loading, as sensor/name
func (f *AlgorithmFactory) Loaded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []string
	for key, entry := range f.sets {
		select {
		case <-entry.done:
			if entry.err == nil {
				out = append(out, key)
			}
		default:
		}
	}
	sort.Strings(out)
	return out
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	StorageFactory   StorageFactory
	AlgorithmFactory *AlgorithmFactory
}

// NewComponentFactory creates the network source from cfg and an
// algorithm factory on top of it.
func NewComponentFactory(cfg *config.Config, events observer.Subject) (*ComponentFactory, error) {
	storageFactory := NewStorageFactory()
	fetcher, err := storageFactory.CreateFetcher(cfg)
	if err != nil {
		return nil, err
	}
	return &ComponentFactory{
		StorageFactory:   storageFactory,
		AlgorithmFactory: NewAlgorithmFactory(fetcher, cfg.AlternativeNetDir).WithEvents(events),
	}, nil
}
