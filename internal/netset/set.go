package netset

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	apperrors "go-c2rcc/internal/errors"
	"go-c2rcc/internal/logger"
	"go-c2rcc/internal/nn"
	"go-c2rcc/internal/storage"
)

// Set holds one loaded model per role. It is never mutated after creation
// and may be shared by any number of goroutines.
type Set struct {
	models  [RoleCount]nn.Model
	sources Binding
}

// NewSet assembles a set from already constructed models
func NewSet(models [RoleCount]nn.Model, sources Binding) (*Set, error) {
	for i, m := range models {
		if m == nil {
			return nil, apperrors.NewConfigError(fmt.Sprintf("missing model for role %s", Role(i)), nil)
		}
	}
	return &Set{models: models, sources: sources}, nil
}

// Model returns the network serving role r
func (s *Set) Model(r Role) nn.Model { return s.models[r] }

// Source returns the resource name the role was loaded from
func (s *Set) Source(r Role) string { return s.sources[r] }

// Sources returns the binding the set was loaded from
func (s *Set) Sources() Binding { return s.sources }

// Loader fetches and parses all networks of a binding
type Loader struct {
	fetcher storage.NetFetcher
}

func NewLoader(fetcher storage.NetFetcher) *Loader {
	return &Loader{fetcher: fetcher}
}

// Load resolves every role in parallel. The first failure cancels the
// remaining fetches and is returned as a load error.
func (l *Loader) Load(ctx context.Context, binding Binding) (*Set, error) {
	if err := binding.Validate(); err != nil {
		return nil, apperrors.NewConfigError("incomplete network binding", err)
	}

	start := time.Now()
	var models [RoleCount]nn.Model

	g, gCtx := errgroup.WithContext(ctx)
	for _, role := range Roles() {
		role := role
		g.Go(func() error {
			m, err := l.loadOne(gCtx, binding[role])
			if err != nil {
				return apperrors.NewLoadError(fmt.Sprintf("failed to load %s network %q", role, binding[role]), err)
			}
			models[role] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.WithError(err).Error("Network set loading failed")
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"networks":    RoleCount,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Network set loaded")

	return &Set{models: models, sources: binding}, nil
}

func (l *Loader) loadOne(ctx context.Context, name string) (nn.Model, error) {
	rc, err := l.fetcher.FetchNet(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	net, _, err := nn.Parse(rc)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	logger.WithFields(logrus.Fields{
		"resource": name,
		"topology": net.Topology(),
	}).Debug("Network parsed")
	return net, nil
}
