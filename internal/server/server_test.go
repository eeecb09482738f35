package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-c2rcc/internal/config"
	"go-c2rcc/internal/container"
)

func newContainer(t *testing.T, port string) *container.Container {
	t.Helper()
	cfg := config.Default()
	cfg.Host = "127.0.0.1"
	cfg.Port = port
	cfg.NetDir = t.TempDir()
	cfg.NetFetchTimeout = time.Second
	c, err := container.NewContainer(cfg)
	require.NoError(t, err)
	return c
}

func TestRun_GracefulShutdown(t *testing.T) {
	c := newContainer(t, "0")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, c) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestRun_ListenError(t *testing.T) {
	c := newContainer(t, "not-a-port")

	select {
	case err := <-runAsync(c):
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("expected listen failure")
	}
}

func runAsync(c *container.Container) <-chan error {
	done := make(chan error, 1)
	go func() { done <- Run(context.Background(), c) }()
	return done
}
