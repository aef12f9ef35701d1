//go:build integration

package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Container describes an engine image to start for integration tests.
type Container struct {
	Image      string
	Port       string
	Env        map[string]string
	Cmd        []string
	WaitingFor wait.Strategy
}

// Start runs the container for the lifetime of t and returns host:port of
// the mapped service port.
func Start(t *testing.T, c Container) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	waitFor := c.WaitingFor
	if waitFor == nil {
		waitFor = wait.ForListeningPort(nat.Port(c.Port + "/tcp")).WithStartupTimeout(2 * time.Minute)
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        c.Image,
			ExposedPorts: []string{c.Port + "/tcp"},
			Env:          c.Env,
			Cmd:          c.Cmd,
			WaitingFor:   waitFor,
		},
		Started: true,
	})
	require.NoError(t, err, "start %s", c.Image)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, nat.Port(c.Port))
	require.NoError(t, err)

	return fmt.Sprintf("%s:%s", host, port.Port())
}
