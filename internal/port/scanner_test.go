package port

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/stevedore/internal/model"
)

// occupyPort binds an ephemeral TCP port for the duration of the test and
// returns its number, guaranteeing a port that IsAvailable must reject.
func occupyPort(t *testing.T) int {
	t.Helper()
	listener, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })
	return listener.Addr().(*net.TCPAddr).Port
}

func TestIsAvailableDetectsBoundPort(t *testing.T) {
	s := NewScanner()
	port := occupyPort(t)
	assert.False(t, s.IsAvailable(port))
}

func TestIsAvailableFreePort(t *testing.T) {
	s := NewScanner()

	// Find a free port by binding and releasing it; the window between
	// release and probe is small enough for a unit test.
	listener, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())

	assert.True(t, s.IsAvailable(port))
}

func TestConflictsReportsOnlyBoundFixedPorts(t *testing.T) {
	s := NewScanner()
	bound := occupyPort(t)

	cfg := &model.PodConfig{
		Version: "2",
		Services: map[string]*model.ServiceDefinition{
			"web": {
				Image: "web:latest",
				Ports: []model.PortMapping{
					{HostPort: bound, ContainerPort: 80},
					// Host side zero: runtime-assigned, never probed.
					{ContainerPort: 9000},
				},
			},
			"db": {Image: "postgres:16"},
		},
	}

	conflicts := s.Conflicts(cfg)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "web", conflicts[0].Service)
	assert.Equal(t, bound, conflicts[0].HostPort)
	assert.Contains(t, conflicts[0].String(), "web")
}

func TestConflictsCleanConfig(t *testing.T) {
	s := NewScanner()
	cfg := &model.PodConfig{
		Version: "2",
		Services: map[string]*model.ServiceDefinition{
			"db": {Image: "postgres:16", Ports: []model.PortMapping{{ContainerPort: 5432}}},
		},
	}
	assert.Empty(t, s.Conflicts(cfg))
}
