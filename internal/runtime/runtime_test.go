package runtime

import (
	"context"
	"testing"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/stevedore/internal/model"
)

func TestBuildLabels_ManagementKeysWin(t *testing.T) {
	labels := BuildLabels("shop", "web", map[string]string{
		"team":         "frontend",
		LabelManagedBy: "someone-else",
	})

	assert.Equal(t, ManagedByValue, labels[LabelManagedBy])
	assert.Equal(t, "shop", labels[LabelPod])
	assert.Equal(t, "web", labels[LabelService])
	assert.Equal(t, "frontend", labels["team"])
}

func TestContainerName(t *testing.T) {
	assert.Equal(t, "shop-web", ContainerName("shop", "web"))
}

func TestPortConfig(t *testing.T) {
	exposed, bindings, err := portConfig([]model.PortMapping{
		{ContainerPort: 3000},
		{HostPort: 8080, ContainerPort: 80},
	})
	require.NoError(t, err)

	assert.Contains(t, exposed, nat.Port("3000/tcp"))
	assert.Contains(t, exposed, nat.Port("80/tcp"))

	// Container-port-only mappings leave the host side for the daemon.
	assert.Equal(t, "", bindings["3000/tcp"][0].HostPort)
	assert.Equal(t, "8080", bindings["80/tcp"][0].HostPort)
}

func TestPortConfig_Empty(t *testing.T) {
	exposed, bindings, err := portConfig(nil)
	require.NoError(t, err)
	assert.Nil(t, exposed)
	assert.Nil(t, bindings)
}

func TestScriptedAdapter_DefaultsToSuccess(t *testing.T) {
	a := NewScriptedAdapter()

	res, err := a.Invoke(context.Background(), "web", ActionStart, "")
	require.NoError(t, err)
	assert.Zero(t, res.ExitCode)
	assert.Equal(t, []string{"web"}, a.InvokedServices())
}

func TestScriptedAdapter_ScriptedOutcomes(t *testing.T) {
	a := NewScriptedAdapter().
		ScriptFailure("db", 3, "connection refused").
		ScriptError("cache", assert.AnError)

	res, err := a.Invoke(context.Background(), "db", ActionStart, "")
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "connection refused", res.Stderr)

	_, err = a.Invoke(context.Background(), "cache", ActionStart, "")
	assert.ErrorIs(t, err, assert.AnError)
}

func TestScriptedAdapter_RecordsHookCommands(t *testing.T) {
	a := NewScriptedAdapter()
	_, err := a.Invoke(context.Background(), "web", ActionShell, "bash -l")
	require.NoError(t, err)

	invs := a.Invocations()
	require.Len(t, invs, 1)
	assert.Equal(t, Invocation{Service: "web", Action: ActionShell, HookCommand: "bash -l"}, invs[0])
}

func TestAction_IsHook(t *testing.T) {
	assert.True(t, ActionShell.IsHook())
	assert.True(t, ActionTest.IsHook())
	assert.False(t, ActionStart.IsHook())
	assert.False(t, ActionStatus.IsHook())
}
