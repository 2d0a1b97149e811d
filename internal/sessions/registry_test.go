package sessions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillbridge-admin/internal/models"
)

func TestHeartbeatCreatesAndRefreshes(t *testing.T) {
	registry := NewRegistry(30 * time.Minute)

	assert.False(t, registry.IsActive("admin-1"))

	registry.Heartbeat("admin-1")
	assert.True(t, registry.IsActive("admin-1"))

	active := registry.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "admin-1", active[0].AdminID)
}

func TestAddAndUpdateSession(t *testing.T) {
	registry := NewRegistry(30 * time.Minute)

	registry.Add("admin-1", models.AdminSession{Email: "mod@skillbridge.io"})

	ok := registry.Update("admin-1", map[string]interface{}{
		"email": "lead@skillbridge.io",
		"page":  "/dashboard",
	})
	assert.True(t, ok)

	active := registry.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "lead@skillbridge.io", active[0].Email)
	assert.Equal(t, "/dashboard", active[0].Metadata["page"])

	assert.False(t, registry.Update("unknown", nil))
}

func TestRemoveSession(t *testing.T) {
	registry := NewRegistry(30 * time.Minute)

	registry.Heartbeat("admin-1")
	registry.Remove("admin-1")

	assert.False(t, registry.IsActive("admin-1"))
	assert.Empty(t, registry.Active())
}

func TestActiveWindowExpiry(t *testing.T) {
	registry := NewRegistry(30 * time.Millisecond)

	registry.Heartbeat("admin-1")
	assert.True(t, registry.IsActive("admin-1"))

	time.Sleep(50 * time.Millisecond)
	assert.False(t, registry.IsActive("admin-1"))
	assert.Empty(t, registry.Active())
}

func TestEvictDropsStaleSessions(t *testing.T) {
	registry := NewRegistry(30 * time.Millisecond)

	registry.Heartbeat("stale")
	time.Sleep(50 * time.Millisecond)
	registry.Heartbeat("fresh")

	evicted := registry.Evict()
	assert.Equal(t, 1, evicted)
	assert.True(t, registry.IsActive("fresh"))
	assert.False(t, registry.IsActive("stale"))
}
