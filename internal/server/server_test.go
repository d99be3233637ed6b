package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shepherd-church/shepherd/internal/config"
	"github.com/shepherd-church/shepherd/internal/models"
	"github.com/shepherd-church/shepherd/internal/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateQueue(t *testing.T) {
	q, err := createQueue(&config.Config{Queue: config.QueueConfig{Type: "memory"}}, nil)
	require.NoError(t, err)
	defer q.Close()
	assert.IsType(t, &queue.MemoryQueue{}, q)

	_, err = createQueue(&config.Config{Queue: config.QueueConfig{Type: "valkey"}}, nil)
	assert.Error(t, err, "valkey without an address")

	_, err = createQueue(&config.Config{Queue: config.QueueConfig{Type: "kafka"}}, nil)
	assert.ErrorContains(t, err, "unsupported queue type")
}

func TestBuildEvaluator(t *testing.T) {
	e, err := buildEvaluator(config.AccessConfig{})
	require.NoError(t, err)
	assert.Equal(t, "/dashboard", e.Fallback())
	assert.True(t, e.IsAllowed(models.RoleMember, "/forum"))

	path := filepath.Join(t.TempDir(), "access.yaml")
	require.NoError(t, os.WriteFile(path, []byte("paths:\n  /home: [member]\n  /donations: [super_admin]\n"), 0o644))

	e, err = buildEvaluator(config.AccessConfig{TableFile: path, FallbackPath: "/home"})
	require.NoError(t, err)
	assert.Equal(t, "/home", e.Fallback())
	assert.False(t, e.IsAllowed(models.RoleAdmin, "/donations"))

	require.NoError(t, os.WriteFile(path, []byte("paths:\n  /home: [pastor]\n"), 0o644))
	_, err = buildEvaluator(config.AccessConfig{TableFile: path})
	assert.Error(t, err)
}

func TestSetupDatabaseSeedsSettings(t *testing.T) {
	t.Setenv("ADMIN_USERNAME", "")
	t.Setenv("ADMIN_PASSWORD", "")

	cfg := &config.Config{
		Database: config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "shepherd.db"), LogLevel: "error"},
		Church:   config.ChurchConfig{Name: "Grace Chapel"},
	}

	database, err := setupDatabase(cfg)
	require.NoError(t, err)

	var settings []models.Setting
	require.NoError(t, database.Order("key").Find(&settings).Error)
	require.Len(t, settings, 2)
	assert.Equal(t, models.SettingChurchName, settings[0].Key)
	assert.Equal(t, "Grace Chapel", settings[0].Value)
	assert.Equal(t, models.SettingInstanceID, settings[1].Key)
	assert.NotEmpty(t, settings[1].Value)
}
