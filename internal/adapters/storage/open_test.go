package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/ridematch/internal/adapters/memory"
	"github.com/samirrijal/ridematch/internal/pkg/config"
)

func TestOpen_Memory(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{
		Driver: config.DriverMemory,
		File:   filepath.Join(t.TempDir(), "routes.json"),
	}}

	s, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer s.Close()

	assert.Nil(t, s.DB)
	assert.IsType(t, &memory.RouteStore{}, s.Routes)
}

func TestOpen_UnknownDriver(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Driver: "bolt"}}
	_, err := Open(context.Background(), cfg)
	assert.Error(t, err)
}
