package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curriculum-tools/dataeditor/internal/events"
	"github.com/curriculum-tools/dataeditor/pkg/config"
)

// waitFor polls until the condition holds; the load runs on the queue worker.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func testDbConfig(path string) config.DatabaseConfig {
	return config.DatabaseConfig{Path: path, BusyTimeout: time.Second, Bootstrap: true}
}

func TestDbServiceLoadsInitialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curriculum.sqlite3")
	s := NewDbService(testDbConfig(path), nil)
	defer s.Stop()

	s.Start(context.Background())

	waitFor(t, func() bool { return s.DataSource().Get() != nil })
	assert.Equal(t, path, s.DbFile().Get())
	assert.Equal(t, "", s.Task().Get())
}

func TestDbServiceLoadEventReplacesDatasource(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.sqlite3")
	second := filepath.Join(dir, "second.sqlite3")

	s := NewDbService(testDbConfig(first), nil)
	defer s.Stop()
	s.Start(context.Background())
	waitFor(t, func() bool { return s.DataSource().Get() != nil })
	old := s.DataSource().Get()

	s.DbEventSource().Push(events.NewLoadDbEvent(second))

	waitFor(t, func() bool { return s.DbFile().Get() == second })
	require.NotNil(t, s.DataSource().Get())
	assert.NotSame(t, old, s.DataSource().Get())
}

func TestDbServiceFailedLoadKeepsPreviousDatasource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "good.sqlite3")
	s := NewDbService(testDbConfig(path), nil)
	defer s.Stop()
	s.Start(context.Background())
	waitFor(t, func() bool { return s.DataSource().Get() != nil })
	good := s.DataSource().Get()

	s.DbEventSource().Push(events.NewLoadDbEvent(filepath.Join(t.TempDir(), "missing", "nested", "bad.sqlite3")))

	// The worker logs the failure and leaves the old handle alone.
	time.Sleep(200 * time.Millisecond)
	assert.Same(t, good, s.DataSource().Get())
	assert.Equal(t, path, s.DbFile().Get())
}

func TestDbServiceCloseClearsDatasource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curriculum.sqlite3")
	s := NewDbService(testDbConfig(path), nil)
	defer s.Stop()
	s.Start(context.Background())
	waitFor(t, func() bool { return s.DataSource().Get() != nil })

	s.DbEventSource().Push(events.NewCloseDbEvent())

	assert.Nil(t, s.DataSource().Get())
	assert.Equal(t, "", s.DbFile().Get())
}
