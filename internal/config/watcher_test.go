package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"atxcontrol/internal/clock"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type reloadRecorder struct {
	mu      sync.Mutex
	configs []Config
}

func (r *reloadRecorder) onReload(cfg Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs = append(r.configs, cfg)
}

func (r *reloadRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.configs)
}

func (r *reloadRecorder) last() Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.configs[len(r.configs)-1]
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	clk := clock.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	rec := &reloadRecorder{}
	w := NewWatcher(path, rec.onReload, clk, zap.NewNop())

	w.handle(fsnotify.Event{Name: path, Op: fsnotify.Write})
	clk.Advance(300 * time.Millisecond)
	w.handle(fsnotify.Event{Name: path, Op: fsnotify.Write})
	clk.Advance(300 * time.Millisecond)
	assert.Equal(t, 0, rec.count(), "second event restarts the delay")

	clk.Advance(200 * time.Millisecond)
	require.Equal(t, 1, rec.count())
	assert.Equal(t, "2094828328", rec.last().ATX.Miot.Did)
	assert.Equal(t, 0, clk.Pending())
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	clk := clock.NewMockClock(time.Now())
	rec := &reloadRecorder{}
	w := NewWatcher(path, rec.onReload, clk, zap.NewNop())

	w.handle(fsnotify.Event{Name: filepath.Join(filepath.Dir(path), "other.yaml"), Op: fsnotify.Write})
	w.handle(fsnotify.Event{Name: path, Op: fsnotify.Chmod})
	assert.Equal(t, 0, clk.Pending())

	w.handle(fsnotify.Event{Name: path, Op: fsnotify.Create})
	assert.Equal(t, 1, clk.Pending())
}

func TestWatcher_ParseErrorKeepsPrevious(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	clk := clock.NewMockClock(time.Now())
	rec := &reloadRecorder{}
	w := NewWatcher(path, rec.onReload, clk, zap.NewNop())

	require.NoError(t, os.WriteFile(path, []byte("atx: [broken"), 0644))
	w.handle(fsnotify.Event{Name: path, Op: fsnotify.Write})
	clk.Advance(DebounceDelay)

	assert.Equal(t, 0, rec.count())
}

func TestWatcher_StopCancelsPendingReload(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	clk := clock.NewMockClock(time.Now())
	rec := &reloadRecorder{}
	w := NewWatcher(path, rec.onReload, clk, zap.NewNop())

	w.handle(fsnotify.Event{Name: path, Op: fsnotify.Write})
	w.Stop()
	w.Stop()
	clk.Advance(DebounceDelay)

	assert.Equal(t, 0, rec.count())

	w.handle(fsnotify.Event{Name: path, Op: fsnotify.Write})
	assert.Equal(t, 0, clk.Pending())
}

func TestWatcher_FileSystemEvents(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	rec := &reloadRecorder{}
	w := NewWatcher(path, rec.onReload, nil, zap.NewNop())
	require.NoError(t, w.Start())
	defer w.Stop()

	updated := strings.Replace(sampleConfig, `did: "2094828328"`, `did: "777"`, 1)
	require.NoError(t, os.WriteFile(path, []byte(updated), 0644))

	require.Eventually(t, func() bool {
		return rec.count() > 0 && rec.last().ATX.Miot.Did == "777"
	}, 5*time.Second, 50*time.Millisecond)
}

func TestWatcher_StartFailsForMissingDirectory(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "gone", "config.yaml"), func(Config) {}, nil, zap.NewNop())
	assert.Error(t, w.Start())
}
