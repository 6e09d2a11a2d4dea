package device

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ErrUnavailable reports that no battery is exposed under the configured
// sysfs path (desktops, containers, VMs).
var ErrUnavailable = errors.New("battery information unavailable")

// Event is emitted by the monitor when the battery level changes.
type Event struct {
	Level int
	Low   bool
}

// MonitorConfig holds configuration for the battery monitor
type MonitorConfig struct {
	// SysfsPath is the power-supply class directory (default: /sys/class/power_supply)
	SysfsPath string

	// Name is the battery device name (default: BAT0)
	Name string

	// LowThreshold is the percentage at or below which events carry Low=true (default: 20)
	LowThreshold int

	// PollInterval is how often the level is re-read (default: 30s)
	PollInterval time.Duration

	// SettingsCmd is the command launched by OpenSettings; empty disables it
	SettingsCmd string
}

// DefaultMonitorConfig returns sensible defaults
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		SysfsPath:    "/sys/class/power_supply",
		Name:         "BAT0",
		LowThreshold: 20,
		PollInterval: 30 * time.Second,
	}
}

// Monitor reads battery capacity from sysfs and fans level changes out to
// subscribers. All reads go through the filesystem, so a missing battery
// degrades to ErrUnavailable instead of failing startup.
type Monitor struct {
	config MonitorConfig

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	// subMu guards subs and last; Poll may be called outside the loop.
	subMu sync.Mutex
	subs  []chan Event
	last  int
}

func NewMonitor(config MonitorConfig) *Monitor {
	if config.SysfsPath == "" {
		config.SysfsPath = DefaultMonitorConfig().SysfsPath
	}
	if config.Name == "" {
		config.Name = DefaultMonitorConfig().Name
	}
	if config.LowThreshold <= 0 {
		config.LowThreshold = DefaultMonitorConfig().LowThreshold
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultMonitorConfig().PollInterval
	}
	return &Monitor{config: config, last: -1}
}

func (m *Monitor) capacityFile() string {
	return filepath.Join(m.config.SysfsPath, m.config.Name, "capacity")
}

// Level reads the current charge percentage. Returns ErrUnavailable when
// the sysfs entry does not exist or cannot be parsed.
func (m *Monitor) Level(ctx context.Context) (int, error) {
	data, err := os.ReadFile(m.capacityFile())
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrUnavailable, m.capacityFile())
	}

	level, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("%w: bad capacity value %q", ErrUnavailable, strings.TrimSpace(string(data)))
	}
	if level < 0 {
		level = 0
	}
	if level > 100 {
		level = 100
	}
	return level, nil
}

// Subscribe registers a channel that receives an Event on every level
// change observed by the poll loop. The returned function unsubscribes.
func (m *Monitor) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 8)

	m.subMu.Lock()
	m.subs = append(m.subs, ch)
	m.subMu.Unlock()

	cancel := func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		for i, sub := range m.subs {
			if sub == ch {
				m.subs = append(m.subs[:i], m.subs[i+1:]...)
				close(ch)
				return
			}
		}
	}
	return ch, cancel
}

// Start begins the poll loop. Returns an error if already running.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("battery monitor is already running")
	}
	m.running = true
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})
	m.mu.Unlock()

	go m.runLoop(ctx)

	slog.InfoContext(ctx, "Battery monitor started",
		"device", m.config.Name,
		"poll_interval", m.config.PollInterval,
		"low_threshold", m.config.LowThreshold,
		"component", "battery")

	return nil
}

// Stop gracefully stops the monitor and waits for completion.
func (m *Monitor) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	close(m.stopCh)

	select {
	case <-m.doneCh:
		slog.InfoContext(ctx, "Battery monitor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Battery monitor stop timed out")
		return ctx.Err()
	}

	m.mu.Lock()
	m.running = false
	m.mu.Unlock()

	return nil
}

// IsRunning returns whether the monitor is currently running
func (m *Monitor) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Monitor) runLoop(ctx context.Context) {
	defer close(m.doneCh)

	ticker := time.NewTicker(m.config.PollInterval)
	defer ticker.Stop()

	// Read immediately on startup
	m.Poll(ctx)

	for {
		select {
		case <-m.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Poll(ctx)
		}
	}
}

// Poll reads the level once and notifies subscribers if it changed. Safe to
// call concurrently with the running loop.
func (m *Monitor) Poll(ctx context.Context) {
	level, err := m.Level(ctx)

	m.subMu.Lock()
	defer m.subMu.Unlock()

	if err != nil {
		// An unavailable battery is normal on machines without one;
		// keep the loop quiet after the first report.
		if m.last != -1 {
			slog.WarnContext(ctx, "Battery became unavailable",
				"error", err,
				"component", "battery")
			m.last = -1
		}
		return
	}

	if level == m.last {
		return
	}
	m.last = level

	ev := Event{Level: level, Low: level <= m.config.LowThreshold}
	if ev.Low {
		slog.WarnContext(ctx, "Battery level low",
			"battery_level", level,
			"threshold", m.config.LowThreshold,
			"component", "battery")
	}

	for _, sub := range m.subs {
		select {
		case sub <- ev:
		default:
			// Slow subscriber, drop the event rather than block the loop
		}
	}
}

// OpenSettings launches the configured battery settings command. It is a
// logged no-op when no command is configured.
func (m *Monitor) OpenSettings(ctx context.Context) error {
	if strings.TrimSpace(m.config.SettingsCmd) == "" {
		slog.InfoContext(ctx, "No battery settings command configured",
			"component", "battery")
		return nil
	}

	parts := strings.Fields(m.config.SettingsCmd)
	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch battery settings: %w", err)
	}

	// Detach: the settings UI outlives the request
	go func() {
		_ = cmd.Wait()
	}()

	slog.InfoContext(ctx, "Battery settings launched",
		"command", parts[0],
		"component", "battery")

	return nil
}
