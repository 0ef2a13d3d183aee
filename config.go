package jobq

import (
	"context"
	"fmt"
	"time"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"

	"github.com/jobq-io/jobq/service/coordinator"
	"github.com/jobq-io/jobq/service/dao/snapshot"
	"github.com/jobq-io/jobq/service/scheduler"
	"github.com/jobq-io/jobq/service/supervisor"
)

// Config is a serialisable representation of the engine configuration. It
// can be populated from YAML or JSON; the zero value inherits every package
// default. Intervals and timeouts are expressed in milliseconds so config
// files stay plain scalars.
type Config struct {
	Supervisor       SupervisorConfig  `json:"supervisor" yaml:"supervisor"`
	Scheduler        SchedulerConfig   `json:"scheduler" yaml:"scheduler"`
	Coordinator      CoordinatorConfig `json:"coordinator" yaml:"coordinator"`
	SnapshotLocation string            `json:"snapshotLocation,omitempty" yaml:"snapshotLocation,omitempty"`
}

type SupervisorConfig struct {
	MaxLogEntries int `json:"maxLogEntries" yaml:"maxLogEntries"`
	StopTimeoutMs int `json:"stopTimeoutMs" yaml:"stopTimeoutMs"`
}

type SchedulerConfig struct {
	MaxQueueSize  int  `json:"maxQueueSize" yaml:"maxQueueSize"`
	MaxConcurrent int  `json:"maxConcurrent" yaml:"maxConcurrent"`
	MaxRetries    int  `json:"maxRetries" yaml:"maxRetries"`
	RetryEnabled  bool `json:"retryEnabled" yaml:"retryEnabled"`
}

type CoordinatorConfig struct {
	DrainIntervalMs   int  `json:"drainIntervalMs" yaml:"drainIntervalMs"`
	PersistIntervalMs int  `json:"persistIntervalMs" yaml:"persistIntervalMs"`
	RestoreOnStart    bool `json:"restoreOnStart" yaml:"restoreOnStart"`
}

// DefaultConfig returns a Config populated with the same defaults the
// service constructors use.
func DefaultConfig() *Config {
	supervisorDefaults := supervisor.DefaultConfig()
	schedulerDefaults := scheduler.DefaultConfig()
	coordinatorDefaults := coordinator.DefaultConfig()
	return &Config{
		Supervisor: SupervisorConfig{
			MaxLogEntries: supervisorDefaults.MaxLogEntries,
			StopTimeoutMs: int(supervisorDefaults.StopTimeout / time.Millisecond),
		},
		Scheduler: SchedulerConfig{
			MaxQueueSize:  schedulerDefaults.MaxQueueSize,
			MaxConcurrent: schedulerDefaults.MaxConcurrent,
			MaxRetries:    schedulerDefaults.MaxRetries,
			RetryEnabled:  schedulerDefaults.RetryEnabled,
		},
		Coordinator: CoordinatorConfig{
			DrainIntervalMs:   int(coordinatorDefaults.DrainInterval / time.Millisecond),
			PersistIntervalMs: int(coordinatorDefaults.PersistInterval / time.Millisecond),
			RestoreOnStart:    coordinatorDefaults.RestoreOnStart,
		},
	}
}

// Validate returns an error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.Supervisor.MaxLogEntries <= 0 {
		return fmt.Errorf("supervisor.maxLogEntries must be > 0")
	}
	if c.Supervisor.StopTimeoutMs <= 0 {
		return fmt.Errorf("supervisor.stopTimeoutMs must be > 0")
	}
	if c.Scheduler.MaxQueueSize <= 0 {
		return fmt.Errorf("scheduler.maxQueueSize must be > 0")
	}
	if c.Scheduler.MaxConcurrent <= 0 {
		return fmt.Errorf("scheduler.maxConcurrent must be > 0")
	}
	if c.Scheduler.MaxRetries < 0 {
		return fmt.Errorf("scheduler.maxRetries must be >= 0")
	}
	if c.Coordinator.DrainIntervalMs <= 0 {
		return fmt.Errorf("coordinator.drainIntervalMs must be > 0")
	}
	if c.Coordinator.PersistIntervalMs <= 0 {
		return fmt.Errorf("coordinator.persistIntervalMs must be > 0")
	}
	return nil
}

// LoadConfig reads a YAML (or JSON, a YAML subset) configuration from the
// supplied afs URL, overlaying the defaults.
func LoadConfig(ctx context.Context, URL string) (*Config, error) {
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", URL, err)
	}
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", URL, err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// supervisorConfig converts the serialisable form into the service config.
func (c *Config) supervisorConfig() supervisor.Config {
	return supervisor.Config{
		MaxLogEntries: c.Supervisor.MaxLogEntries,
		StopTimeout:   time.Duration(c.Supervisor.StopTimeoutMs) * time.Millisecond,
	}
}

func (c *Config) schedulerConfig() scheduler.Config {
	return scheduler.Config{
		MaxQueueSize:  c.Scheduler.MaxQueueSize,
		MaxConcurrent: c.Scheduler.MaxConcurrent,
		MaxRetries:    c.Scheduler.MaxRetries,
		RetryEnabled:  c.Scheduler.RetryEnabled,
	}
}

func (c *Config) coordinatorConfig() coordinator.Config {
	return coordinator.Config{
		DrainInterval:   time.Duration(c.Coordinator.DrainIntervalMs) * time.Millisecond,
		PersistInterval: time.Duration(c.Coordinator.PersistIntervalMs) * time.Millisecond,
		SnapshotName:    snapshot.DefaultName,
		RestoreOnStart:  c.Coordinator.RestoreOnStart,
	}
}
