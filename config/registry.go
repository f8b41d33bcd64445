package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration decodes either an integer number of seconds or a Go duration
// string such as "1500ms".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", value.Line)
	}
	s := strings.TrimSpace(value.Value)
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(secs) * time.Second)
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q", value.Line, value.Value)
	}
	*d = Duration(parsed)
	return nil
}

type switchMonitorEntry struct {
	UpdateFile string `yaml:"update_file"`
	DoneFile   string `yaml:"done_file"`
}

type registryEntry struct {
	CommandKey      string             `yaml:"command_key"`
	MonitorInterval *Duration          `yaml:"monitor_interval"`
	OldBufLifeTime  *Duration          `yaml:"old_buf_life_time"`
	SwitchMonitor   switchMonitorEntry `yaml:"switch_monitor"`
}

func (e registryEntry) config(defaults Defaults) Config {
	c := Config{
		PollInterval: defaults.PollInterval,
		GracePeriod:  defaults.GracePeriod,
		ChangePath:   e.SwitchMonitor.UpdateFile,
		OutcomePath:  e.SwitchMonitor.DoneFile,
	}
	if e.MonitorInterval != nil {
		c.PollInterval = time.Duration(*e.MonitorInterval)
	}
	if e.OldBufLifeTime != nil {
		c.GracePeriod = time.Duration(*e.OldBufLifeTime)
	}
	return c
}

// Registry maps a command key to the configuration of one buffer. It is
// immutable once built and safe for concurrent use.
type Registry struct {
	configs map[string]Config
}

func LoadRegistry(path string, defaults Defaults) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read registry: %w", err)
	}
	r, err := ParseRegistry(data, defaults)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// ParseRegistry decodes a YAML sequence of entries, one per command key.
func ParseRegistry(data []byte, defaults Defaults) (*Registry, error) {
	var entries []registryEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("unable to parse registry: %w", err)
	}

	r := &Registry{configs: make(map[string]Config, len(entries))}
	for i, e := range entries {
		if e.CommandKey == "" {
			return nil, fmt.Errorf("registry entry %d: command_key is required", i)
		}
		if _, ok := r.configs[e.CommandKey]; ok {
			return nil, fmt.Errorf("registry entry %d: duplicate command_key %q", i, e.CommandKey)
		}
		c := e.config(defaults)
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("registry entry %q: %w", e.CommandKey, err)
		}
		r.configs[e.CommandKey] = c
	}
	return r, nil
}

// Get is safe on a nil Registry, which holds no keys.
func (r *Registry) Get(key string) (Config, bool) {
	if r == nil {
		return Config{}, false
	}
	c, ok := r.configs[key]
	return c, ok
}

// MonitorFile returns the change-signal path for key, or "" if key is unknown.
func (r *Registry) MonitorFile(key string) string {
	c, _ := r.Get(key)
	return c.ChangePath
}

func (r *Registry) Keys() []string {
	if r == nil {
		return nil
	}
	keys := make([]string, 0, len(r.configs))
	for k := range r.configs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
