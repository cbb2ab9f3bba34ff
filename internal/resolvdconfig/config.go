// Package resolvdconfig loads and holds the process-wide configuration
// snapshot: upstream resolvers, filter list descriptors, the scheduler's
// recurring tasks, and statistics retention. Grounded on the teacher's
// internal/config (Load/defaults/normalize shape) but rebuilt on TOML via
// github.com/pelletier/go-toml/v2 instead of Viper/YAML, and narrowed to
// the four keys spec.md §6 names.
package resolvdconfig

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Duration wraps time.Duration with text (un)marshaling so TOML/JSON
// fields hold spec.md §6's "duration string" form (e.g. "30m", "6h")
// instead of go-toml/v2's bare-integer-nanoseconds default, which has no
// TextUnmarshaler of its own for time.Duration.
type Duration time.Duration

// UnmarshalText parses a duration string via time.ParseDuration.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("resolvdconfig: invalid duration %q: %w", text, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText renders d the way time.Duration.String does.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Upstream is one resolver to forward queries to.
type Upstream struct {
	IP   string `toml:"ip" json:"ip"`
	Port uint16 `toml:"port" json:"port"`
}

// Addr returns the "ip:port" form internal/forwarder expects.
func (u Upstream) Addr() string {
	port := u.Port
	if port == 0 {
		port = 53
	}
	return fmt.Sprintf("%s:%d", u.IP, port)
}

// Filter is one block-list descriptor to fetch and load.
type Filter struct {
	Name   string `toml:"name" json:"name"`
	URL    string `toml:"url" json:"url"`
	Format string `toml:"format" json:"format"` // "auto", "hosts", "plain", "adblock"
}

// TaskKind names a recurring scheduled task.
type TaskKind string

const (
	TaskFilters TaskKind = "Filters"
	TaskLogs    TaskKind = "Logs"
)

// Task is one recurring scheduler entry.
type Task struct {
	Name     TaskKind `toml:"name" json:"name"`
	Schedule Duration `toml:"schedule" json:"schedule"`
}

// Config is the root configuration structure, matching spec.md §6's four
// recognized TOML keys exactly.
type Config struct {
	Upstream []Upstream `toml:"upstream" json:"upstream"`
	Filter   []Filter   `toml:"filter" json:"filter"`
	Schedule []Task     `toml:"schedule" json:"schedule"`
	KeepLogs Duration   `toml:"keep_logs" json:"keep_logs"`
}

// defaultKeepLogs is spec.md §6's stated default retention.
const defaultKeepLogs = Duration(6 * time.Hour)

// Default returns a Config with no upstreams/filters/schedule and
// keep_logs at its spec default; internal/forwarder falls back to its own
// default upstream when Upstream is empty.
func Default() Config {
	return Config{KeepLogs: defaultKeepLogs}
}

// Load reads and parses a TOML config file at path, filling unset fields
// from Default.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("resolvdconfig: reading %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("resolvdconfig: parsing %s: %w", path, err)
	}
	if err := normalize(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes cfg to path as TOML, overwriting any existing file.
func Save(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("resolvdconfig: encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("resolvdconfig: writing %s: %w", path, err)
	}
	return nil
}

// ErrInvalidConfig is returned when a config fails normalization, e.g. a
// malformed upstream entry or an unrecognized schedule task name.
var ErrInvalidConfig = errors.New("resolvdconfig: invalid configuration")

func normalize(cfg *Config) error {
	if cfg.KeepLogs <= 0 {
		cfg.KeepLogs = defaultKeepLogs
	}
	for _, u := range cfg.Upstream {
		if u.IP == "" {
			return fmt.Errorf("%w: upstream entry missing ip", ErrInvalidConfig)
		}
	}
	for _, f := range cfg.Filter {
		if f.URL == "" {
			return fmt.Errorf("%w: filter entry missing url", ErrInvalidConfig)
		}
	}
	for _, t := range cfg.Schedule {
		if t.Name != TaskFilters && t.Name != TaskLogs {
			return fmt.Errorf("%w: unrecognized schedule task %q", ErrInvalidConfig, t.Name)
		}
	}
	return nil
}

// UpstreamAddrs returns every configured upstream in "ip:port" form.
func (c Config) UpstreamAddrs() []string {
	addrs := make([]string, 0, len(c.Upstream))
	for _, u := range c.Upstream {
		addrs = append(addrs, u.Addr())
	}
	return addrs
}
