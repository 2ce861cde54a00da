// Package config defines FRICO's typed configuration tree, its defaults,
// and validation — the same Default()/Validate() shape the teacher's
// internal/config package uses, with FRICO's own field tree.
package config

import (
	"fmt"
	"os"
	"time"
)

// Config is the top-level configuration for FRICO.
type Config struct {
	Cluster    ClusterConfig    `yaml:"cluster"`
	Kubernetes KubernetesConfig `yaml:"kubernetes"`
	Engine     EngineConfig     `yaml:"engine"`
	Simulation SimulationConfig `yaml:"simulation"`
	HTTP       HTTPConfig       `yaml:"http"`
	Logging    LoggingConfig    `yaml:"logging"`
	Audit      AuditConfig      `yaml:"audit"`
	AWS        AWSConfig        `yaml:"aws"`
}

// ClusterConfig names the fleet FRICO is controlling.
type ClusterConfig struct {
	Name string `yaml:"name"`
}

// KubernetesConfig controls how the cluster adapter connects and interprets
// node metadata.
type KubernetesConfig struct {
	Kubeconfig string `yaml:"kubeconfig"`
	Context    string `yaml:"context"`
	Namespace  string `yaml:"namespace"`

	ManagementNodeLabel  string  `yaml:"management_node_label" mapstructure:"management_node_label"`
	ColorsAnnotation     string  `yaml:"colors_annotation" mapstructure:"colors_annotation"`
	CapacityDerateFactor float64 `yaml:"capacity_derate_factor" mapstructure:"capacity_derate_factor"`
}

// EngineConfig controls the placement engine itself. ReallocThreshold is
// bound to the historical MAX_REALLOC environment variable (spec.md §6.3).
type EngineConfig struct {
	ReallocThreshold int `yaml:"realloc_threshold" mapstructure:"realloc_threshold"`
}

// SimulationConfig names the current run, per spec.md §6.3's
// SIMULATION_NAME variable. The resolved Name (with a timestamp suffix
// appended at startup) becomes the run identity written to simulation.id.
type SimulationConfig struct {
	Name string `yaml:"name"`
}

// HTTPConfig controls the front-end's listener.
type HTTPConfig struct {
	Address string `yaml:"address"`
}

// LoggingConfig controls where and how FRICO logs, per spec.md §6.3's
// LOG_PATH variable.
type LoggingConfig struct {
	Path  string `yaml:"path"`
	Devel bool   `yaml:"devel"`
}

// AuditConfig controls the CSV audit trail, spec.md §6.5.
type AuditConfig struct {
	Path      string `yaml:"path"`
	MaxSizeMB int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
}

// AWSConfig controls the optional EC2 cost-enrichment side channel. It is
// never consulted by the placement engine.
type AWSConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Region   string        `yaml:"region"`
	TTL      time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
	CacheDir string        `yaml:"cache_dir" mapstructure:"cache_dir"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Cluster: ClusterConfig{Name: "default"},
		Kubernetes: KubernetesConfig{
			Namespace:            "tasks",
			ManagementNodeLabel:  "frico.io/management",
			ColorsAnnotation:     "colors",
			CapacityDerateFactor: 0.95,
		},
		Engine: EngineConfig{
			ReallocThreshold: 0,
		},
		Simulation: SimulationConfig{
			Name: "frico",
		},
		HTTP: HTTPConfig{
			Address: ":8080",
		},
		Logging: LoggingConfig{
			Path: "stdout",
		},
		Audit: AuditConfig{
			Path:      "test_bed.csv",
			MaxSizeMB: 100,
		},
		AWS: AWSConfig{
			Enabled:  false,
			Region:   detectRegion(),
			TTL:      1 * time.Hour,
			CacheDir: ".frico-cache",
		},
	}
}

// Validate checks the config for consistency.
func (c *Config) Validate() error {
	if c.Engine.ReallocThreshold < 0 {
		return fmt.Errorf("engine.realloc_threshold must be non-negative, got %d", c.Engine.ReallocThreshold)
	}
	if c.Kubernetes.CapacityDerateFactor <= 0 || c.Kubernetes.CapacityDerateFactor > 1 {
		return fmt.Errorf("kubernetes.capacity_derate_factor must be in (0,1], got %v", c.Kubernetes.CapacityDerateFactor)
	}
	if c.Simulation.Name == "" {
		return fmt.Errorf("simulation.name must not be empty")
	}
	if c.HTTP.Address == "" {
		return fmt.Errorf("http.address must not be empty")
	}
	if c.AWS.Enabled && c.AWS.Region == "" {
		return fmt.Errorf("aws.region must be set when aws.enabled is true")
	}
	return nil
}

// detectRegion checks environment variables for the AWS region, matching
// the teacher's own resolution order.
func detectRegion() string {
	if r := os.Getenv("AWS_REGION"); r != "" {
		return r
	}
	if r := os.Getenv("AWS_DEFAULT_REGION"); r != "" {
		return r
	}
	return "us-east-1"
}
