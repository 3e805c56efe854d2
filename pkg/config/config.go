// Package config provides configuration loading for magtomo. It handles
// loading run configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"magtomo/pkg/backend"
	"magtomo/pkg/phantom"
	"magtomo/pkg/reconstruction"
	"magtomo/pkg/tilt"
)

// Config represents the run configuration loaded from YAML.
type Config struct {
	// Scheme describes the tilt acquisition geometry.
	Scheme struct {
		// Mode selects the scheme family: x, y, dual, quad, rand, sync, sx, dist.
		Mode string `yaml:"mode"`

		// NTilt is the total number of tilt stops.
		NTilt int `yaml:"nTilt"`

		// Alpha, Beta and Gamma are half-ranges in degrees.
		Alpha float64 `yaml:"alpha"`
		Beta  float64 `yaml:"beta"`
		Gamma float64 `yaml:"gamma"`

		// DistN2 is the secondary stop count of dist mode.
		DistN2 int `yaml:"distN2"`

		// Secondary selects the second tilt axis: beta or gamma.
		Secondary string `yaml:"secondary"`

		// Seed makes rand mode reproducible.
		Seed int64 `yaml:"seed"`
	} `yaml:"scheme"`

	// Phantom describes the simulated sample.
	Phantom struct {
		// Shape is sphere, bar or vortex.
		Shape string `yaml:"shape"`

		// RadiusM is the feature radius in metres.
		RadiusM float64 `yaml:"radiusM"`

		// MsAm is the saturated magnetisation in A/m.
		MsAm float64 `yaml:"msAm"`

		// PlanRot rotates the in-plane magnetisation in degrees from +x.
		PlanRot float64 `yaml:"planRot"`

		// BoxLengthM and BoxLengthPx size the cubic bounding box.
		BoxLengthM  float64 `yaml:"boxLengthM"`
		BoxLengthPx int     `yaml:"boxLengthPx"`
	} `yaml:"phantom"`

	// Reconstruction controls the iterative separation.
	Reconstruction struct {
		// FullIterations is the number of major rounds.
		FullIterations int `yaml:"fullIterations"`

		// StepIterations is the solver iteration count per round.
		StepIterations int `yaml:"stepIterations"`

		// Algorithm names the backend solver.
		Algorithm string `yaml:"algorithm"`

		// RegularizationWeight is the solver regularisation weight.
		RegularizationWeight float64 `yaml:"regularizationWeight"`

		// ThresholdMin and ThresholdMax bound the weight threshold schedule.
		ThresholdMin float64 `yaml:"thresholdMin"`
		ThresholdMax float64 `yaml:"thresholdMax"`

		// PadVoxels is the zero margin around stacks and volumes.
		PadVoxels int `yaml:"padVoxels"`

		// Workers caps the backend parallelism.
		Workers int `yaml:"workers"`
	} `yaml:"reconstruction"`

	// Output parameters.
	Output struct {
		// Verbose controls the level of logging output.
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	p := tilt.DefaultParams()
	cfg.Scheme.Mode = string(tilt.ModeDual)
	cfg.Scheme.NTilt = p.NTilt
	cfg.Scheme.Alpha = p.Alpha
	cfg.Scheme.Beta = p.Beta
	cfg.Scheme.Gamma = p.Gamma
	cfg.Scheme.DistN2 = p.DistN2
	cfg.Scheme.Secondary = string(p.Secondary)

	cfg.Phantom.Shape = "sphere"
	cfg.Phantom.RadiusM = 10e-9
	cfg.Phantom.MsAm = phantom.DefaultMs
	cfg.Phantom.BoxLengthM = 100e-9
	cfg.Phantom.BoxLengthPx = 64

	r := reconstruction.DefaultConfig()
	cfg.Reconstruction.FullIterations = r.FullIterations
	cfg.Reconstruction.StepIterations = r.StepIterations
	cfg.Reconstruction.Algorithm = r.Algorithm
	cfg.Reconstruction.RegularizationWeight = r.RegularizationWeight
	cfg.Reconstruction.ThresholdMin = r.ThresholdMin
	cfg.Reconstruction.ThresholdMax = r.ThresholdMax
	cfg.Reconstruction.PadVoxels = r.PadVoxels
	cfg.Reconstruction.Workers = runtime.NumCPU()

	cfg.Output.Verbose = true

	return cfg
}

// SchemeParams converts the scheme section into generator parameters.
func (c *Config) SchemeParams() tilt.Params {
	return tilt.Params{
		Mode:      tilt.Mode(c.Scheme.Mode),
		NTilt:     c.Scheme.NTilt,
		Alpha:     c.Scheme.Alpha,
		Beta:      c.Scheme.Beta,
		Gamma:     c.Scheme.Gamma,
		DistN2:    c.Scheme.DistN2,
		Secondary: tilt.Secondary(c.Scheme.Secondary),
		Seed:      c.Scheme.Seed,
	}
}

// ReconstructionConfig converts the reconstruction section.
func (c *Config) ReconstructionConfig() reconstruction.Config {
	return reconstruction.Config{
		FullIterations:       c.Reconstruction.FullIterations,
		StepIterations:       c.Reconstruction.StepIterations,
		Algorithm:            c.Reconstruction.Algorithm,
		RegularizationWeight: c.Reconstruction.RegularizationWeight,
		ThresholdMin:         c.Reconstruction.ThresholdMin,
		ThresholdMax:         c.Reconstruction.ThresholdMax,
		PadVoxels:            c.Reconstruction.PadVoxels,
	}
}

// Backend builds the configured CPU backend.
func (c *Config) Backend() backend.Backend {
	return backend.NewCPU(c.Reconstruction.Workers)
}

// LoadConfig loads configuration from a YAML file. If the file doesn't
// exist, it returns the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file.
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}
