// Package config loads and persists the per-peer configuration file: the
// shared mount binding, the local machine's identity, and the mapping from
// project id to local path. It is YAML-backed, following the same
// marshaling library (gopkg.in/yaml.v3) the teacher uses for its own
// human-edited configuration documents.
package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/ddloads/networksync/pkg/filesystem"
	"github.com/ddloads/networksync/pkg/logging"
)

// ProjectBinding records where a project is checked out on this peer.
type ProjectBinding struct {
	LocalPath string `yaml:"local_path"`
}

// Config is the per-peer configuration document.
type Config struct {
	// NASPath is the path at which the shared network mount is bound on
	// this peer.
	NASPath string `yaml:"nas_path"`
	// MachineName identifies this peer in snapshots and locks. It defaults
	// to the OS hostname if left empty.
	MachineName string `yaml:"machine_name"`
	// Projects maps a project id to its local binding on this peer.
	Projects map[string]ProjectBinding `yaml:"projects"`
}

// DefaultPath returns the default configuration file location,
// "~/.config/networksync/config.yaml" (or its platform equivalent via
// os.UserConfigDir).
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "unable to determine user configuration directory")
	}
	return filepath.Join(dir, "networksync", "config.yaml"), nil
}

// Load reads and parses the configuration file at path. A missing file
// yields a Config with no mount and no projects rather than an error, so
// first runs can proceed to populate it incrementally. In both cases an
// empty MachineName defaults to the OS hostname.
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, errors.Wrap(err, "unable to read configuration file")
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "unable to parse configuration file")
	}
	if cfg.Projects == nil {
		cfg.Projects = make(map[string]ProjectBinding)
	}
	if cfg.MachineName == "" {
		if hostname, err := os.Hostname(); err == nil {
			cfg.MachineName = hostname
		}
	}
	return &cfg, nil
}

// Save writes the configuration atomically to path, creating parent
// directories as needed.
func (c *Config) Save(path string, logger *logging.Logger) error {
	if err := filesystem.EnsureParentDirectory(path, 0755); err != nil {
		return errors.Wrap(err, "unable to create configuration directory")
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "unable to encode configuration")
	}
	return filesystem.WriteFileAtomic(path, data, 0644, logger)
}

// BindProject records or updates the local path for a project.
func (c *Config) BindProject(projectID, localPath string) {
	if c.Projects == nil {
		c.Projects = make(map[string]ProjectBinding)
	}
	c.Projects[projectID] = ProjectBinding{LocalPath: localPath}
}

// UnbindProject removes a project's local binding.
func (c *Config) UnbindProject(projectID string) {
	delete(c.Projects, projectID)
}
