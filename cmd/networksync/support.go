package main

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/ddloads/networksync/pkg/cmdsupport"
	"github.com/ddloads/networksync/pkg/config"
	"github.com/ddloads/networksync/pkg/engine"
	"github.com/ddloads/networksync/pkg/logging"
)

// loadConfiguration reads the per-peer configuration, honoring the --config
// override if one was supplied.
func loadConfiguration() (*config.Config, string, error) {
	path := rootConfiguration.configPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, "", errors.Wrap(err, "unable to determine configuration path")
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", errors.Wrap(err, "unable to load configuration")
	}
	return cfg, path, nil
}

// openEngine loads the configuration and binds an engine to its configured
// shared mount, using the requested logging level. It returns the resolved
// configuration path alongside the engine and configuration so callers that
// go on to mutate the configuration (e.g. "project create --bind") don't
// need to re-resolve it.
func openEngine() (*engine.Engine, *config.Config, string, error) {
	cfg, path, err := loadConfiguration()
	if err != nil {
		return nil, nil, "", err
	}
	if cfg.NASPath == "" {
		return nil, nil, "", errors.New("no shared mount configured; run \"networksync config show\" to see the configuration path and set nas_path")
	}
	e, err := engine.Open(cfg.NASPath, cfg.MachineName, rootLogger())
	if err != nil {
		return nil, nil, "", err
	}
	return e, cfg, path, nil
}

// resolveLocalPath resolves the local checkout path for a project, preferring
// an explicit argument over the configured binding.
func resolveLocalPath(cfg *config.Config, projectID, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if binding, ok := cfg.Projects[projectID]; ok && binding.LocalPath != "" {
		return binding.LocalPath, nil
	}
	return "", errors.Errorf("no local path bound for project %q; pass one explicitly or add it to the configuration", projectID)
}

// printEngineError reports an *engine.Error with a message tailored to its
// kind, falling back to the generic formatting for anything else.
func printEngineError(err error) {
	var engineErr *engine.Error
	if errors.As(err, &engineErr) && engineErr.Kind == engine.KindLockBusy {
		cmdsupport.Warning(fmt.Sprintf("shared mount is busy: %s", engineErr.Error()))
		return
	}
	cmdsupport.Error(err)
}
