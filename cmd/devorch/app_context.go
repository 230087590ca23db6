package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/fred1357944/dev-orchestrator/internal/control"
	"github.com/fred1357944/dev-orchestrator/internal/logger"
	"github.com/fred1357944/dev-orchestrator/internal/portalloc"
	"github.com/fred1357944/dev-orchestrator/internal/project"
	"github.com/fred1357944/dev-orchestrator/internal/registry"
	"github.com/fred1357944/dev-orchestrator/internal/supervisor"
)

// AppContext wires the long-lived collaborators every command needs. It is
// built once in the root command's PersistentPreRunE, after flags, the
// environment, and the optional config file have been merged.
type AppContext struct {
	Logger     *logger.Logger
	Store      *registry.Store
	Allocator  *portalloc.Allocator
	Directory  *project.Directory
	Supervisor supervisor.Supervisor
	Controller *control.Controller
}

func (a *AppContext) init(flags *rootFlags) error {
	v := viper.New()
	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("log_level", "info")

	v.SetConfigName(".devorch")
	v.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}
	v.SetEnvPrefix("DEVORCH")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Command-line flags win over config file and environment.
	if flags.dataDir != "" {
		v.Set("data_dir", flags.dataDir)
	}
	if flags.logLevel != "" {
		v.Set("log_level", flags.logLevel)
	}

	level := v.GetString("log_level")
	if flags.verbose {
		level = "debug"
	}

	log, err := logger.New(logger.Options{Level: level, Pretty: true})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	store, err := registry.NewStore(v.GetString("data_dir"))
	if err != nil {
		return err
	}

	alloc := portalloc.NewAllocator(store)
	dir := project.NewDirectory(store, alloc, log)
	sup := supervisor.NewPM2(log)

	a.Logger = log
	a.Store = store
	a.Allocator = alloc
	a.Directory = dir
	a.Supervisor = sup
	a.Controller = control.NewController(dir, sup, log)
	return nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".devorch"
	}
	return filepath.Join(home, ".devorch")
}
