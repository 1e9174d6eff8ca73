package main

import (
	"github.com/spf13/pflag"

	"github.com/muurk/agif/internal/config"
	"github.com/muurk/agif/internal/partition"
)

// settings is the effective configuration after merging the config file
// with explicitly set flags.
type settings struct {
	Port        string
	BaudRate    int
	Dir         string
	LayoutsFile string
}

// resolveSettings applies config file values unless the matching flag was
// set on the command line.
func resolveSettings(cfg *config.Config, flags *pflag.FlagSet) settings {
	s := settings{
		Port:        cfg.Serial.Port,
		BaudRate:    cfg.Serial.BaudRate,
		Dir:         cfg.Output.Dir,
		LayoutsFile: cfg.LayoutsFile,
	}
	if flags.Changed("port") {
		s.Port = portFlag
	}
	if flags.Changed("baudrate") {
		s.BaudRate = baudFlag
	}
	if flags.Changed("dir") {
		s.Dir = dirFlag
	}
	if flags.Changed("layouts") {
		s.LayoutsFile = layoutsFlag
	}
	return s
}

// loadCatalog returns the built-in layouts, merged with the user's layout
// file when one is configured.
func loadCatalog(layoutsFile string) (*partition.Catalog, error) {
	builtin, err := partition.LoadLayouts()
	if err != nil {
		return nil, err
	}
	if layoutsFile == "" {
		return builtin, nil
	}
	extra, err := partition.LoadLayoutsFile(layoutsFile)
	if err != nil {
		return nil, err
	}
	return builtin.Merge(extra), nil
}

// resolveLayout loads the catalog and looks up name, checking its kind.
func resolveLayout(name string, kind partition.Kind) (*partition.Layout, error) {
	catalog, err := loadCatalog(effective.LayoutsFile)
	if err != nil {
		return nil, err
	}
	layout, err := catalog.Get(name)
	if err != nil {
		return nil, err
	}
	if layout.Kind != kind {
		return nil, &partition.LayoutError{Layout: layout.Name, Reason: "layout is for " + string(layout.Kind) + " images, expected " + string(kind)}
	}
	return layout, nil
}
