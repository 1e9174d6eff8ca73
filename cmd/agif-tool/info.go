package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muurk/agif/internal/channel"
	"github.com/muurk/agif/internal/config"
	"github.com/muurk/agif/internal/partition"
	"github.com/muurk/agif/internal/ui"
)

var configForce bool

var layoutsCmd = &cobra.Command{
	Use:   "layouts",
	Short: "List the known partition layouts",
	Long: `List the built-in partition layouts, plus any loaded with --layouts or
the layouts_file config setting.`,
	RunE: runLayouts,
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports on this machine",
	RunE:  runPorts,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the agif-tool configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE:  runConfigShow,
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing configuration file without asking")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	rootCmd.AddCommand(layoutsCmd)
	rootCmd.AddCommand(portsCmd)
	rootCmd.AddCommand(configCmd)
}

func runLayouts(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	catalog, err := loadCatalog(effective.LayoutsFile)
	if err != nil {
		return reportFailure("Cannot load layouts", err)
	}

	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), catalog.List())
	}

	content := renderLayouts(catalog)
	if ui.IsTerminal() {
		return ui.RenderOnce(content)
	}
	fmt.Fprint(cmd.OutOrStdout(), content)
	return nil
}

// renderLayouts formats every layout as a table of entries, flash dump
// layouts first.
func renderLayouts(catalog *partition.Catalog) string {
	var b strings.Builder
	for _, kind := range []partition.Kind{partition.KindROM, partition.KindUpdate} {
		for _, l := range catalog.ByKind(kind) {
			fmt.Fprintf(&b, "%s (%s)", ui.SuccessTitleStyle.Render(l.Name), l.Kind)
			if l.Description != "" {
				fmt.Fprintf(&b, " - %s", l.Description)
			}
			b.WriteString("\n")
			for _, e := range l.Entries {
				fmt.Fprintf(&b, "  %-24s offset 0x%08x  size %10d  end 0x%08x\n", e.Name, e.Offset, e.Size, e.End())
			}
			fmt.Fprintf(&b, "  span 0x%08x (%d bytes)\n", l.Span(), l.Span())
			if kind == partition.KindUpdate {
				fmt.Fprintf(&b, "  header length %d bytes\n", l.HeaderLength())
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func runPorts(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	ports, err := channel.ListPorts()
	if err != nil {
		return reportFailure("Cannot list serial ports", err)
	}

	if jsonOutput {
		if ports == nil {
			ports = []string{}
		}
		return writeJSON(cmd.OutOrStdout(), ports)
	}

	if len(ports) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No serial ports found")
		return nil
	}
	for _, p := range ports {
		marker := " "
		if p == effective.Port {
			marker = "*"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, p)
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	path, err := config.GetConfigPath()
	if err != nil {
		return reportFailure("Cannot write configuration", err)
	}

	force := configForce
	if _, statErr := os.Stat(path); statErr == nil && !force {
		if jsonOutput || !ui.IsTerminal() {
			return reportFailure("Cannot write configuration", fmt.Errorf("config file already exists: %s (use --force to overwrite)", path))
		}
		if !ui.ConfirmOverwrite(os.Stdin, os.Stdout, path) {
			return nil
		}
		force = true
	}

	written, err := config.CreateDefaultConfig(force)
	if err != nil {
		return reportFailure("Cannot write configuration", err)
	}

	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), map[string]any{"ok": true, "path": written})
	}
	ui.PrintSuccess("Configuration written", map[string]string{"Path": written})
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	path, err := config.GetConfigPath()
	if err != nil {
		return reportFailure("Cannot read configuration", err)
	}

	cfg := config.NewConfig()
	cfg.Serial.Port = effective.Port
	cfg.Serial.BaudRate = effective.BaudRate
	cfg.Output.Dir = effective.Dir
	cfg.LayoutsFile = effective.LayoutsFile

	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), map[string]any{
			"path":         path,
			"port":         cfg.Serial.Port,
			"baud_rate":    cfg.Serial.BaudRate,
			"dir":          cfg.Output.Dir,
			"layouts_file": cfg.LayoutsFile,
		})
	}

	data, err := cfg.Marshal()
	if err != nil {
		return reportFailure("Cannot read configuration", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", path, data)
	return nil
}
