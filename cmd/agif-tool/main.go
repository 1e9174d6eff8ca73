// Agif-tool extracts and repacks firmware for FUSIV DIALFACE based routers.
//
// It has two halves:
//
//   - Memory capture: drives the bootloader monitor over a serial console
//     and reassembles md.b hex dumps into a binary or Intel HEX file
//   - Image surgery: splits flash dumps and update images into named parts
//     by partition table, and packs parts back into an update image with a
//     correct size and checksum header
//
// See 'agif-tool --help' for available commands.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/agif/internal/config"
	"github.com/muurk/agif/internal/logging"
	"github.com/muurk/agif/internal/version"
)

// errReported marks a failure the command already rendered.
var errReported = errors.New("failure already reported")

func main() {
	err := rootCmd.Execute()
	logging.Sync()
	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// Persistent flags
var (
	portFlag    string
	baudFlag    int
	dirFlag     string
	layoutsFlag string
	jsonOutput  bool
	verboseFlag bool
	effective   settings
)

var rootCmd = &cobra.Command{
	Use:   "agif-tool",
	Short: "AGIF router firmware extraction toolkit",
	Long: `Capture memory from an AGIF (FUSIV DIALFACE) router over its serial
console, split firmware images into partitions, and pack modified
partitions back into an installable update image.

Memory capture:
  - Connect a 3.3V USB serial adapter to the router's console header
  - Run 'agif-tool dump', then power-cycle the router
  - The tool waits for the "FUSIV-DIALFACE # " prompt and reads md.b output

Image surgery:
  - 'unpack-rom' splits a 16 MiB flash dump
  - 'unpack-update' splits a vendor update image
  - 'pack' reassembles update parts and patches the size/checksum header

Defaults come from the config file (see 'agif-tool config show') and can be
overridden by flags. Set AGIF_LOG_LEVEL=debug for detailed logs.`,
	Version: version.Version,
	Example: `  # Capture the whole flash (16 MiB mapped at 0xbfc00000)
  agif-tool dump --start bfc00000 --size 16777216 --file dump.bin

  # Split the capture into named partitions
  agif-tool unpack-rom --rom dump.bin

  # Split an update image, edit parts in ./extracted, then repack
  agif-tool unpack-update --update update.bin
  agif-tool pack --output AGIF_patched.img`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := ""
		if verboseFlag {
			level = "debug"
		}
		if err := logging.Initialize(level); err != nil {
			return err
		}

		cfg, err := config.Load()
		if err != nil {
			// A broken file must not block rewriting it.
			if cmd.Parent() != configCmd {
				return err
			}
			cfg = config.NewConfig()
		}
		effective = resolveSettings(cfg, cmd.Flags())
		return nil
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&portFlag, "port", config.DefaultPort, "Serial port the router console is attached to")
	rootCmd.PersistentFlags().IntVar(&baudFlag, "baudrate", config.DefaultBaudRate, "Serial baud rate")
	rootCmd.PersistentFlags().StringVar(&dirFlag, "dir", config.DefaultOutputDir, "Directory parts are unpacked into and packed from")
	rootCmd.PersistentFlags().StringVar(&layoutsFlag, "layouts", "", "Extra YAML layout catalog merged over the built-in layouts")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print a machine-readable JSON report instead of styled output")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging and show console transcripts")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		if jsonOutput {
			_ = writeJSON(cmd.OutOrStdout(), version.Get())
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "agif-tool %s\n", version.Full())
	},
}
