package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/agif/internal/logging"
	"github.com/muurk/agif/internal/partition"
	"github.com/muurk/agif/internal/ui"
)

// unpack flags
var (
	romSource    string
	romLayout    string
	updateSource string
	updateLayout string
)

var unpackROMCmd = &cobra.Command{
	Use:   "unpack-rom",
	Short: "Split a flash dump into named partitions",
	Long: `Split a full flash dump (as captured by 'agif-tool dump') into one file
per partition table entry, written to --dir.

Entries may overlap; each is extracted independently. Existing files in the
output directory are overwritten. A dump shorter than the table requires is
an error: nothing is zero-padded.`,
	Example: `  agif-tool unpack-rom --rom dump.bin --dir extracted`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUnpack(cmd, partition.KindROM, romLayout, romSource, cmd.Flags().Changed("rom"))
	},
}

var unpackUpdateCmd = &cobra.Command{
	Use:   "unpack-update",
	Short: "Split an update image into named partitions",
	Long: `Split a vendor update image into its header, uImage header, LZMA kernel
and cramfs root filesystem, written to --dir.

Edit the parts in place, keeping their sizes, then rebuild the image with
'agif-tool pack'.`,
	Example: `  agif-tool unpack-update --update update.bin

  # A later firmware revision with a longer vendor header
  agif-tool unpack-update --update update.bin --layout update-r2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUnpack(cmd, partition.KindUpdate, updateLayout, updateSource, cmd.Flags().Changed("update"))
	},
}

func init() {
	unpackROMCmd.Flags().StringVar(&romSource, "rom", "dump.bin", "Flash dump to split")
	unpackROMCmd.Flags().StringVar(&romLayout, "layout", "rom", "Partition layout name")

	unpackUpdateCmd.Flags().StringVar(&updateSource, "update", "update.bin", "Update image to split")
	unpackUpdateCmd.Flags().StringVar(&updateLayout, "layout", "update", "Partition layout name")

	rootCmd.AddCommand(unpackROMCmd)
	rootCmd.AddCommand(unpackUpdateCmd)
}

// unpackReport is the --json shape of a successful unpack.
type unpackReport struct {
	OK     bool                `json:"ok"`
	Layout string              `json:"layout"`
	Source string              `json:"source"`
	Dir    string              `json:"dir"`
	Parts  []partition.Written `json:"parts"`
}

func runUnpack(cmd *cobra.Command, kind partition.Kind, layoutName, source string, sourceSet bool) error {
	cmd.SilenceUsage = true

	layout, err := resolveLayout(layoutName, kind)
	if err != nil {
		return reportFailure("Unpack failed", err)
	}
	if !sourceSet && layout.Source != "" {
		source = layout.Source
	}
	logging.Debug("Resolved unpack layout",
		zap.String("layout", layout.Name),
		zap.String("source", source),
		zap.String("dir", effective.Dir),
	)

	if jsonOutput {
		parts, err := partition.NewCodec(logging.GetLogger()).UnpackFile(source, layout, effective.Dir)
		if err != nil {
			return reportFailure("Unpack failed", err)
		}
		return writeJSON(cmd.OutOrStdout(), unpackReport{OK: true, Layout: layout.Name, Source: source, Dir: effective.Dir, Parts: parts})
	}

	names := make([]string, len(layout.Entries))
	for i, e := range layout.Entries {
		names[i] = e.Name
	}

	runner := ui.NewRunner(ui.RunnerConfig{
		Title:   "Unpack " + string(kind),
		Command: cmd.CommandPath(),
		Params: map[string]string{
			"Source": source,
			"Layout": fmt.Sprintf("%s (%d entries)", layout.Name, len(layout.Entries)),
			"Output": effective.Dir,
		},
		StepNames:       names,
		Troubleshooting: troubleshootingFor,
	})

	_, err = runner.Run(context.Background(), func(onStep ui.StepCallback) (map[string]string, error) {
		step := 0
		codec := partition.NewCodec(logging.GetLogger(), partition.WithEntryObserver(func(w partition.Written) {
			step++
			logging.LogPartition("written", w.Name, w.Offset, w.Size)
			onStep(step, w.Name, ui.StepComplete, ui.RangeNote(w.Offset, w.Size))
		}))

		parts, err := codec.UnpackFile(source, layout, effective.Dir)
		if err != nil {
			onStep(step+1, "", ui.StepFailed, "")
			return nil, err
		}

		var total int64
		for _, p := range parts {
			total += p.Size
		}
		return map[string]string{
			"Parts":  strconv.Itoa(len(parts)),
			"Bytes":  strconv.FormatInt(total, 10),
			"Output": effective.Dir,
		}, nil
	})
	if err != nil {
		return reportRendered(err)
	}
	return nil
}
