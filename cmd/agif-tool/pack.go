package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/agif/internal/logging"
	"github.com/muurk/agif/internal/partition"
	"github.com/muurk/agif/internal/ui"
)

// pack and verify flags
var (
	packLayout      string
	packOutput      string
	packNoSizeCheck bool
	verifyImage     string
	verifyLayout    string
)

var packCmd = &cobra.Command{
	Use:   "pack",
	Short: "Rebuild an update image from partition files",
	Long: `Concatenate the partition files in --dir, in layout order, into an update
image and patch its header:

  bytes 4-7   payload size (image length minus header length), big-endian
  bytes 8-11  sum of every image byte with these four bytes zeroed,
              low 32 bits, big-endian

Each part must keep the size recorded in the layout, otherwise every later
region would shift. Use --no-size-check to pack anyway.`,
	Example: `  agif-tool pack --output AGIF_patched.img

  # Parts unpacked with a custom layout file
  agif-tool pack --layouts my-layouts.yaml --layout update-r3`,
	RunE: runPack,
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the size and checksum header of an update image",
	Long: `Read an update image and compare its stored payload size and checksum
with the values pack would write. The image is not modified.

Exits non-zero when either field is wrong.`,
	Example: `  agif-tool verify --update AGIF_patched.img`,
	RunE:    runVerify,
}

func init() {
	packCmd.Flags().StringVar(&packLayout, "layout", "update", "Partition layout name (update kind)")
	packCmd.Flags().StringVar(&packOutput, "output", "AGIF_patched.img", "Output image")
	packCmd.Flags().BoolVar(&packNoSizeCheck, "no-size-check", false, "Pack parts whose size differs from the layout")

	verifyCmd.Flags().StringVar(&verifyImage, "update", "AGIF_patched.img", "Update image to check")
	verifyCmd.Flags().StringVar(&verifyLayout, "layout", "update", "Partition layout name (update kind)")

	rootCmd.AddCommand(packCmd)
	rootCmd.AddCommand(verifyCmd)
}

// packReport is the --json shape of a successful pack.
type packReport struct {
	OK             bool                `json:"ok"`
	Layout         string              `json:"layout"`
	Output         string              `json:"output"`
	Length         int                 `json:"length"`
	PayloadSize    uint32              `json:"payload_size"`
	Checksum       uint64              `json:"checksum"`
	StoredChecksum uint32              `json:"stored_checksum"`
	Parts          []partition.Written `json:"parts"`
}

// verifyReport is the --json shape of verify.
type verifyReport struct {
	OK         bool             `json:"ok"`
	Layout     string           `json:"layout"`
	Path       string           `json:"path"`
	SizeOK     bool             `json:"size_ok"`
	ChecksumOK bool             `json:"checksum_ok"`
	Stored     partition.Header `json:"stored"`
	Computed   partition.Header `json:"computed"`
}

func runPack(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	layout, err := resolveLayout(packLayout, partition.KindUpdate)
	if err != nil {
		return reportFailure("Pack failed", err)
	}
	output := packOutput
	if !cmd.Flags().Changed("output") && layout.Output != "" {
		output = layout.Output
	}
	opts := partition.PackOptions{SkipSizeCheck: packNoSizeCheck}
	if opts.SkipSizeCheck {
		logging.Warn("Size check disabled", zap.String("layout", layout.Name))
	}

	if jsonOutput {
		img, err := packAndWrite(partition.NewCodec(logging.GetLogger()), layout, opts, output)
		if err != nil {
			return reportFailure("Pack failed", err)
		}
		return writeJSON(cmd.OutOrStdout(), packReport{
			OK:             true,
			Layout:         layout.Name,
			Output:         output,
			Length:         len(img.Data),
			PayloadSize:    img.PayloadSize,
			Checksum:       img.Checksum,
			StoredChecksum: img.StoredChecksum(),
			Parts:          img.Parts,
		})
	}

	if _, err := os.Stat(output); err == nil {
		ui.PrintWarning("Output file exists", map[string]string{
			"File":   output,
			"Action": "Will be overwritten",
		})
		fmt.Println()
	}

	names := make([]string, 0, len(layout.Entries)+1)
	for _, e := range layout.Entries {
		names = append(names, "Read "+e.Name)
	}
	names = append(names, "Patch header and write image")
	final := len(names)

	params := map[string]string{
		"Input":  effective.Dir,
		"Layout": fmt.Sprintf("%s (header %d bytes)", layout.Name, layout.HeaderLength()),
		"Output": output,
	}
	if packNoSizeCheck {
		params["Size check"] = "disabled"
	}

	runner := ui.NewRunner(ui.RunnerConfig{
		Title:           "Pack Update",
		Command:         "agif-tool pack",
		Params:          params,
		StepNames:       names,
		Troubleshooting: troubleshootingFor,
	})

	_, err = runner.Run(context.Background(), func(onStep ui.StepCallback) (map[string]string, error) {
		step := 0
		codec := partition.NewCodec(logging.GetLogger(), partition.WithEntryObserver(func(w partition.Written) {
			step++
			logging.LogPartition("read", w.Name, w.Offset, w.Size)
			onStep(step, "", ui.StepComplete, fmt.Sprintf("%d bytes", w.Size))
		}))

		img, err := packAndWrite(codec, layout, opts, output)
		if err != nil {
			onStep(step+1, "", ui.StepFailed, "")
			return nil, err
		}
		onStep(final, "", ui.StepComplete, output)

		return map[string]string{
			"Output":   output,
			"Length":   strconv.Itoa(len(img.Data)),
			"Payload":  fmt.Sprintf("0x%08x", img.PayloadSize),
			"Checksum": fmt.Sprintf("0x%08x", img.StoredChecksum()),
		}, nil
	})
	if err != nil {
		return reportRendered(err)
	}
	return nil
}

// packAndWrite assembles the image and persists it to output.
func packAndWrite(codec *partition.Codec, layout *partition.Layout, opts partition.PackOptions, output string) (*partition.Image, error) {
	img, err := codec.Pack(effective.Dir, layout, opts)
	if err != nil {
		return nil, err
	}
	logging.LogHeaderPatch(img.PayloadSize, img.Checksum)
	if err := img.WriteFile(output); err != nil {
		return nil, err
	}
	return img, nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	layout, err := resolveLayout(verifyLayout, partition.KindUpdate)
	if err != nil {
		return reportFailure("Verify failed", err)
	}

	v, err := partition.VerifyFile(verifyImage, layout)
	if err != nil {
		return reportFailure("Verify failed", err)
	}

	if jsonOutput {
		if err := writeJSON(cmd.OutOrStdout(), verifyReport{
			OK:         v.OK(),
			Layout:     layout.Name,
			Path:       verifyImage,
			SizeOK:     v.SizeOK(),
			ChecksumOK: v.ChecksumOK(),
			Stored:     v.Stored,
			Computed:   v.Computed,
		}); err != nil {
			return err
		}
		if !v.OK() {
			return reportRendered(v.Err())
		}
		return nil
	}

	details := map[string]string{
		"Image":    verifyImage,
		"Layout":   layout.Name,
		"Size":     fieldStatus(v.Stored.PayloadSize, v.Computed.PayloadSize),
		"Checksum": fieldStatus(v.Stored.Checksum, v.Computed.Checksum),
	}
	if !v.OK() {
		ui.PrintWarning("Header does not match image", details)
		return reportRendered(v.Err())
	}
	ui.PrintSuccess("Header verified", details)
	return nil
}

func fieldStatus(stored, computed uint32) string {
	if stored == computed {
		return fmt.Sprintf("0x%08x ✓", stored)
	}
	return fmt.Sprintf("0x%08x ✗ (expected 0x%08x)", stored, computed)
}
