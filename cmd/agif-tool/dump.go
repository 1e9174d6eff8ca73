package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/agif/internal/capture"
	"github.com/muurk/agif/internal/channel"
	"github.com/muurk/agif/internal/hexdump"
	"github.com/muurk/agif/internal/logging"
	"github.com/muurk/agif/internal/ui"
)

// dump flags
var (
	dumpStart  string
	dumpSize   string
	dumpFile   string
	dumpFormat string
	dumpTrim   bool
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Capture device memory over the serial console",
	Long: `Capture a memory region from the router's bootloader monitor.

This command will:
  1. Open the serial port (8N1)
  2. Send "h" and wait for the "FUSIV-DIALFACE # " prompt
  3. Send "md.b <start> <size>" and discard the echoed command
  4. Decode one hex-dump line per 16 bytes into the output file

Power-cycle the router after starting the command so the monitor prompt
appears. The output always holds whole 16-byte lines (the last line is
padded by the device) unless --trim is given.`,
	Example: `  # Capture the 16 MiB flash window
  agif-tool dump --start bfc00000 --size 16777216 --file dump.bin

  # Capture 64 KiB of RAM as Intel HEX
  agif-tool dump --start 0x80000000 --size 0x10000 --file ram.hex --format ihex`,
	RunE: runDump,
}

func init() {
	dumpCmd.Flags().StringVar(&dumpStart, "start", "", "Start address in hexadecimal (required)")
	dumpCmd.Flags().StringVar(&dumpSize, "size", "", "Number of bytes to read, decimal or 0x-prefixed hex (required)")
	dumpCmd.Flags().StringVar(&dumpFile, "file", "dump.bin", "Output file")
	dumpCmd.Flags().StringVar(&dumpFormat, "format", string(capture.FormatBinary), "Output format: bin or ihex")
	dumpCmd.Flags().BoolVar(&dumpTrim, "trim", false, "Write exactly --size bytes, dropping the padding of the last line")
	_ = dumpCmd.MarkFlagRequired("start")
	_ = dumpCmd.MarkFlagRequired("size")

	rootCmd.AddCommand(dumpCmd)
}

// parseSize accepts a decimal byte count, or hexadecimal after an explicit
// 0x prefix. Leading zeros stay decimal.
func parseSize(s string) (uint32, error) {
	digits, base := strings.TrimSpace(s), 10
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		digits, base = digits[2:], 16
	}
	v, err := strconv.ParseUint(digits, base, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if v == 0 {
		return 0, fmt.Errorf("invalid size %q: must be at least 1 byte", s)
	}
	return uint32(v), nil
}

// dumpReport is the --json shape of a successful capture.
type dumpReport struct {
	OK           bool   `json:"ok"`
	Port         string `json:"port"`
	StartAddress string `json:"start_address"`
	Length       uint32 `json:"length"`
	Lines        int    `json:"lines"`
	BytesWritten int64  `json:"bytes_written"`
	Output       string `json:"output"`
	Format       string `json:"format"`
	DurationMS   int64  `json:"duration_ms"`
}

func runDump(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	start, err := capture.ParseAddress(dumpStart)
	if err != nil {
		return reportFailure("Invalid arguments", err)
	}
	length, err := parseSize(dumpSize)
	if err != nil {
		return reportFailure("Invalid arguments", err)
	}
	format, err := capture.ParseFormat(dumpFormat)
	if err != nil {
		return reportFailure("Invalid arguments", err)
	}
	req := capture.Request{StartAddress: start, Length: length}

	if !jsonOutput {
		ui.PrintCommandHeader(
			"Memory Dump",
			"agif-tool dump",
			map[string]string{
				"Port":   fmt.Sprintf("%s @ %d baud", effective.Port, effective.BaudRate),
				"Region": fmt.Sprintf("0x%08x - 0x%08x", start, uint64(start)+uint64(length)),
				"Size":   fmt.Sprintf("%d bytes (%d lines)", length, req.LineCount()),
				"Output": fmt.Sprintf("%s (%s)", dumpFile, format),
			},
		)
	}

	port, err := channel.Open(channel.Config{Port: effective.Port, BaudRate: effective.BaudRate})
	if err != nil {
		return reportFailure("Cannot open serial port", err)
	}
	defer port.Close()
	logging.LogSerialOpen(port.Name(), effective.BaudRate)

	out, err := os.Create(dumpFile)
	if err != nil {
		return reportFailure("Memory dump failed", fmt.Errorf("failed to create output file: %w", err))
	}

	var sink io.Writer = out
	var ihex *capture.IntelHexSink
	if format == capture.FormatIntelHex {
		ihex = capture.NewIntelHexSink(out, start)
		sink = ihex
	}

	var result *capture.Result
	op := func(ctx context.Context, r ui.CaptureReporter) error {
		driver := capture.NewDriver(port,
			capture.WithLogger(logging.GetLogger()),
			capture.WithTrim(dumpTrim),
			capture.WithLineObserver(r.Line),
			capture.WithStateObserver(func(from, to capture.State) {
				logging.LogCaptureState(from.String(), to.String())
				r.State(to.Description())
			}),
		)

		// A blocked read only returns once the port is closed.
		stop := context.AfterFunc(ctx, func() { _ = port.Close() })
		defer stop()

		var err error
		result, err = driver.Capture(ctx, req, sink)
		if ctxErr := ctx.Err(); ctxErr != nil && err != nil {
			err = errors.Join(ctxErr, err)
		}
		return err
	}

	ctx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stopSignals()

	label := fmt.Sprintf("Reading 0x%08x (power-cycle the router if nothing happens)", start)
	if jsonOutput {
		err = ui.RunCapturePlain(ctx, io.Discard, label, op)
	} else {
		err = ui.RunCapture(ctx, label, req.LineCount(), op)
	}

	if ihex != nil {
		if closeErr := ihex.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	if closeErr := out.Close(); closeErr != nil && err == nil {
		err = fmt.Errorf("failed to close output file: %w", closeErr)
	}

	if err != nil {
		var decodeErr *hexdump.DecodeError
		if errors.As(err, &decodeErr) {
			logging.LogRawBytes("Undecodable dump line", []byte(decodeErr.Text))
		}
		if verboseFlag && !jsonOutput && result != nil && result.Echo != "" {
			ui.PrintTranscript(result.Echo)
		}
		return reportFailure("Memory dump failed", err)
	}

	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), dumpReport{
			OK:           true,
			Port:         port.Name(),
			StartAddress: fmt.Sprintf("0x%08x", start),
			Length:       length,
			Lines:        result.LinesRead,
			BytesWritten: result.BytesWritten,
			Output:       dumpFile,
			Format:       string(format),
			DurationMS:   result.Duration.Milliseconds(),
		})
	}

	details := map[string]string{
		"Output":   dumpFile,
		"Lines":    strconv.Itoa(result.LinesRead),
		"Bytes":    fmt.Sprintf("%d decoded", result.BytesWritten),
		"Duration": result.Duration.Round(time.Millisecond).String(),
	}
	if ihex != nil {
		details["Records"] = fmt.Sprintf("Intel HEX, %d bytes @ 0x%08x", ihex.Len(), start)
	}
	ui.PrintSuccess("Memory dump complete", details)
	if verboseFlag && result.Echo != "" {
		ui.PrintTranscript(result.Echo)
	}
	return nil
}
