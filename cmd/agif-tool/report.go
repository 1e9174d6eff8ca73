package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"

	"github.com/muurk/agif/internal/capture"
	"github.com/muurk/agif/internal/channel"
	"github.com/muurk/agif/internal/hexdump"
	"github.com/muurk/agif/internal/partition"
	"github.com/muurk/agif/internal/ui"
)

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// errorReport is the --json shape of a failure.
type errorReport struct {
	OK    bool   `json:"ok"`
	Kind  string `json:"kind"`
	Error string `json:"error"`
	Line  *int   `json:"line,omitempty"`
	Entry string `json:"entry,omitempty"`
	Path  string `json:"path,omitempty"`
}

// reportFailure renders err either as a failure box or as a JSON report and
// returns an error that main will not print again.
func reportFailure(title string, err error) error {
	if jsonOutput {
		_ = writeJSON(os.Stdout, newErrorReport(err))
	} else {
		ui.PrintFailure(title, err, troubleshootingFor(err))
	}
	return errors.Join(errReported, err)
}

// reportRendered marks err as already shown to the user.
func reportRendered(err error) error {
	return errors.Join(errReported, err)
}

func newErrorReport(err error) errorReport {
	r := errorReport{Kind: errorKind(err), Error: err.Error()}

	var decodeErr *hexdump.DecodeError
	if errors.As(err, &decodeErr) {
		line := decodeErr.Line
		r.Line = &line
	}
	var truncErr *partition.SourceTruncatedError
	if errors.As(err, &truncErr) {
		r.Entry = truncErr.Entry
	}
	var sizeErr *partition.SizeMismatchError
	if errors.As(err, &sizeErr) {
		r.Entry = sizeErr.Entry
		r.Path = sizeErr.Path
	}
	var fsErr *partition.FilesystemError
	if errors.As(err, &fsErr) {
		r.Path = fsErr.Path
	}
	return r
}

// errorKind names the failure category for machine consumers.
func errorKind(err error) string {
	var (
		unavailable *channel.ChannelUnavailableError
		addrErr     *capture.AddressFormatError
		decodeErr   *hexdump.DecodeError
		truncErr    *partition.SourceTruncatedError
		fsErr       *partition.FilesystemError
		sizeErr     *partition.SizeMismatchError
		headerErr   *partition.HeaderError
		layoutErr   *partition.LayoutError
		notFound    *partition.LayoutNotFoundError
	)
	switch {
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.As(err, &unavailable):
		return "channel_unavailable"
	case errors.As(err, &addrErr):
		return "address_format"
	case errors.As(err, &decodeErr):
		return "protocol_decode"
	case errors.As(err, &truncErr):
		return "source_truncated"
	case errors.As(err, &sizeErr):
		return "size_mismatch"
	case errors.As(err, &fsErr):
		return "filesystem"
	case errors.As(err, &headerErr):
		return "header"
	case errors.As(err, &layoutErr), errors.As(err, &notFound):
		return "layout"
	default:
		return "error"
	}
}

// troubleshootingFor returns tips matching the failure kind.
func troubleshootingFor(err error) []string {
	var decodeErr *hexdump.DecodeError
	errors.As(err, &decodeErr)

	switch errorKind(err) {
	case "cancelled":
		return []string{
			"Capture was interrupted; bytes already written were kept",
		}
	case "channel_unavailable":
		return []string{
			"List available ports: agif-tool ports",
			"Close other programs using the port (screen, minicom, picocom)",
			"On Linux, add your user to the dialout group",
		}
	case "address_format":
		return []string{
			"Give the start address in hexadecimal, e.g. bfc00000 or 0xbfc00000",
		}
	case "protocol_decode":
		return []string{
			fmt.Sprintf("Dump line %d did not contain a valid byte run", decodeErr.Line),
			"Check the ground wire and the baud rate (--baudrate)",
			"Output written before the bad line was kept; re-run the dump",
			"Run with --verbose to see the console transcript",
		}
	case "source_truncated":
		return []string{
			"The source image is shorter than the layout expects",
			"Check the layout matches the image: agif-tool layouts",
			"A short capture may need to be repeated with the full --size",
		}
	case "size_mismatch":
		return []string{
			"Edited parts must keep the size recorded in the layout",
			"Pad or shrink the part, or pass --no-size-check to pack anyway",
		}
	case "filesystem":
		return []string{
			"Check that the path exists and is writable",
			"Unpack first so that every part file is present in --dir",
		}
	case "header":
		return []string{
			"The image is too small to carry an update header",
		}
	case "layout":
		return []string{
			"List known layouts: agif-tool layouts",
			"Describe a new firmware revision in a YAML file and pass --layouts",
		}
	default:
		return nil
	}
}
