package capture

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/agif/internal/console"
	"github.com/muurk/agif/internal/hexdump"
)

// Monitor protocol constants.
const (
	// Prompt is printed by the monitor when it is ready for a command.
	Prompt = "FUSIV-DIALFACE # "
	// HelpCommand elicits the banner used to resynchronise with the prompt.
	HelpCommand = "h"
	// DumpCommand displays memory byte-wise.
	DumpCommand = "md.b"
)

// Request describes the memory region to capture.
type Request struct {
	StartAddress uint32
	Length       uint32
}

// LineCount is the number of dump lines the monitor prints for the request.
func (r Request) LineCount() int {
	return hexdump.LineCount(r.Length)
}

// PaddedLength is the number of bytes those lines carry.
func (r Request) PaddedLength() int64 {
	return int64(r.LineCount()) * hexdump.BytesPerLine
}

// Command returns the md.b command line, without the trailing newline.
func (r Request) Command() string {
	return fmt.Sprintf("%s %x %x", DumpCommand, r.StartAddress, r.Length)
}

// Result summarises a completed capture.
type Result struct {
	Request      Request
	LinesRead    int
	BytesWritten int64
	Echo         string
	Duration     time.Duration
}

// Driver runs capture sessions over one console. A Driver owns its channel
// for the duration of a Capture call and is not safe for concurrent use.
type Driver struct {
	console *console.Synchronizer
	config  Config
	state   State
	logger  *zap.Logger
}

// NewDriver creates a driver talking over ch.
func NewDriver(ch console.ByteChannel, opts ...Option) *Driver {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	return &Driver{
		console: console.New(ch, console.WithLogger(config.Logger)),
		config:  config,
		state:   StateAwaitingPrompt,
		logger:  config.Logger,
	}
}

// ParseAddress parses a hexadecimal start address. A leading 0x is accepted.
func ParseAddress(s string) (uint32, error) {
	trimmed := strings.TrimSpace(s)
	digits := strings.TrimPrefix(strings.TrimPrefix(trimmed, "0x"), "0X")
	if digits == "" {
		return 0, &AddressFormatError{Input: s, Err: fmt.Errorf("no digits")}
	}
	v, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return 0, &AddressFormatError{Input: s, Err: err}
	}
	return uint32(v), nil
}

// Capture runs one session and streams the decoded bytes to sink. Bytes
// already written are left in place on failure. ctx is only consulted
// between protocol steps; an individual read blocks until the device answers
// or the channel fails.
func (d *Driver) Capture(ctx context.Context, req Request, sink io.Writer) (*Result, error) {
	started := time.Now()
	d.state = StateAwaitingPrompt

	out := sink
	var trimmed *limitWriter
	if d.config.Trim {
		trimmed = &limitWriter{w: sink, remaining: int64(req.Length)}
		out = trimmed
	}
	result := &Result{Request: req}

	d.logger.Info("Starting capture",
		zap.String("start", fmt.Sprintf("0x%08x", req.StartAddress)),
		zap.Uint32("length", req.Length),
		zap.Int("lines", req.LineCount()),
	)

	for d.state != StateDone {
		if err := ctx.Err(); err != nil {
			return result, d.fail(err)
		}

		var next State
		var err error
		switch d.state {
		case StateAwaitingPrompt:
			next, err = d.awaitPrompt()
		case StateCommandSent:
			next, err = d.sendCommand(req)
		case StateAwaitingEcho:
			next, err = d.awaitEcho(result)
		case StateReadingLines:
			next, err = d.readLines(ctx, req, out, result)
		default:
			err = fmt.Errorf("unexpected state %s", d.state)
		}
		if trimmed != nil {
			result.BytesWritten = trimmed.forwarded
		}
		if err != nil {
			return result, d.fail(err)
		}
		d.transition(next)
	}

	result.Duration = time.Since(started)
	d.logger.Info("Capture complete",
		zap.Int("lines", result.LinesRead),
		zap.Int64("bytes_decoded", result.BytesWritten),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

func (d *Driver) awaitPrompt() (State, error) {
	if err := d.console.SendLine([]byte(HelpCommand)); err != nil {
		return StateFailed, err
	}
	banner, err := d.console.ReadUntil(d.config.Prompt)
	if err != nil {
		return StateFailed, err
	}
	d.logger.Debug("Monitor banner", zap.Int("length", len(banner)), zap.ByteString("banner", banner))
	return StateCommandSent, nil
}

func (d *Driver) sendCommand(req Request) (State, error) {
	if err := d.console.SendLine([]byte(req.Command())); err != nil {
		return StateFailed, err
	}
	return StateAwaitingEcho, nil
}

func (d *Driver) awaitEcho(result *Result) (State, error) {
	echo, err := d.console.ReadLine()
	if err != nil {
		return StateFailed, err
	}
	result.Echo = strings.TrimRight(string(echo), " \t\r\n")
	d.logger.Debug("Command echo", zap.String("echo", result.Echo))
	return StateReadingLines, nil
}

func (d *Driver) readLines(ctx context.Context, req Request, out io.Writer, result *Result) (State, error) {
	total := req.LineCount()
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return StateFailed, err
		}

		line, err := d.console.ReadLine()
		if err != nil {
			return StateFailed, fmt.Errorf("line %d: %w", i, err)
		}

		data, err := hexdump.DecodeLine(line, i)
		if err != nil {
			return StateFailed, err
		}

		n, err := out.Write(data)
		result.BytesWritten += int64(n)
		if err != nil {
			return StateFailed, fmt.Errorf("failed to write line %d to output: %w", i, err)
		}
		result.LinesRead++

		if d.config.OnLine != nil {
			d.config.OnLine(i+1, total)
		}
	}
	return StateDone, nil
}

func (d *Driver) transition(to State) {
	from := d.state
	d.state = to
	d.logger.Debug("Capture state", zap.Stringer("from", from), zap.Stringer("to", to))
	if d.config.OnState != nil {
		d.config.OnState(from, to)
	}
}

func (d *Driver) fail(err error) error {
	failedIn := d.state
	d.transition(StateFailed)
	d.logger.Error("Capture failed", zap.Stringer("state", failedIn), zap.Error(err))
	return &StateError{State: failedIn, Err: err}
}

// limitWriter forwards at most remaining bytes and silently drops the rest,
// reporting the full length as written.
type limitWriter struct {
	w         io.Writer
	remaining int64
	forwarded int64
}

func (l *limitWriter) Write(p []byte) (int, error) {
	if l.remaining <= 0 {
		return len(p), nil
	}
	chunk := p
	if int64(len(chunk)) > l.remaining {
		chunk = chunk[:l.remaining]
	}
	n, err := l.w.Write(chunk)
	l.remaining -= int64(n)
	l.forwarded += int64(n)
	if err != nil {
		return n, err
	}
	return len(p), nil
}
