package partition

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/edsrzf/mmap-go"
	"go.uber.org/zap"
)

// Written records one part produced by Unpack or consumed by Pack.
type Written struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Offset int64  `json:"offset"`
	Size   int64  `json:"size"`
}

// EntryObserver is called after each part has been processed.
type EntryObserver func(w Written)

// Codec unpacks and packs images according to a Layout.
type Codec struct {
	logger  *zap.Logger
	onEntry EntryObserver
}

// CodecOption configures a Codec.
type CodecOption func(*Codec)

// WithEntryObserver installs a per-part progress callback.
func WithEntryObserver(fn EntryObserver) CodecOption {
	return func(c *Codec) {
		c.onEntry = fn
	}
}

// NewCodec creates a codec. A nil logger disables logging.
func NewCodec(logger *zap.Logger, opts ...CodecOption) *Codec {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Codec{logger: logger}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Unpack writes each layout entry's byte range from src into outDir/<name>.
// srcSize is the total length of src. outDir is created if missing and
// existing part files are overwritten. On error, parts written so far are
// returned and left on disk.
func (c *Codec) Unpack(src io.ReaderAt, srcSize int64, layout *Layout, outDir string) ([]Written, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, &FilesystemError{Op: "mkdir", Path: outDir, Err: err}
	}

	written := make([]Written, 0, len(layout.Entries))
	for _, entry := range layout.Entries {
		w, err := c.unpackEntry(src, srcSize, entry, outDir)
		if err != nil {
			c.logger.Error("Unpack failed",
				zap.String("layout", layout.Name),
				zap.String("entry", entry.Name),
				zap.Error(err),
			)
			return written, err
		}
		written = append(written, w)

		c.logger.Info("Wrote part",
			zap.String("entry", w.Name),
			zap.String("offset", fmt.Sprintf("0x%x", w.Offset)),
			zap.String("size", fmt.Sprintf("0x%x", w.Size)),
		)
		if c.onEntry != nil {
			c.onEntry(w)
		}
	}
	return written, nil
}

// unpackEntry copies one range; the destination file is closed before it
// returns.
func (c *Codec) unpackEntry(src io.ReaderAt, srcSize int64, entry Entry, outDir string) (Written, error) {
	if entry.Offset < 0 || entry.Size <= 0 || entry.End() > srcSize {
		return Written{}, &SourceTruncatedError{
			Entry:     entry.Name,
			Offset:    entry.Offset,
			Size:      entry.Size,
			Available: srcSize,
		}
	}

	path := filepath.Join(outDir, entry.Name)
	f, err := os.Create(path)
	if err != nil {
		return Written{}, &FilesystemError{Op: "create", Path: path, Err: err}
	}

	n, copyErr := io.Copy(f, io.NewSectionReader(src, entry.Offset, entry.Size))
	closeErr := f.Close()

	switch {
	case copyErr != nil:
		return Written{}, &FilesystemError{Op: "write", Path: path, Err: copyErr}
	case n != entry.Size:
		return Written{}, &SourceTruncatedError{Entry: entry.Name, Offset: entry.Offset, Size: entry.Size, Available: entry.Offset + n}
	case closeErr != nil:
		return Written{}, &FilesystemError{Op: "close", Path: path, Err: closeErr}
	}

	return Written{Name: entry.Name, Path: path, Offset: entry.Offset, Size: n}, nil
}

// UnpackFile memory-maps the image at srcPath read-only and unpacks it.
func (c *Codec) UnpackFile(srcPath string, layout *Layout, outDir string) ([]Written, error) {
	f, err := os.Open(srcPath)
	if err != nil {
		return nil, &FilesystemError{Op: "open", Path: srcPath, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, &FilesystemError{Op: "stat", Path: srcPath, Err: err}
	}

	// Zero-length files cannot be mapped; every entry is truncated anyway.
	if info.Size() == 0 {
		return c.Unpack(bytes.NewReader(nil), 0, layout, outDir)
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, &FilesystemError{Op: "mmap", Path: srcPath, Err: err}
	}
	defer m.Unmap()

	c.logger.Debug("Mapped source image",
		zap.String("path", srcPath),
		zap.Int("size", len(m)),
		zap.String("layout", layout.Name),
	)
	return c.Unpack(bytes.NewReader(m), int64(len(m)), layout, outDir)
}

// PackOptions controls Pack.
type PackOptions struct {
	// SkipSizeCheck concatenates parts even when their lengths differ from
	// the declared entry sizes.
	SkipSizeCheck bool
}

// Image is an assembled update image with its header patched.
type Image struct {
	Data        []byte
	PayloadSize uint32
	Checksum    uint64
	Parts       []Written
}

// StoredChecksum is the value written into the header (low 32 bits).
func (img *Image) StoredChecksum() uint32 {
	return uint32(img.Checksum)
}

// Pack reads inDir/<name> for every entry in layout order, concatenates the
// bytes verbatim and patches the update header. The header length is the
// first entry's size.
func (c *Codec) Pack(inDir string, layout *Layout, opts PackOptions) (*Image, error) {
	if layout.Kind != KindUpdate {
		return nil, &LayoutError{Layout: layout.Name, Reason: fmt.Sprintf("only %q layouts can be packed, this one is %q", KindUpdate, layout.Kind)}
	}

	var data []byte
	parts := make([]Written, 0, len(layout.Entries))
	for _, entry := range layout.Entries {
		path := filepath.Join(inDir, entry.Name)
		part, err := os.ReadFile(path)
		if err != nil {
			return nil, &FilesystemError{Op: "read", Path: path, Err: err}
		}

		if int64(len(part)) != entry.Size {
			if !opts.SkipSizeCheck {
				return nil, &SizeMismatchError{Entry: entry.Name, Path: path, Expected: entry.Size, Actual: int64(len(part))}
			}
			c.logger.Warn("Part size differs from layout",
				zap.String("entry", entry.Name),
				zap.Int64("expected", entry.Size),
				zap.Int("actual", len(part)),
			)
		}

		w := Written{Name: entry.Name, Path: path, Offset: int64(len(data)), Size: int64(len(part))}
		data = append(data, part...)
		parts = append(parts, w)
		if c.onEntry != nil {
			c.onEntry(w)
		}
	}

	payload, sum, err := PatchHeader(data, layout.HeaderLength())
	if err != nil {
		return nil, err
	}

	c.logger.Info("Packed image",
		zap.String("layout", layout.Name),
		zap.Int("length", len(data)),
		zap.String("size", fmt.Sprintf("0x%x", payload)),
		zap.String("checksum", fmt.Sprintf("0x%x", sum)),
	)

	return &Image{
		Data:        data,
		PayloadSize: payload,
		Checksum:    sum,
		Parts:       parts,
	}, nil
}

// WriteFile persists the image to path. The data goes to a temporary file
// first and is renamed into place.
func (img *Image) WriteFile(path string) error {
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, img.Data, 0644); err != nil {
		return &FilesystemError{Op: "write", Path: tmpPath, Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return &FilesystemError{Op: "rename", Path: path, Err: err}
	}
	return nil
}

// VerifyFile reads an update image and checks its header fields against
// layout's header length.
func VerifyFile(path string, layout *Layout) (*Verification, error) {
	if layout.Kind != KindUpdate {
		return nil, &LayoutError{Layout: layout.Name, Reason: "only update layouts carry a checksum header"}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &FilesystemError{Op: "read", Path: path, Err: err}
	}
	return VerifyHeader(data, layout.HeaderLength())
}
