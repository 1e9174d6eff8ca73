package partition

import (
	"fmt"
	"strings"
)

// SourceTruncatedError reports an entry whose range extends past the end of
// the source image.
type SourceTruncatedError struct {
	// Entry is the partition name
	Entry string
	// Offset is the entry's start offset
	Offset int64
	// Size is the entry's declared size
	Size int64
	// Available is the source image length
	Available int64
}

func (e *SourceTruncatedError) Error() string {
	return fmt.Sprintf("source image truncated for %q: needs bytes 0x%x-0x%x (%d bytes) but image is only %d bytes",
		e.Entry, e.Offset, e.Offset+e.Size, e.Size, e.Available)
}

// FilesystemError reports a file or directory operation that failed.
type FilesystemError struct {
	// Op is the operation (create, write, read, mkdir, ...)
	Op string
	// Path is the offending path
	Path string
	// Underlying error
	Err error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error {
	return e.Err
}

// SizeMismatchError reports a part file whose length differs from the size
// its layout entry declares.
type SizeMismatchError struct {
	// Entry is the partition name
	Entry string
	// Path is the part file that was read
	Path string
	// Expected is the declared entry size
	Expected int64
	// Actual is the part file length
	Actual int64
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("part %q has %d bytes, layout declares %d (%+d); every later region would shift\n"+
		"Hint: Use --no-size-check to pack anyway",
		e.Entry, e.Actual, e.Expected, e.Actual-e.Expected)
}

// HeaderError reports an image too small to carry the update header, or a
// header whose fields do not match the image.
type HeaderError struct {
	// Field is the header field involved (size, checksum, length)
	Field string
	// Reason describes the problem
	Reason string
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("update header %s: %s", e.Field, e.Reason)
}

// LayoutError reports an invalid layout definition.
type LayoutError struct {
	// Layout is the layout name
	Layout string
	// Entry is the offending entry name, if any
	Entry string
	// Reason describes the problem
	Reason string
}

func (e *LayoutError) Error() string {
	if e.Entry != "" {
		return fmt.Sprintf("invalid layout %q, entry %q: %s", e.Layout, e.Entry, e.Reason)
	}
	return fmt.Sprintf("invalid layout %q: %s", e.Layout, e.Reason)
}

// LayoutNotFoundError reports a layout name missing from the catalog.
type LayoutNotFoundError struct {
	// Name is the requested layout
	Name string
	// Available lists known layout names
	Available []string
}

func (e *LayoutNotFoundError) Error() string {
	return fmt.Sprintf("unknown layout %q\n"+
		"\n"+
		"Known layouts:\n%s\n"+
		"\n"+
		"New firmware revisions can be described in a YAML file and loaded with --layouts <file>.",
		e.Name, formatNameList(e.Available))
}

func formatNameList(names []string) string {
	if len(names) == 0 {
		return "  (none)"
	}
	var b strings.Builder
	for _, n := range names {
		fmt.Fprintf(&b, "  - %s\n", n)
	}
	return strings.TrimRight(b.String(), "\n")
}
