package partition

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func counting(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i)
	}
	return data
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return data
}

func testUpdateLayout() *Layout {
	return &Layout{
		Name: "test-update",
		Kind: KindUpdate,
		Entries: []Entry{
			{Name: "header", Offset: 0, Size: 16},
			{Name: "kernel", Offset: 16, Size: 40},
			{Name: "rootfs", Offset: 56, Size: 200},
		},
	}
}

func TestUnpack_HeaderBodyScenario(t *testing.T) {
	layout := &Layout{
		Name: "scenario",
		Kind: KindROM,
		Entries: []Entry{
			{Name: "header", Offset: 0, Size: 4},
			{Name: "body", Offset: 4, Size: 8},
		},
	}
	src := counting(12)
	dir := t.TempDir()

	written, err := NewCodec(nil).Unpack(bytes.NewReader(src), int64(len(src)), layout, dir)
	if err != nil {
		t.Fatalf("Unpack() error = %v", err)
	}

	if got := readFile(t, filepath.Join(dir, "header")); !bytes.Equal(got, []byte{0x00, 0x01, 0x02, 0x03}) {
		t.Errorf("header = % x", got)
	}
	wantBody := []byte{0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0A, 0x0B}
	if got := readFile(t, filepath.Join(dir, "body")); !bytes.Equal(got, wantBody) {
		t.Errorf("body = % x", got)
	}

	if len(written) != 2 {
		t.Fatalf("written = %d entries, want 2", len(written))
	}
	if written[0].Name != "header" || written[0].Size != 4 {
		t.Errorf("written[0] = %+v", written[0])
	}
	if written[1].Name != "body" || written[1].Size != 8 {
		t.Errorf("written[1] = %+v", written[1])
	}
}

func TestUnpack_OverlappingEntries(t *testing.T) {
	layout := &Layout{
		Name: "overlap",
		Kind: KindROM,
		Entries: []Entry{
			{Name: "whole", Offset: 0, Size: 10},
			{Name: "middle", Offset: 3, Size: 4},
		},
	}
	src := counting(10)
	dir := t.TempDir()

	if _, err := NewCodec(nil).Unpack(bytes.NewReader(src), 10, layout, dir); err != nil {
		t.Fatalf("Unpack() error = %v", err)
	}
	if got := readFile(t, filepath.Join(dir, "whole")); !bytes.Equal(got, src) {
		t.Errorf("whole = % x", got)
	}
	if got := readFile(t, filepath.Join(dir, "middle")); !bytes.Equal(got, src[3:7]) {
		t.Errorf("middle = % x", got)
	}
}

func TestUnpack_TruncatedSource(t *testing.T) {
	layout := &Layout{
		Name: "truncated",
		Kind: KindROM,
		Entries: []Entry{
			{Name: "first", Offset: 0, Size: 4},
			{Name: "second", Offset: 4, Size: 16},
			{Name: "third", Offset: 0, Size: 2},
		},
	}
	src := counting(10)
	dir := t.TempDir()

	written, err := NewCodec(nil).Unpack(bytes.NewReader(src), int64(len(src)), layout, dir)

	var truncErr *SourceTruncatedError
	if !errors.As(err, &truncErr) {
		t.Fatalf("Unpack() error = %v, want *SourceTruncatedError", err)
	}
	if truncErr.Entry != "second" || truncErr.Available != 10 || truncErr.Size != 16 {
		t.Errorf("SourceTruncatedError = %+v", truncErr)
	}

	// The first entry stays on disk; the failing entry is not created.
	if len(written) != 1 {
		t.Errorf("written = %d entries, want 1", len(written))
	}
	if _, err := os.Stat(filepath.Join(dir, "first")); err != nil {
		t.Errorf("first part should remain on disk: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "second")); !os.IsNotExist(err) {
		t.Errorf("second part should not exist, stat error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "third")); !os.IsNotExist(err) {
		t.Error("processing stops at the first failing entry")
	}
}

func TestUnpack_ReusesDirectoryAndOverwrites(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	layout := &Layout{
		Name:    "single",
		Kind:    KindROM,
		Entries: []Entry{{Name: "blob", Offset: 2, Size: 3}},
	}
	codec := NewCodec(nil)

	if _, err := codec.Unpack(bytes.NewReader(counting(8)), 8, layout, dir); err != nil {
		t.Fatalf("first Unpack() error = %v", err)
	}

	writeFile(t, filepath.Join(dir, "blob"), []byte("stale content that is longer"))

	if _, err := codec.Unpack(bytes.NewReader(counting(8)), 8, layout, dir); err != nil {
		t.Fatalf("second Unpack() error = %v", err)
	}
	if got := readFile(t, filepath.Join(dir, "blob")); !bytes.Equal(got, []byte{2, 3, 4}) {
		t.Errorf("blob = % x, want overwritten contents", got)
	}
}

func TestUnpack_OutputDirIsFile(t *testing.T) {
	base := t.TempDir()
	notDir := filepath.Join(base, "file")
	writeFile(t, notDir, []byte("x"))

	layout := &Layout{Name: "single", Kind: KindROM, Entries: []Entry{{Name: "a", Offset: 0, Size: 1}}}
	_, err := NewCodec(nil).Unpack(bytes.NewReader([]byte{1}), 1, layout, notDir)

	var fsErr *FilesystemError
	if !errors.As(err, &fsErr) {
		t.Fatalf("Unpack() error = %v, want *FilesystemError", err)
	}
	if fsErr.Path != notDir {
		t.Errorf("FilesystemError.Path = %q, want %q", fsErr.Path, notDir)
	}
}

func TestUnpackFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "update.bin")
	image := counting(256)
	writeFile(t, src, image)

	var seen []string
	codec := NewCodec(nil, WithEntryObserver(func(w Written) {
		seen = append(seen, w.Name)
	}))

	out := filepath.Join(dir, "extracted")
	written, err := codec.UnpackFile(src, testUpdateLayout(), out)
	if err != nil {
		t.Fatalf("UnpackFile() error = %v", err)
	}
	if len(written) != 3 || len(seen) != 3 {
		t.Fatalf("written = %d, observed = %d, want 3", len(written), len(seen))
	}
	if got := readFile(t, filepath.Join(out, "rootfs")); !bytes.Equal(got, image[56:256]) {
		t.Error("rootfs contents mismatch")
	}
}

func TestUnpackFile_EmptyAndMissing(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.bin")
	writeFile(t, empty, nil)

	codec := NewCodec(nil)

	_, err := codec.UnpackFile(empty, testUpdateLayout(), filepath.Join(dir, "out"))
	var truncErr *SourceTruncatedError
	if !errors.As(err, &truncErr) {
		t.Errorf("empty source error = %v, want *SourceTruncatedError", err)
	}

	_, err = codec.UnpackFile(filepath.Join(dir, "missing.bin"), testUpdateLayout(), filepath.Join(dir, "out"))
	var fsErr *FilesystemError
	if !errors.As(err, &fsErr) {
		t.Errorf("missing source error = %v, want *FilesystemError", err)
	}
}

func TestUnpackThenPack_RoundTrip(t *testing.T) {
	layout := testUpdateLayout()
	image := make([]byte, 256)
	for i := range image {
		image[i] = byte(i*31 + 7)
	}
	dir := t.TempDir()
	codec := NewCodec(nil)

	if _, err := codec.Unpack(bytes.NewReader(image), int64(len(image)), layout, dir); err != nil {
		t.Fatalf("Unpack() error = %v", err)
	}

	packed, err := codec.Pack(dir, layout, PackOptions{})
	if err != nil {
		t.Fatalf("Pack() error = %v", err)
	}

	if len(packed.Data) != len(image) {
		t.Fatalf("packed length = %d, want %d", len(packed.Data), len(image))
	}
	for i := range image {
		if i >= SizeFieldOffset && i < ChecksumFieldOffset+4 {
			continue
		}
		if packed.Data[i] != image[i] {
			t.Fatalf("byte %d = 0x%02x, want 0x%02x", i, packed.Data[i], image[i])
		}
	}

	wantSize := uint32(len(image)) - 16
	if got := binary.BigEndian.Uint32(packed.Data[4:8]); got != wantSize {
		t.Errorf("size field = %d, want %d", got, wantSize)
	}
	if packed.PayloadSize != wantSize {
		t.Errorf("PayloadSize = %d, want %d", packed.PayloadSize, wantSize)
	}

	zeroed := append([]byte(nil), packed.Data...)
	copy(zeroed[8:12], []byte{0, 0, 0, 0})
	if got := binary.BigEndian.Uint32(packed.Data[8:12]); got != uint32(Checksum(zeroed)) {
		t.Errorf("checksum field = 0x%08x, want 0x%08x", got, uint32(Checksum(zeroed)))
	}

	if len(packed.Parts) != 3 || packed.Parts[2].Offset != 56 {
		t.Errorf("Parts = %+v", packed.Parts)
	}
}

func TestPack_OrderIsTableOrder(t *testing.T) {
	// Entries listed out of offset order are concatenated as listed.
	layout := &Layout{
		Name: "unordered",
		Kind: KindUpdate,
		Entries: []Entry{
			{Name: "header", Offset: 0, Size: 12},
			{Name: "late", Offset: 20, Size: 2},
			{Name: "early", Offset: 12, Size: 2},
		},
	}
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "header"), make([]byte, 12))
	writeFile(t, filepath.Join(dir, "late"), []byte{0xAA, 0xAA})
	writeFile(t, filepath.Join(dir, "early"), []byte{0xBB, 0xBB})

	img, err := NewCodec(nil).Pack(dir, layout, PackOptions{})
	if err != nil {
		t.Fatalf("Pack() error = %v", err)
	}
	if !bytes.Equal(img.Data[12:], []byte{0xAA, 0xAA, 0xBB, 0xBB}) {
		t.Errorf("tail = % x, want table order", img.Data[12:])
	}
}

func TestPack_SizeCheck(t *testing.T) {
	layout := testUpdateLayout()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "header"), make([]byte, 16))
	writeFile(t, filepath.Join(dir, "kernel"), make([]byte, 39))
	writeFile(t, filepath.Join(dir, "rootfs"), make([]byte, 200))

	codec := NewCodec(nil)

	_, err := codec.Pack(dir, layout, PackOptions{})
	var sizeErr *SizeMismatchError
	if !errors.As(err, &sizeErr) {
		t.Fatalf("Pack() error = %v, want *SizeMismatchError", err)
	}
	if sizeErr.Entry != "kernel" || sizeErr.Expected != 40 || sizeErr.Actual != 39 {
		t.Errorf("SizeMismatchError = %+v", sizeErr)
	}

	img, err := codec.Pack(dir, layout, PackOptions{SkipSizeCheck: true})
	if err != nil {
		t.Fatalf("Pack(SkipSizeCheck) error = %v", err)
	}
	if len(img.Data) != 16+39+200 {
		t.Errorf("packed length = %d, want %d", len(img.Data), 16+39+200)
	}
	if img.PayloadSize != 39+200 {
		t.Errorf("PayloadSize = %d, want %d", img.PayloadSize, 39+200)
	}
}

func TestPack_MissingPart(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "header"), make([]byte, 16))

	_, err := NewCodec(nil).Pack(dir, testUpdateLayout(), PackOptions{})
	var fsErr *FilesystemError
	if !errors.As(err, &fsErr) {
		t.Fatalf("Pack() error = %v, want *FilesystemError", err)
	}
	if fsErr.Path != filepath.Join(dir, "kernel") {
		t.Errorf("FilesystemError.Path = %q", fsErr.Path)
	}
}

func TestPack_RejectsROMLayout(t *testing.T) {
	layout := &Layout{Name: "rom", Kind: KindROM, Entries: []Entry{{Name: "a", Offset: 0, Size: 1}}}
	_, err := NewCodec(nil).Pack(t.TempDir(), layout, PackOptions{})
	var layoutErr *LayoutError
	if !errors.As(err, &layoutErr) {
		t.Errorf("Pack() error = %v, want *LayoutError", err)
	}
}

func TestImageWriteFileAndVerify(t *testing.T) {
	layout := testUpdateLayout()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "header"), counting(16))
	writeFile(t, filepath.Join(dir, "kernel"), counting(40))
	writeFile(t, filepath.Join(dir, "rootfs"), counting(200))

	img, err := NewCodec(nil).Pack(dir, layout, PackOptions{})
	if err != nil {
		t.Fatalf("Pack() error = %v", err)
	}

	out := filepath.Join(dir, "AGIF_patched.img")
	if err := img.WriteFile(out); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := os.Stat(out + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file should be renamed away")
	}

	v, err := VerifyFile(out, layout)
	if err != nil {
		t.Fatalf("VerifyFile() error = %v", err)
	}
	if !v.OK() {
		t.Errorf("freshly packed image should verify: %v", v.Err())
	}

	// Flip a payload byte: the checksum must no longer match.
	data := readFile(t, out)
	data[100] ^= 0xFF
	writeFile(t, out, data)

	v, err = VerifyFile(out, layout)
	if err != nil {
		t.Fatalf("VerifyFile() error = %v", err)
	}
	if v.ChecksumOK() {
		t.Error("checksum should not verify after corruption")
	}
	if !v.SizeOK() {
		t.Error("size field is unaffected by payload corruption")
	}
	var headerErr *HeaderError
	if !errors.As(v.Err(), &headerErr) || headerErr.Field != "checksum" {
		t.Errorf("Err() = %v, want checksum HeaderError", v.Err())
	}
}
