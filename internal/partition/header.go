package partition

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Update header field positions.
const (
	SizeFieldOffset     = 4
	ChecksumFieldOffset = 8
	fieldLength         = 4

	// MinHeaderLength is the smallest header that holds both fields.
	MinHeaderLength = ChecksumFieldOffset + fieldLength
)

// Header holds the two fields the installer checks.
type Header struct {
	PayloadSize uint32 `json:"payload_size"`
	Checksum    uint32 `json:"checksum"`
}

// ReadHeader decodes the size and checksum fields of buf.
func ReadHeader(buf []byte) (Header, error) {
	if len(buf) < MinHeaderLength {
		return Header{}, &HeaderError{Field: "length", Reason: fmt.Sprintf("image is %d bytes, need at least %d", len(buf), MinHeaderLength)}
	}
	return Header{
		PayloadSize: binary.BigEndian.Uint32(buf[SizeFieldOffset:]),
		Checksum:    binary.BigEndian.Uint32(buf[ChecksumFieldOffset:]),
	}, nil
}

// Checksum returns the sum of all bytes in buf. The sum is accumulated in 64
// bits and never masked; callers store the low 32 bits.
func Checksum(buf []byte) uint64 {
	var sum uint64
	for _, b := range buf {
		sum += uint64(b)
	}
	return sum
}

// checksumZeroed sums buf as if the checksum field were zero, without
// modifying buf.
func checksumZeroed(buf []byte) uint64 {
	sum := Checksum(buf)
	for _, b := range buf[ChecksumFieldOffset : ChecksumFieldOffset+fieldLength] {
		sum -= uint64(b)
	}
	return sum
}

// PatchHeader writes the payload size and checksum fields into buf in place.
// headerLen is the number of leading bytes excluded from the payload size.
// It returns the payload size and the full, unmasked byte sum.
func PatchHeader(buf []byte, headerLen int64) (uint32, uint64, error) {
	if len(buf) < MinHeaderLength {
		return 0, 0, &HeaderError{Field: "length", Reason: fmt.Sprintf("image is %d bytes, need at least %d", len(buf), MinHeaderLength)}
	}
	if headerLen < 0 || headerLen > int64(len(buf)) {
		return 0, 0, &HeaderError{Field: "length", Reason: fmt.Sprintf("header length %d outside image of %d bytes", headerLen, len(buf))}
	}
	payload := int64(len(buf)) - headerLen
	if payload > math.MaxUint32 {
		return 0, 0, &HeaderError{Field: "size", Reason: fmt.Sprintf("payload of %d bytes does not fit in 32 bits", payload)}
	}

	binary.BigEndian.PutUint32(buf[SizeFieldOffset:], uint32(payload))

	for i := ChecksumFieldOffset; i < ChecksumFieldOffset+fieldLength; i++ {
		buf[i] = 0
	}
	sum := Checksum(buf)
	binary.BigEndian.PutUint32(buf[ChecksumFieldOffset:], uint32(sum))

	return uint32(payload), sum, nil
}

// Verification compares an image's stored header fields with the values
// PatchHeader would write.
type Verification struct {
	Stored   Header `json:"stored"`
	Computed Header `json:"computed"`
}

// SizeOK reports whether the stored payload size is correct.
func (v *Verification) SizeOK() bool {
	return v.Stored.PayloadSize == v.Computed.PayloadSize
}

// ChecksumOK reports whether the stored checksum is correct.
func (v *Verification) ChecksumOK() bool {
	return v.Stored.Checksum == v.Computed.Checksum
}

// OK reports whether both fields are correct.
func (v *Verification) OK() bool {
	return v.SizeOK() && v.ChecksumOK()
}

// Err returns a *HeaderError describing the first wrong field, or nil.
func (v *Verification) Err() error {
	if !v.SizeOK() {
		return &HeaderError{Field: "size", Reason: fmt.Sprintf("stored 0x%08x, expected 0x%08x", v.Stored.PayloadSize, v.Computed.PayloadSize)}
	}
	if !v.ChecksumOK() {
		return &HeaderError{Field: "checksum", Reason: fmt.Sprintf("stored 0x%08x, expected 0x%08x", v.Stored.Checksum, v.Computed.Checksum)}
	}
	return nil
}

// VerifyHeader checks buf's header against its contents without modifying
// it.
func VerifyHeader(buf []byte, headerLen int64) (*Verification, error) {
	stored, err := ReadHeader(buf)
	if err != nil {
		return nil, err
	}
	if headerLen < 0 || headerLen > int64(len(buf)) {
		return nil, &HeaderError{Field: "length", Reason: fmt.Sprintf("header length %d outside image of %d bytes", headerLen, len(buf))}
	}
	return &Verification{
		Stored: stored,
		Computed: Header{
			PayloadSize: uint32(int64(len(buf)) - headerLen),
			Checksum:    uint32(checksumZeroed(buf)),
		},
	}, nil
}
