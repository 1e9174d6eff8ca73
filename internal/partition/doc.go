// Package partition splits firmware images into named regions and
// reassembles update images.
//
// # Layouts
//
// A Layout is an ordered list of (name, offset, size) entries describing one
// kind of image. Layouts are data, not code: the built-in catalog is embedded
// from layouts/layouts.yaml and additional revisions can be supplied as a YAML
// file with the same schema.
//
//	catalog, err := partition.LoadLayouts()
//	if err != nil {
//	    return err
//	}
//	layout, err := catalog.Get("update")
//
// Layouts are never derived from, or checked against, image contents. Entries
// may overlap (the ROM layout carries two kernel copies).
//
// # Unpack
//
// Unpack copies each entry's byte range into <dir>/<name>. A range running
// past the end of the source is an error for that entry; entries already
// written stay on disk.
//
// # Pack
//
// Pack concatenates <dir>/<name> in layout order and patches the update
// header:
//
//	offset 4..7   payload size, big-endian (total length - header length)
//	offset 8..11  checksum, big-endian (low 32 bits of the byte sum of the
//	              whole image, computed with bytes 8..11 zeroed)
//
// By default every part must have exactly its declared size, since a short or
// long part shifts every later region. PackOptions.SkipSizeCheck disables the
// check.
package partition
