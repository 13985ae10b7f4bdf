// Package imagemeta reads and removes embedded image metadata and prepares
// uploaded photos for publishing.
package imagemeta

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat is returned by StripEXIF for containers it cannot rewrite.
	ErrUnsupportedFormat = errors.New("imagemeta: unsupported image format")
	// ErrMalformed is returned when a JPEG, PNG or WebP stream cannot be walked.
	ErrMalformed = errors.New("imagemeta: malformed image data")
)

var (
	exifHeader   = []byte("Exif\x00\x00")
	jpegSOI      = []byte{0xFF, 0xD8}
	pngSignature = []byte("\x89PNG\r\n\x1a\n")
	riffMagic    = []byte("RIFF")
	webpMagic    = []byte("WEBP")
	tiffLE       = []byte("II*\x00")
	tiffBE       = []byte("MM\x00*")
)

const (
	markerAPP1 = 0xE1
	markerSOS  = 0xDA
	markerEOI  = 0xD9

	// VP8X feature flags announcing EXIF and XMP chunks.
	vp8xFlagEXIF = 0x08
	vp8xFlagXMP  = 0x04
)

// Scrubber detects and strips EXIF blocks. The zero value is ready to use.
type Scrubber struct{}

// HasMetadata reports whether data carries an EXIF block.
func (Scrubber) HasMetadata(data []byte) bool { return HasEXIF(data) }

// Strip returns data without its EXIF block.
func (Scrubber) Strip(data []byte) ([]byte, error) { return StripEXIF(data) }

// HasEXIF reports whether data carries an EXIF block. JPEG, PNG and WebP
// streams are walked segment by segment. A TIFF file is an EXIF container
// in itself. Anything else is searched for the EXIF header bytes.
func HasEXIF(data []byte) bool {
	switch {
	case bytes.HasPrefix(data, jpegSOI):
		found := false
		_ = walkJPEG(data, func(marker byte, segment []byte) bool {
			if isExifSegment(marker, segment) {
				found = true
				return false
			}
			return true
		})
		return found
	case bytes.HasPrefix(data, pngSignature):
		found := false
		_ = walkPNG(data, func(kind string, _ []byte) bool {
			if kind == "eXIf" {
				found = true
				return false
			}
			return true
		})
		return found
	case isWebP(data):
		found := false
		err := walkWebP(data, func(kind string, _ []byte) bool {
			if isWebPMetadata(kind) {
				found = true
				return false
			}
			return true
		})
		// An unreadable container may hide a chunk past the damage.
		return found || err != nil
	case bytes.HasPrefix(data, tiffLE), bytes.HasPrefix(data, tiffBE):
		return true
	default:
		return bytes.Contains(data, exifHeader)
	}
}

// StripEXIF removes every EXIF block from a JPEG or PNG stream, and the
// EXIF and XMP chunks from a WebP stream. Other formats, TIFF included,
// yield ErrUnsupportedFormat so callers can refuse to publish them.
func StripEXIF(data []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(data, jpegSOI):
		out := make([]byte, 0, len(data))
		out = append(out, jpegSOI...)
		err := walkJPEG(data, func(marker byte, segment []byte) bool {
			if !isExifSegment(marker, segment) {
				out = append(out, segment...)
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		return out, nil
	case bytes.HasPrefix(data, pngSignature):
		out := make([]byte, 0, len(data))
		out = append(out, pngSignature...)
		err := walkPNG(data, func(kind string, chunk []byte) bool {
			if kind != "eXIf" {
				out = append(out, chunk...)
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		return out, nil
	case isWebP(data):
		return stripWebP(data)
	default:
		return nil, ErrUnsupportedFormat
	}
}

func isExifSegment(marker byte, segment []byte) bool {
	return marker == markerAPP1 && len(segment) >= 4+len(exifHeader) &&
		bytes.Equal(segment[4:4+len(exifHeader)], exifHeader)
}

// walkJPEG calls fn for every segment after SOI. Each segment slice starts
// at its 0xFF marker byte. Entropy-coded data after SOS is passed as one
// final segment.
func walkJPEG(data []byte, fn func(marker byte, segment []byte) bool) error {
	i := len(jpegSOI)
	for i < len(data) {
		if data[i] != 0xFF {
			return fmt.Errorf("%w: expected marker at offset %d", ErrMalformed, i)
		}
		start := i
		for i < len(data) && data[i] == 0xFF {
			i++
		}
		if i >= len(data) {
			return fmt.Errorf("%w: truncated marker", ErrMalformed)
		}
		marker := data[i]
		i++

		switch {
		case marker == markerEOI:
			fn(marker, data[start:i])
			return nil
		case marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7):
			if !fn(marker, data[start:i]) {
				return nil
			}
			continue
		}

		if i+2 > len(data) {
			return fmt.Errorf("%w: truncated segment length", ErrMalformed)
		}
		length := int(binary.BigEndian.Uint16(data[i : i+2]))
		if length < 2 || i+length > len(data) {
			return fmt.Errorf("%w: bad segment length %d", ErrMalformed, length)
		}
		end := i + length
		if marker == markerSOS {
			fn(marker, data[start:])
			return nil
		}
		if !fn(marker, data[start:end]) {
			return nil
		}
		i = end
	}
	return nil
}

// walkPNG calls fn for every chunk after the signature, including its
// length, type and CRC fields.
func walkPNG(data []byte, fn func(kind string, chunk []byte) bool) error {
	i := len(pngSignature)
	for i < len(data) {
		if i+8 > len(data) {
			return fmt.Errorf("%w: truncated chunk header", ErrMalformed)
		}
		length := int(binary.BigEndian.Uint32(data[i : i+4]))
		kind := string(data[i+4 : i+8])
		end := i + 12 + length
		if length < 0 || end > len(data) {
			return fmt.Errorf("%w: bad chunk length %d", ErrMalformed, length)
		}
		if !fn(kind, data[i:end]) {
			return nil
		}
		i = end
		if kind == "IEND" {
			return nil
		}
	}
	return nil
}

func isWebP(data []byte) bool {
	return len(data) >= 12 && bytes.Equal(data[0:4], riffMagic) && bytes.Equal(data[8:12], webpMagic)
}

func isWebPMetadata(kind string) bool {
	return kind == "EXIF" || kind == "XMP "
}

// walkWebP calls fn for every chunk inside the RIFF container, including
// its header and padding byte.
func walkWebP(data []byte, fn func(kind string, chunk []byte) bool) error {
	end := 8 + int(binary.LittleEndian.Uint32(data[4:8]))
	if end > len(data) || end < 12 {
		return fmt.Errorf("%w: bad RIFF size", ErrMalformed)
	}
	i := 12
	for i < end {
		if i+8 > end {
			return fmt.Errorf("%w: truncated chunk header", ErrMalformed)
		}
		kind := string(data[i : i+4])
		size := int(binary.LittleEndian.Uint32(data[i+4 : i+8]))
		next := i + 8 + size + size%2
		if size < 0 || i+8+size > end {
			return fmt.Errorf("%w: bad chunk size %d", ErrMalformed, size)
		}
		if next > end {
			next = end
		}
		if !fn(kind, data[i:next]) {
			return nil
		}
		i = next
	}
	return nil
}

// stripWebP drops EXIF and XMP chunks, clears their VP8X flags and
// rewrites the RIFF size.
func stripWebP(data []byte) ([]byte, error) {
	out := make([]byte, 12, len(data))
	copy(out, data[:12])
	err := walkWebP(data, func(kind string, chunk []byte) bool {
		if isWebPMetadata(kind) {
			return true
		}
		start := len(out)
		out = append(out, chunk...)
		if kind == "VP8X" && len(chunk) > 8 {
			out[start+8] &^= vp8xFlagEXIF | vp8xFlagXMP
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(out)-8))
	return out, nil
}
