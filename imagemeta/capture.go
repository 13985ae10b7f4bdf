package imagemeta

import (
	"bytes"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

const exifTimeLayout = "2006:01:02 15:04:05"

// captureFields are tried in order; the first parseable value wins.
var captureFields = []exif.FieldName{
	exif.DateTimeOriginal,
	exif.DateTime,
	exif.DateTimeDigitized,
}

// CaptureTime returns the moment a photo was taken according to its EXIF
// block. Missing or unreadable metadata reports false.
func CaptureTime(data []byte) (time.Time, bool) {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return time.Time{}, false
	}
	for _, field := range captureFields {
		tag, err := x.Get(field)
		if err != nil {
			continue
		}
		raw, err := tag.StringVal()
		if err != nil {
			continue
		}
		t, err := time.ParseInLocation(exifTimeLayout, trimExifString(raw), time.UTC)
		if err != nil {
			continue
		}
		return t, true
	}
	return time.Time{}, false
}

// orientation returns the EXIF orientation value, or 1 when absent.
func orientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	v, err := tag.Int(0)
	if err != nil || v < 1 || v > 8 {
		return 1
	}
	return v
}

func trimExifString(s string) string {
	return strings.TrimRight(s, "\x00 ")
}
