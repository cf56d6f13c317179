package fbuf

import "github.com/pkg/errors"

// Format tags the pixel layout of an Image. The format fixes the number of
// planes and how each plane's memory window is validated at construction.
//
type Format uint32

const (
	// JPEG is compressed data in a single plane. Strides describe the blob
	// layout only loosely; the memory window is treated as opaque.
	JPEG Format = iota
	// YUV420 is a full-resolution luminance plane followed by two chroma
	// planes subsampled by half in both dimensions (4:2:0).
	YUV420
	// RAW16 is a single plane of raw sensor data, 16 bits per sample.
	RAW16
	// Private carries no application-accessible pixel data at all.
	Private
)

func (self Format) PlaneCount() int {
	switch self {
	case JPEG, RAW16:
		return 1
	case YUV420:
		return 3
	default:
		return 0
	}
}

func (self Format) Opaque() bool {
	return self == Private
}

func (self Format) valid() bool {
	return self <= Private
}

func (self Format) String() string {
	switch self {
	case JPEG:
		return "JPEG"
	case YUV420:
		return "YUV420"
	case RAW16:
		return "RAW16"
	case Private:
		return "Private"
	default:
		return "unknown"
	}
}

func ParseFormat(s string) (Format, error) {
	switch s {
	case "JPEG":
		return JPEG, nil
	case "YUV420":
		return YUV420, nil
	case "RAW16":
		return RAW16, nil
	case "Private":
		return Private, nil
	default:
		return 0, errors.WithMessagef(ErrInvalidArgument, "unknown format '%s'", s)
	}
}

// bytesPerSample is the size of the final pixel sample in a row, used to
// bound the minimum memory window of an uncompressed plane.
func (self Format) bytesPerSample() int {
	if self == RAW16 {
		return 2
	}
	return 1
}

// planeDims gives the logical rows and columns of plane [idx]. Chroma
// planes of subsampled formats cover half the image in both dimensions.
func planeDims(f Format, idx, width, height int) (rows, cols int) {
	if f == YUV420 && idx > 0 {
		return (height + 1) / 2, (width + 1) / 2
	}
	return height, width
}
