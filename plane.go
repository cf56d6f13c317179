package fbuf

import "github.com/pkg/errors"

// PlaneDesc describes one plane at image construction time: a stride pair
// and a window over hardware-backed memory.
//
type PlaneDesc struct {
	RowStride   int
	PixelStride int
	Memory      []byte
}

// Plane is a zero-copy view into one contiguous region of its parent
// image's memory. A Plane has no lifetime of its own; every accessor
// defers validity to the parent, and all access fails once the parent has
// been closed.
//
type Plane struct {
	img         *Image
	rowStride   int
	pixelStride int
	memory      []byte
}

func (self *Plane) RowStride() (int, error) {
	self.img.lock.Lock()
	defer self.img.lock.Unlock()
	if err := self.img.ensureLive("row stride read"); err != nil {
		return 0, err
	}
	return self.rowStride, nil
}

func (self *Plane) PixelStride() (int, error) {
	self.img.lock.Lock()
	defer self.img.lock.Unlock()
	if err := self.img.ensureLive("pixel stride read"); err != nil {
		return 0, err
	}
	return self.pixelStride, nil
}

// Memory exposes the raw window. For uncompressed layouts the window ends
// at the last sample of the last row; trailing padding past that point is
// not mapped and is never exposed.
func (self *Plane) Memory() ([]byte, error) {
	self.img.lock.Lock()
	defer self.img.lock.Unlock()
	if err := self.img.ensureLive("memory access"); err != nil {
		return nil, err
	}
	return self.memory, nil
}

// newPlane validates a descriptor against the plane's logical geometry.
// Compressed planes are opaque blobs and only need to be non-empty.
func newPlane(img *Image, idx int, desc PlaneDesc) (*Plane, error) {
	if desc.RowStride < 1 || desc.PixelStride < 1 {
		return nil, errors.WithMessagef(ErrInvalidArgument, "plane [%d] strides [%d/%d] must be positive", idx, desc.RowStride, desc.PixelStride)
	}
	if img.format == JPEG {
		if len(desc.Memory) < 1 {
			return nil, errors.WithMessagef(ErrInvalidArgument, "plane [%d] empty compressed window", idx)
		}
	} else {
		rows, cols := planeDims(img.format, idx, img.width, img.height)
		need := desc.RowStride*(rows-1) + desc.PixelStride*(cols-1) + img.format.bytesPerSample()
		if len(desc.Memory) < need {
			return nil, errors.WithMessagef(ErrInvalidArgument, "plane [%d] window [%d] shorter than last sample [%d]", idx, len(desc.Memory), need)
		}
	}
	return &Plane{
		img:         img,
		rowStride:   desc.RowStride,
		pixelStride: desc.PixelStride,
		memory:      desc.Memory,
	}, nil
}
