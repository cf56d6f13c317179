package fbuf

import (
	"image"
	"sync"

	"github.com/pkg/errors"
)

// Image is a single hardware-backed image buffer checked out from an owning
// pool. Backing memory is scarce and hardware-mapped, so an Image must be
// closed as soon as the holder is finished with it; once closed, every
// operation fails with ErrInvalidState rather than reading stale hardware
// data.
//
// An Image is manipulated by one holder at a time. Hand-off is the
// synchronization boundary: a holder must not retain the Image or its
// Planes after Close or after handing it back to its owner.
//
type Image struct {
	lock       sync.Mutex
	format     Format
	width      int
	height     int
	timestamp  int64
	stamped    bool
	crop       *image.Rectangle
	planes     []*Plane
	released   bool
	owner      Owner
	attachable bool
	detached   bool
}

// Owner is whichever pool subsystem currently holds an Image checked out.
// The recycle hook is unexported so that only pools in this module can
// stand as owners; holders cannot forge an ownership transfer.
//
type Owner interface {
	Name() string
	imageReleased(img *Image)
}

// NewImage builds an image over the given plane windows and returns the
// holder-facing handle together with the pool-facing control. The plane
// count must match the format.
func NewImage(format Format, width, height int, timestamp int64, descs []PlaneDesc) (*Image, *ImageControl, error) {
	if !format.valid() {
		return nil, nil, errors.WithMessagef(ErrInvalidArgument, "unknown format [%d]", format)
	}
	if width < 1 || height < 1 {
		return nil, nil, errors.WithMessagef(ErrInvalidArgument, "dimensions [%dx%d] must be positive", width, height)
	}
	if len(descs) != format.PlaneCount() {
		return nil, nil, errors.WithMessagef(ErrInvalidArgument, "format %s wants [%d] planes, got [%d]", format, format.PlaneCount(), len(descs))
	}
	img := &Image{
		format:    format,
		width:     width,
		height:    height,
		timestamp: timestamp,
		stamped:   true,
	}
	for idx, desc := range descs {
		p, err := newPlane(img, idx, desc)
		if err != nil {
			return nil, nil, err
		}
		img.planes = append(img.planes, p)
	}
	return img, &ImageControl{img: img}, nil
}

func (self *Image) Format() (Format, error) {
	self.lock.Lock()
	defer self.lock.Unlock()
	if err := self.ensureLive("format read"); err != nil {
		return 0, err
	}
	return self.format, nil
}

func (self *Image) Width() (int, error) {
	self.lock.Lock()
	defer self.lock.Unlock()
	if err := self.ensureLive("width read"); err != nil {
		return 0, err
	}
	return self.width, nil
}

func (self *Image) Height() (int, error) {
	self.lock.Lock()
	defer self.lock.Unlock()
	if err := self.ensureLive("height read"); err != nil {
		return 0, err
	}
	return self.height, nil
}

func (self *Image) Timestamp() (int64, error) {
	self.lock.Lock()
	defer self.lock.Unlock()
	if err := self.ensureLive("timestamp read"); err != nil {
		return 0, err
	}
	return self.timestamp, nil
}

// SetTimestamp stamps the frame, in nanoseconds. A holder preparing a
// dequeued input image stamps it before hand-back; if it never does, the
// submission path stamps it automatically.
func (self *Image) SetTimestamp(ts int64) error {
	self.lock.Lock()
	defer self.lock.Unlock()
	if err := self.ensureLive("timestamp set"); err != nil {
		return err
	}
	self.timestamp = ts
	self.stamped = true
	return nil
}

// IsOpaque reports whether the pixel memory is inaccessible to the holder.
// Fixed per instance; carries no state dependency.
func (self *Image) IsOpaque() bool {
	return self.format.Opaque()
}

// CropRect returns the region of valid pixels, in full-resolution
// coordinates. When no crop was ever set it is the full bounds, computed
// here rather than stored. The returned value is a copy.
func (self *Image) CropRect() (image.Rectangle, error) {
	self.lock.Lock()
	defer self.lock.Unlock()
	if err := self.ensureLive("crop read"); err != nil {
		return image.Rectangle{}, err
	}
	if self.crop == nil {
		return image.Rect(0, 0, self.width, self.height), nil
	}
	return *self.crop, nil
}

// SetCropRect narrows the valid region. The input is intersected with the
// image bounds before storage; partial overlap is normal, not an error, and
// an empty intersection denotes an empty crop. nil resets to the full
// bounds.
func (self *Image) SetCropRect(r *image.Rectangle) error {
	self.lock.Lock()
	defer self.lock.Unlock()
	if err := self.ensureLive("crop set"); err != nil {
		return err
	}
	if r == nil {
		self.crop = nil
		return nil
	}
	clipped := r.Intersect(image.Rect(0, 0, self.width, self.height))
	self.crop = &clipped
	return nil
}

// Planes returns the image's plane views, empty for an opaque image. The
// views stay bound to this image and die with it.
func (self *Image) Planes() ([]*Plane, error) {
	self.lock.Lock()
	defer self.lock.Unlock()
	if err := self.ensureLive("plane access"); err != nil {
		return nil, err
	}
	out := make([]*Plane, len(self.planes))
	copy(out, self.planes)
	return out, nil
}

// Close releases the image back to its owner for reuse. All plane memory is
// invalidated. A second Close is a hard ErrInvalidState; double release is
// a bug worth catching loudly. For a writer-dequeued image, Close without
// queuing discards any unflushed content.
func (self *Image) Close() error {
	self.lock.Lock()
	if self.released {
		self.lock.Unlock()
		return errors.WithMessage(ErrInvalidState, "double close")
	}
	self.released = true
	owner := self.owner
	self.owner = nil
	self.attachable = false
	self.lock.Unlock()

	if owner != nil {
		owner.imageReleased(self)
	}
	return nil
}

// ensureLive must be called with the image lock held.
func (self *Image) ensureLive(op string) error {
	if self.released {
		return errors.WithMessagef(ErrInvalidState, "%s on released image", op)
	}
	return nil
}
