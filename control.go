package fbuf

import "github.com/pkg/errors"

// ImageControl is the pool-facing capability for an Image. NewImage hands
// it to exactly one constructor (the pool); it never travels with the
// holder-facing handle, so ordinary holders cannot touch ownership or the
// attach/detach protocol.
//
type ImageControl struct {
	img *Image
}

func (self *ImageControl) Image() *Image {
	return self.img
}

// Owner identifies the subsystem currently holding the image checked out,
// or nil for a stand-alone or mid-transfer image.
func (self *ImageControl) Owner() Owner {
	self.img.lock.Lock()
	defer self.img.lock.Unlock()
	return self.img.owner
}

// IsAttachable reports whether the image is eligible to be detached from
// its current owner and handed to a different owner without copying pixel
// memory. Stand-alone images and images already mid-transfer report false.
func (self *ImageControl) IsAttachable() bool {
	self.img.lock.Lock()
	defer self.img.lock.Unlock()
	return self.img.attachable && !self.img.released
}

// bind installs the initial owner at pool construction time.
func (self *ImageControl) bind(o Owner) {
	self.img.lock.Lock()
	defer self.img.lock.Unlock()
	self.img.owner = o
}

// resetStamp marks the image unstamped, so that Consume auto-generates a
// timestamp unless the holder sets one. Writer pools call this on dequeued
// inputs, whose construction timestamp is a placeholder.
func (self *ImageControl) resetStamp() {
	self.img.lock.Lock()
	defer self.img.lock.Unlock()
	self.img.stamped = false
}

// SetAttachable marks transfer eligibility. Only the owning pool calls
// this; an image with no owner cannot be made attachable.
func (self *ImageControl) SetAttachable(v bool) error {
	self.img.lock.Lock()
	defer self.img.lock.Unlock()
	if err := self.img.ensureLive("attachable set"); err != nil {
		return err
	}
	if v && self.img.owner == nil {
		return errors.WithMessage(ErrInvalidState, "stand-alone image cannot be attachable")
	}
	self.img.attachable = v
	return nil
}

// Detach removes the image from its current owner, leaving it mid-transfer
// until a new owner attaches it. While mid-transfer the image reports no
// owner and is not attachable again.
func (self *ImageControl) Detach() error {
	self.img.lock.Lock()
	defer self.img.lock.Unlock()
	if err := self.img.ensureLive("detach"); err != nil {
		return err
	}
	if !self.img.attachable {
		return errors.WithMessage(ErrInvalidState, "image is not attachable")
	}
	if self.img.owner == nil {
		return errors.WithMessage(ErrInvalidState, "image has no owner to detach from")
	}
	self.img.owner = nil
	self.img.attachable = false
	self.img.detached = true
	return nil
}

// Attach hands a mid-transfer image to a new owner. Attaching an image
// that was never detached fails, which keeps two owners from each
// believing they independently hold the buffer.
func (self *ImageControl) Attach(o Owner) error {
	self.img.lock.Lock()
	defer self.img.lock.Unlock()
	if err := self.img.ensureLive("attach"); err != nil {
		return err
	}
	if o == nil {
		return errors.WithMessage(ErrInvalidArgument, "nil owner")
	}
	if self.img.owner != nil {
		return errors.WithMessagef(ErrInvalidState, "image already owned by [%s]", self.img.owner.Name())
	}
	if !self.img.detached {
		return errors.WithMessage(ErrInvalidState, "image was never detached from a pool")
	}
	self.img.owner = o
	self.img.detached = false
	return nil
}

// Consume is the pool-initiated submission close: the timestamp is stamped
// with now when the holder never stamped it explicitly, and the image is
// released. Returns the effective timestamp.
func (self *ImageControl) Consume(now int64) (int64, error) {
	self.img.lock.Lock()
	if self.img.released {
		self.img.lock.Unlock()
		return 0, errors.WithMessage(ErrInvalidState, "consume of released image")
	}
	if !self.img.stamped {
		self.img.timestamp = now
		self.img.stamped = true
	}
	ts := self.img.timestamp
	self.img.lock.Unlock()

	if err := self.img.Close(); err != nil {
		return 0, err
	}
	return ts, nil
}
