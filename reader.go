package fbuf

import (
	"sync"

	"github.com/emirpasic/gods/trees/btree"
	"github.com/emirpasic/gods/utils"
	"github.com/pkg/errors"
)

// Reader is a producer-facing owner pool. A producer delivers frames into
// the pool with Produce; a consumer checks them out with AcquireNext or
// AcquireLatest and returns each slot by closing the image. At most
// MaxImages may be outstanding (pending plus acquired) at once; Produce
// fails while the pool is exhausted, which is the consumer's signal that it
// is holding images too long.
//
type Reader struct {
	lock    sync.Mutex
	name    string
	format  Format
	width   int
	height  int
	maxImg  int
	pending *btree.Tree
	// images delivered but not yet acquired; they stay pool-held and are
	// not eligible for detach until a consumer has checked them out
	unacquired map[*Image]struct{}
	live       map[*Image]*ImageControl
	ii         InstrumentInstance
}

type pendingFrame struct {
	ts  int64
	img *Image
}

func NewReader(name string, pf *Profile, ii InstrumentInstance) (*Reader, error) {
	format, err := ParseFormat(pf.Format)
	if err != nil {
		return nil, errors.Wrap(err, "reader format")
	}
	if pf.MaxImages < 1 {
		return nil, errors.WithMessagef(ErrInvalidArgument, "max images [%d] must be positive", pf.MaxImages)
	}
	// the btree panics below this
	if pf.PendingTreeOrder < 3 {
		return nil, errors.WithMessagef(ErrInvalidArgument, "pending tree order [%d] must be at least 3", pf.PendingTreeOrder)
	}
	if ii == nil {
		ii = NewNilInstrument().NewInstance(name)
	}
	return &Reader{
		name:    name,
		format:  format,
		width:   pf.Width,
		height:  pf.Height,
		maxImg:  pf.MaxImages,
		pending:    btree.NewWith(pf.PendingTreeOrder, utils.Int64Comparator),
		unacquired: make(map[*Image]struct{}),
		live:       make(map[*Image]*ImageControl),
		ii:         ii,
	}, nil
}

func (self *Reader) Name() string {
	return self.name
}

// Produce delivers a frame into the pool. The plane windows are adopted
// zero-copy; the descriptors are validated against the reader's geometry.
func (self *Reader) Produce(ts int64, descs []PlaneDesc) error {
	self.lock.Lock()
	defer self.lock.Unlock()

	if len(self.live) >= self.maxImg {
		err := errors.WithMessagef(ErrInvalidState, "max images [%d] outstanding", self.maxImg)
		self.ii.ProduceFailed(err)
		return err
	}
	if _, found := self.pending.Get(ts); found {
		err := errors.WithMessagef(ErrInvalidArgument, "duplicate pending timestamp [%d]", ts)
		self.ii.ProduceFailed(err)
		return err
	}
	img, ctl, err := NewImage(self.format, self.width, self.height, ts, descs)
	if err != nil {
		self.ii.ProduceFailed(err)
		return err
	}
	ctl.bind(self)
	self.live[img] = ctl
	self.unacquired[img] = struct{}{}
	self.pending.Put(ts, &pendingFrame{ts: ts, img: img})
	self.ii.ImageProduced(ts)
	self.ii.OutstandingChanged(len(self.live))
	return nil
}

// AcquireNext checks out the oldest pending frame.
func (self *Reader) AcquireNext() (*Image, error) {
	self.lock.Lock()
	defer self.lock.Unlock()

	v := self.pending.LeftValue()
	if v == nil {
		err := errors.WithMessage(ErrInvalidState, "no pending images")
		self.ii.AcquireFailed(err)
		return nil, err
	}
	pf := v.(*pendingFrame)
	self.pending.Remove(pf.ts)
	delete(self.unacquired, pf.img)
	self.ii.ImageAcquired(pf.ts)
	return pf.img, nil
}

// AcquireLatest checks out the newest pending frame and recycles everything
// older, for consumers that only care about the freshest data.
func (self *Reader) AcquireLatest() (*Image, error) {
	self.lock.Lock()

	v := self.pending.RightValue()
	if v == nil {
		self.lock.Unlock()
		err := errors.WithMessage(ErrInvalidState, "no pending images")
		self.ii.AcquireFailed(err)
		return nil, err
	}
	newest := v.(*pendingFrame)
	self.pending.Remove(newest.ts)
	delete(self.unacquired, newest.img)

	var dropped []*pendingFrame
	for {
		older := self.pending.LeftValue()
		if older == nil {
			break
		}
		pf := older.(*pendingFrame)
		self.pending.Remove(pf.ts)
		delete(self.unacquired, pf.img)
		dropped = append(dropped, pf)
	}
	self.lock.Unlock()

	// close outside the pool lock; Close re-enters through imageReleased
	for _, pf := range dropped {
		if err := pf.img.Close(); err == nil {
			self.ii.ImageDropped(pf.ts)
		}
	}
	self.ii.ImageAcquired(newest.ts)
	return newest.img, nil
}

// Outstanding counts images currently backed by this pool's slots, pending
// and acquired alike.
func (self *Reader) Outstanding() int {
	self.lock.Lock()
	defer self.lock.Unlock()
	return len(self.live)
}

// Detach marks an acquired image eligible for zero-copy transfer and
// removes it from this pool, freeing the slot. The returned control is
// what a destination pool needs to attach the image.
func (self *Reader) Detach(img *Image) (*ImageControl, error) {
	self.lock.Lock()
	ctl, found := self.live[img]
	_, pending := self.unacquired[img]
	self.lock.Unlock()
	if !found {
		return nil, errors.WithMessage(ErrInvalidState, "image is not owned by this reader")
	}
	if pending {
		return nil, errors.WithMessage(ErrInvalidState, "image is pending, not acquired")
	}
	if err := ctl.SetAttachable(true); err != nil {
		return nil, err
	}
	if err := ctl.Detach(); err != nil {
		return nil, err
	}
	self.lock.Lock()
	delete(self.live, img)
	outstanding := len(self.live)
	self.lock.Unlock()
	self.ii.ImageDetached()
	self.ii.OutstandingChanged(outstanding)
	return ctl, nil
}

func (self *Reader) imageReleased(img *Image) {
	self.lock.Lock()
	_, found := self.live[img]
	if found {
		delete(self.live, img)
	}
	outstanding := len(self.live)
	self.lock.Unlock()
	if found {
		self.ii.ImageReleased()
		self.ii.OutstandingChanged(outstanding)
	}
}
