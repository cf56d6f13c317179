package fbuf

import (
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Sink receives frames submitted through a Writer. The plane windows passed
// to Submitted are only valid for the duration of the call; the slot is
// recycled afterwards.
//
type Sink interface {
	Submitted(ts int64, planes []PlaneDesc)
}

// NopSink discards every submission.
type NopSink struct{}

func (self *NopSink) Submitted(_ int64, _ []PlaneDesc) {}

// Writer is a consumer-facing owner pool. It preallocates MaxImages backing
// slots; a holder dequeues an input image, fills its planes, and either
// queues it (submission: auto-stamp, deliver to the sink, recycle) or
// closes it (discard content, recycle). Images detached from another pool
// can be attached here without copying pixel memory.
//
type Writer struct {
	lock       sync.Mutex
	name       string
	format     Format
	width      int
	height     int
	maxImg     int
	sink       Sink
	free       []*writerSlot
	checkedOut map[*Image]*writerEntry
	clock      func() int64
	ii         InstrumentInstance
}

type writerSlot struct {
	descs []PlaneDesc
}

type writerEntry struct {
	ctl  *ImageControl
	slot *writerSlot
	// descs is retained here because the image's planes are unreadable by
	// the time the sink must see them
	descs []PlaneDesc
}

func NewWriter(name string, pf *Profile, sink Sink, ii InstrumentInstance) (*Writer, error) {
	format, err := ParseFormat(pf.Format)
	if err != nil {
		return nil, errors.Wrap(err, "writer format")
	}
	if pf.MaxImages < 1 {
		return nil, errors.WithMessagef(ErrInvalidArgument, "max images [%d] must be positive", pf.MaxImages)
	}
	if sink == nil {
		sink = &NopSink{}
	}
	if ii == nil {
		ii = NewNilInstrument().NewInstance(name)
	}
	w := &Writer{
		name:       name,
		format:     format,
		width:      pf.Width,
		height:     pf.Height,
		maxImg:     pf.MaxImages,
		sink:       sink,
		checkedOut: make(map[*Image]*writerEntry),
		clock:      func() int64 { return time.Now().UnixNano() },
		ii:         ii,
	}
	for i := 0; i < pf.MaxImages; i++ {
		w.free = append(w.free, &writerSlot{descs: allocateSlot(format, pf)})
	}
	return w, nil
}

// allocateSlot reserves backing memory for one image, one window per plane,
// with packed baseline strides.
func allocateSlot(format Format, pf *Profile) []PlaneDesc {
	var descs []PlaneDesc
	for idx := 0; idx < format.PlaneCount(); idx++ {
		if format == JPEG {
			descs = append(descs, PlaneDesc{
				RowStride:   pf.Width,
				PixelStride: 1,
				Memory:      make([]byte, pf.JpegCapacity),
			})
			continue
		}
		rows, cols := planeDims(format, idx, pf.Width, pf.Height)
		sample := format.bytesPerSample()
		rowStride := cols * sample
		descs = append(descs, PlaneDesc{
			RowStride:   rowStride,
			PixelStride: sample,
			Memory:      make([]byte, rowStride*(rows-1)+sample*(cols-1)+sample),
		})
	}
	return descs
}

func (self *Writer) Name() string {
	return self.name
}

// DequeueInput checks out a Live image over a free slot. The image starts
// unstamped; QueueInput stamps it automatically unless the holder does.
func (self *Writer) DequeueInput() (*Image, error) {
	self.lock.Lock()
	defer self.lock.Unlock()

	if len(self.free) == 0 {
		err := errors.WithMessagef(ErrInvalidState, "all [%d] input slots dequeued", self.maxImg)
		self.ii.DequeueFailed(err)
		return nil, err
	}
	slot := self.free[len(self.free)-1]
	img, ctl, err := NewImage(self.format, self.width, self.height, 0, slot.descs)
	if err != nil {
		self.ii.DequeueFailed(err)
		return nil, err
	}
	self.free = self.free[:len(self.free)-1]
	ctl.bind(self)
	ctl.resetStamp()
	self.checkedOut[img] = &writerEntry{ctl: ctl, slot: slot, descs: slot.descs}
	self.ii.ImageDequeued()
	self.ii.OutstandingChanged(len(self.checkedOut))
	return img, nil
}

// QueueInput submits a dequeued or attached image: the timestamp is
// auto-generated when the holder never stamped it, the frame is handed to
// the sink, and the image is released. Queueing is an implicit close; the
// holder must not touch the image afterwards. The backing slot stays
// checked out until the sink returns, so a concurrent dequeue can never
// alias memory mid-delivery.
func (self *Writer) QueueInput(img *Image) error {
	self.lock.Lock()
	entry, found := self.checkedOut[img]
	if found {
		delete(self.checkedOut, img)
	}
	outstanding := len(self.checkedOut)
	self.lock.Unlock()
	if !found {
		return errors.WithMessage(ErrInvalidState, "image is not checked out from this writer")
	}

	ts, err := entry.ctl.Consume(self.clock())
	if err != nil {
		self.recycle(entry.slot)
		self.ii.OutstandingChanged(outstanding)
		return errors.Wrap(err, "consume")
	}

	self.sink.Submitted(ts, entry.descs)
	self.recycle(entry.slot)

	self.ii.ImageQueued(ts)
	self.ii.ImageReleased()
	self.ii.OutstandingChanged(outstanding)
	return nil
}

func (self *Writer) recycle(slot *writerSlot) {
	if slot == nil {
		return
	}
	self.lock.Lock()
	self.free = append(self.free, slot)
	self.lock.Unlock()
}

// AttachInput adopts an image detached from another pool, zero-copy. The
// image must be mid-transfer; anything else fails, so no two pools can
// believe they own the same buffer.
func (self *Writer) AttachInput(ctl *ImageControl) error {
	img := ctl.Image()
	planes, err := img.Planes()
	if err != nil {
		return errors.Wrap(err, "attach")
	}
	if err := ctl.Attach(self); err != nil {
		return err
	}
	var descs []PlaneDesc
	for _, p := range planes {
		descs = append(descs, PlaneDesc{RowStride: p.rowStride, PixelStride: p.pixelStride, Memory: p.memory})
	}
	self.lock.Lock()
	self.checkedOut[img] = &writerEntry{ctl: ctl, descs: descs}
	outstanding := len(self.checkedOut)
	self.lock.Unlock()
	self.ii.ImageAttached()
	self.ii.OutstandingChanged(outstanding)
	return nil
}

// Outstanding counts images currently checked out of this writer.
func (self *Writer) Outstanding() int {
	self.lock.Lock()
	defer self.lock.Unlock()
	return len(self.checkedOut)
}

func (self *Writer) imageReleased(img *Image) {
	self.lock.Lock()
	entry, found := self.checkedOut[img]
	if found {
		delete(self.checkedOut, img)
		if entry.slot != nil {
			self.free = append(self.free, entry.slot)
		}
	}
	outstanding := len(self.checkedOut)
	self.lock.Unlock()
	if found {
		self.ii.ImageReleased()
		self.ii.OutstandingChanged(outstanding)
	}
}
