package sim

import (
	"image"
	"os"
	"time"

	"github.com/openvisor/fbuf"
	"github.com/openvisor/fbuf/cf"
	root "github.com/openvisor/fbuf/cmd/fbuf/fbuf"
	"github.com/openvisor/fbuf/util"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func run(_ *cobra.Command, _ []string) {
	pf, i, err := configure()
	if err != nil {
		logrus.Fatalf("error loading config (%v)", err)
	}
	if dump {
		logrus.Info(pf.Dump())
	}

	sink := &countingSink{}
	reader, err := fbuf.NewReader("reader", pf, i.NewInstance("reader"))
	if err != nil {
		logrus.Fatalf("error creating reader (%v)", err)
	}
	writer, err := fbuf.NewWriter("writer", pf, sink, i.NewInstance("writer"))
	if err != nil {
		logrus.Fatalf("error creating writer (%v)", err)
	}

	format, err := fbuf.ParseFormat(pf.Format)
	if err != nil {
		logrus.Fatalf("error parsing format (%v)", err)
	}

	done := make(chan struct{})
	go produce(reader, format, pf, done)
	consume(reader, writer, done)

	logrus.Infof("loop complete: [%d] frames submitted downstream", sink.count)

	if mi, ok := i.(*fbuf.MetricsInstrument); ok {
		if err := mi.WriteAllSamples(); err != nil {
			logrus.Errorf("error writing samples (%v)", err)
		}
	}
}

func configure() (*fbuf.Profile, fbuf.Instrument, error) {
	pf := fbuf.NewBaselineProfile()
	if root.ConfigPath == "" {
		return pf, fbuf.NewNilInstrument(), nil
	}

	data, err := os.ReadFile(root.ConfigPath)
	if err != nil {
		return nil, nil, errors.Wrap(err, "read config")
	}
	cfg := make(map[string]interface{})
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, nil, errors.Wrap(err, "parse config")
	}
	if err := pf.Load(cfg); err != nil {
		return nil, nil, err
	}

	iSection, err := cf.Section(cfg, "instrument")
	if err != nil {
		return nil, nil, err
	}
	iName, _ := iSection["name"].(string)
	i, err := fbuf.NewInstrument(iName, iSection)
	if err != nil {
		return nil, nil, err
	}
	return pf, i, nil
}

// produce plays the hardware side: it delivers synthetic frames into the
// reader pool at the configured rate, backing off while all slots are
// outstanding.
func produce(reader *fbuf.Reader, format fbuf.Format, pf *fbuf.Profile, done chan struct{}) {
	defer close(done)

	seq := util.NewSequence(1)
	period := time.Duration(rateMs) * time.Millisecond
	for n := 0; n < frames; {
		ts := seq.Next() * period.Nanoseconds()
		if err := reader.Produce(ts, synthesize(format, pf, byte(n))); err != nil {
			if errors.Is(err, fbuf.ErrInvalidState) {
				time.Sleep(period)
				continue
			}
			logrus.Fatalf("error producing frame (%v)", err)
		}
		n++
		time.Sleep(period)
	}
}

// synthesize allocates plane windows for one frame, standing in for
// hardware-mapped memory.
func synthesize(format fbuf.Format, pf *fbuf.Profile, fill byte) []fbuf.PlaneDesc {
	var descs []fbuf.PlaneDesc
	switch format {
	case fbuf.YUV420:
		descs = append(descs, plane(pf.Width, pf.Height, fill))
		descs = append(descs, plane((pf.Width+1)/2, (pf.Height+1)/2, fill))
		descs = append(descs, plane((pf.Width+1)/2, (pf.Height+1)/2, fill))
	case fbuf.RAW16:
		memory := make([]byte, pf.Width*pf.Height*2)
		descs = append(descs, fbuf.PlaneDesc{RowStride: pf.Width * 2, PixelStride: 2, Memory: memory})
	case fbuf.JPEG:
		memory := make([]byte, pf.JpegCapacity)
		descs = append(descs, fbuf.PlaneDesc{RowStride: pf.Width, PixelStride: 1, Memory: memory})
	}
	return descs
}

func plane(cols, rows int, fill byte) fbuf.PlaneDesc {
	memory := make([]byte, cols*rows)
	for i := range memory {
		memory[i] = fill
	}
	return fbuf.PlaneDesc{RowStride: cols, PixelStride: 1, Memory: memory}
}

// consume plays the application side: it checks frames out of the reader,
// narrows the crop, and forwards them downstream through the writer. Every
// attach-every'th frame migrates reader->writer zero-copy; the rest are
// copied into a dequeued input slot.
func consume(reader *fbuf.Reader, writer *fbuf.Writer, done chan struct{}) {
	for n := 0; ; n++ {
		img, err := acquire(reader, done)
		if err != nil {
			logrus.Fatalf("error acquiring frame (%v)", err)
		}
		if img == nil {
			return
		}

		crop := image.Rect(16, 16, 1<<20, 1<<20)
		if err := img.SetCropRect(&crop); err != nil {
			logrus.Fatalf("error setting crop (%v)", err)
		}

		if attachEvery > 0 && n%attachEvery == attachEvery-1 {
			ctl, err := reader.Detach(img)
			if err != nil {
				logrus.Fatalf("error detaching (%v)", err)
			}
			if err := writer.AttachInput(ctl); err != nil {
				logrus.Fatalf("error attaching (%v)", err)
			}
			if err := writer.QueueInput(img); err != nil {
				logrus.Fatalf("error queueing attached frame (%v)", err)
			}
			continue
		}

		if err := forward(img, writer); err != nil {
			logrus.Fatalf("error forwarding frame (%v)", err)
		}
		if err := img.Close(); err != nil {
			logrus.Fatalf("error closing frame (%v)", err)
		}
	}
}

// acquire retries while the pool is empty; a nil image means the producer
// is finished and the pool drained.
func acquire(reader *fbuf.Reader, done chan struct{}) (*fbuf.Image, error) {
	for {
		var img *fbuf.Image
		var err error
		if latest {
			img, err = reader.AcquireLatest()
		} else {
			img, err = reader.AcquireNext()
		}
		if err == nil {
			return img, nil
		}
		if !errors.Is(err, fbuf.ErrInvalidState) {
			return nil, err
		}
		select {
		case <-done:
			// one last look; the final frame may have landed after the
			// failed attempt above
			if img, err = reader.AcquireNext(); err == nil {
				return img, nil
			}
			return nil, nil
		default:
			time.Sleep(time.Millisecond)
		}
	}
}

func forward(img *fbuf.Image, writer *fbuf.Writer) error {
	in, err := dequeue(writer)
	if err != nil {
		return err
	}

	srcPlanes, err := img.Planes()
	if err != nil {
		return err
	}
	dstPlanes, err := in.Planes()
	if err != nil {
		return err
	}
	for idx := range srcPlanes {
		src, err := srcPlanes[idx].Memory()
		if err != nil {
			return err
		}
		dst, err := dstPlanes[idx].Memory()
		if err != nil {
			return err
		}
		copy(dst, src)
	}

	ts, err := img.Timestamp()
	if err != nil {
		return err
	}
	if err := in.SetTimestamp(ts); err != nil {
		return err
	}
	return writer.QueueInput(in)
}

func dequeue(writer *fbuf.Writer) (*fbuf.Image, error) {
	for {
		in, err := writer.DequeueInput()
		if err == nil {
			return in, nil
		}
		if !errors.Is(err, fbuf.ErrInvalidState) {
			return nil, err
		}
		time.Sleep(time.Millisecond)
	}
}

type countingSink struct {
	count int
}

func (self *countingSink) Submitted(ts int64, planes []fbuf.PlaneDesc) {
	self.count++
	logrus.Debugf("submitted ts [%d] with [%d] planes", ts, len(planes))
}
