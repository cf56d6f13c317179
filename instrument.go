package fbuf

import "github.com/pkg/errors"

type Instrument interface {
	NewInstance(id string) InstrumentInstance
}

// InstrumentInstance observes the lifecycle of one pool. Pools invoke these
// hooks synchronously; implementations must not block.
//
type InstrumentInstance interface {
	// image lifecycle
	ImageProduced(ts int64)
	ImageAcquired(ts int64)
	ImageDropped(ts int64)
	ImageReleased()

	// writer path
	ImageDequeued()
	ImageQueued(ts int64)

	// cross-pool transfer
	ImageDetached()
	ImageAttached()

	// failures
	ProduceFailed(err error)
	AcquireFailed(err error)
	DequeueFailed(err error)

	// slot accounting
	OutstandingChanged(outstanding int)

	// instrument lifecycle
	Shutdown()
}

func NewInstrument(name string, config map[string]interface{}) (i Instrument, err error) {
	switch name {
	case "metrics":
		return NewMetricsInstrument(config)
	case "nil", "":
		return NewNilInstrument(), nil
	case "log":
		return NewLogInstrument(config)
	default:
		return nil, errors.Errorf("unknown instrument '%s'", name)
	}
}
