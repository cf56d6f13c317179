package fbuf

type nilInstrument struct{}

func NewNilInstrument() Instrument {
	return &nilInstrument{}
}

func (self *nilInstrument) NewInstance(_ string) InstrumentInstance {
	return &nilInstrumentInstance{}
}

type nilInstrumentInstance struct{}

func (self *nilInstrumentInstance) ImageProduced(_ int64) {}

func (self *nilInstrumentInstance) ImageAcquired(_ int64) {}

func (self *nilInstrumentInstance) ImageDropped(_ int64) {}

func (self *nilInstrumentInstance) ImageReleased() {}

func (self *nilInstrumentInstance) ImageDequeued() {}

func (self *nilInstrumentInstance) ImageQueued(_ int64) {}

func (self *nilInstrumentInstance) ImageDetached() {}

func (self *nilInstrumentInstance) ImageAttached() {}

func (self *nilInstrumentInstance) ProduceFailed(_ error) {}

func (self *nilInstrumentInstance) AcquireFailed(_ error) {}

func (self *nilInstrumentInstance) DequeueFailed(_ error) {}

func (self *nilInstrumentInstance) OutstandingChanged(_ int) {}

func (self *nilInstrumentInstance) Shutdown() {}
