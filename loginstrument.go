package fbuf

import (
	"github.com/openvisor/fbuf/cf"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"sync"
)

type logInstrument struct {
	config *logInstrumentConfig
}

type logInstrumentConfig struct {
	Lifecycle bool `cf:"lifecycle"`
	Transfer  bool `cf:"transfer"`
	Error     bool `cf:"error"`
}

type logInstrumentInstance struct {
	id   string
	lock sync.Mutex
	i    *logInstrument
}

func NewLogInstrument(config map[string]interface{}) (Instrument, error) {
	i := &logInstrument{
		config: &logInstrumentConfig{
			Lifecycle: true,
			Transfer:  true,
			Error:     true,
		},
	}
	if err := cf.Load(config, i.config); err != nil {
		return nil, errors.Wrap(err, "unable to load config")
	}
	logrus.Info(cf.Dump("log instrument", i.config))
	return i, nil
}

func (self *logInstrument) NewInstance(id string) InstrumentInstance {
	return &logInstrumentInstance{
		id: id,
		i:  self,
	}
}

/*
 * image lifecycle
 */

func (self *logInstrumentInstance) ImageProduced(ts int64) {
	if self.i.config.Lifecycle {
		logrus.Infof("[%s] produced ts [%d]", self.id, ts)
	}
}

func (self *logInstrumentInstance) ImageAcquired(ts int64) {
	if self.i.config.Lifecycle {
		logrus.Infof("[%s] acquired ts [%d]", self.id, ts)
	}
}

func (self *logInstrumentInstance) ImageDropped(ts int64) {
	if self.i.config.Lifecycle {
		logrus.Infof("[%s] dropped ts [%d]", self.id, ts)
	}
}

func (self *logInstrumentInstance) ImageReleased() {
	if self.i.config.Lifecycle {
		logrus.Infof("[%s] released", self.id)
	}
}

/*
 * writer path
 */

func (self *logInstrumentInstance) ImageDequeued() {
	if self.i.config.Lifecycle {
		logrus.Infof("[%s] dequeued", self.id)
	}
}

func (self *logInstrumentInstance) ImageQueued(ts int64) {
	if self.i.config.Lifecycle {
		logrus.Infof("[%s] queued ts [%d]", self.id, ts)
	}
}

/*
 * cross-pool transfer
 */

func (self *logInstrumentInstance) ImageDetached() {
	if self.i.config.Transfer {
		logrus.Infof("[%s] detached", self.id)
	}
}

func (self *logInstrumentInstance) ImageAttached() {
	if self.i.config.Transfer {
		logrus.Infof("[%s] attached", self.id)
	}
}

/*
 * failures
 */

func (self *logInstrumentInstance) ProduceFailed(err error) {
	if self.i.config.Error {
		logrus.Errorf("[%s] produce failed (%v)", self.id, err)
	}
}

func (self *logInstrumentInstance) AcquireFailed(err error) {
	if self.i.config.Error {
		logrus.Errorf("[%s] acquire failed (%v)", self.id, err)
	}
}

func (self *logInstrumentInstance) DequeueFailed(err error) {
	if self.i.config.Error {
		logrus.Errorf("[%s] dequeue failed (%v)", self.id, err)
	}
}

/*
 * slot accounting
 */

func (self *logInstrumentInstance) OutstandingChanged(outstanding int) {
	if self.i.config.Lifecycle {
		logrus.Infof("[%s] outstanding [%d]", self.id, outstanding)
	}
}

func (self *logInstrumentInstance) Shutdown() {
	self.lock.Lock()
	defer self.lock.Unlock()
	logrus.Infof("[%s] shutdown", self.id)
}
