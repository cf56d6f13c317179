package fbuf

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/openvisor/fbuf/cf"
	"github.com/openvisor/fbuf/util"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type MetricsInstrument struct {
	lock      sync.Mutex
	Config    *MetricsInstrumentConfig
	instances []*metricsInstrumentInstance
}

type MetricsInstrumentConfig struct {
	Path       string `cf:"path"`
	SnapshotMs int    `cf:"snapshot_ms"`
	Enabled    bool   `cf:"enabled"`
}

func NewMetricsInstrument(config map[string]interface{}) (Instrument, error) {
	i := &MetricsInstrument{
		Config: &MetricsInstrumentConfig{
			SnapshotMs: 1000,
			Enabled:    true,
		},
	}
	if err := cf.Load(config, i.Config); err != nil {
		return nil, errors.Wrap(err, "unable to load config")
	}
	logrus.Info(cf.Dump("metrics instrument", i.Config))
	return i, nil
}

func (self *MetricsInstrument) NewInstance(id string) InstrumentInstance {
	self.lock.Lock()
	defer self.lock.Unlock()
	ii := &metricsInstrumentInstance{
		id:     id,
		config: self.Config,
		close:  make(chan struct{}, 1),
	}
	if self.Config.Enabled {
		go ii.snapshotter(self.Config.SnapshotMs)
	}
	self.instances = append(self.instances, ii)
	return ii
}

func (self *MetricsInstrument) WriteAllSamples() error {
	self.lock.Lock()
	defer self.lock.Unlock()

	for _, ii := range self.instances {
		poolName := strings.ReplaceAll(fmt.Sprintf("%s_", ii.id), ":", "-")
		if err := os.MkdirAll(self.Config.Path, os.ModePerm); err != nil {
			return err
		}
		outPath, err := os.MkdirTemp(self.Config.Path, poolName)
		if err != nil {
			return err
		}
		logrus.Infof("writing metrics to: %s", outPath)

		if err := util.WriteMetricsId("fbuf.1", outPath, map[string]string{"pool": ii.id}); err != nil {
			return err
		}
		ii.lock.Lock()
		for name, samples := range ii.series {
			if err := util.WriteSamples(name, outPath, samples); err != nil {
				ii.lock.Unlock()
				return err
			}
		}
		ii.lock.Unlock()
	}
	return nil
}

type metricsInstrumentInstance struct {
	id     string
	config *MetricsInstrumentConfig

	produced    int64
	acquired    int64
	dropped     int64
	released    int64
	dequeued    int64
	queued      int64
	detached    int64
	attached    int64
	errors      int64
	outstanding int64

	lock   sync.Mutex
	series map[string][]*util.Sample
	close  chan struct{}
}

func (self *metricsInstrumentInstance) ImageProduced(_ int64) {
	atomic.AddInt64(&self.produced, 1)
}

func (self *metricsInstrumentInstance) ImageAcquired(_ int64) {
	atomic.AddInt64(&self.acquired, 1)
}

func (self *metricsInstrumentInstance) ImageDropped(_ int64) {
	atomic.AddInt64(&self.dropped, 1)
}

func (self *metricsInstrumentInstance) ImageReleased() {
	atomic.AddInt64(&self.released, 1)
}

func (self *metricsInstrumentInstance) ImageDequeued() {
	atomic.AddInt64(&self.dequeued, 1)
}

func (self *metricsInstrumentInstance) ImageQueued(_ int64) {
	atomic.AddInt64(&self.queued, 1)
}

func (self *metricsInstrumentInstance) ImageDetached() {
	atomic.AddInt64(&self.detached, 1)
}

func (self *metricsInstrumentInstance) ImageAttached() {
	atomic.AddInt64(&self.attached, 1)
}

func (self *metricsInstrumentInstance) ProduceFailed(_ error) {
	atomic.AddInt64(&self.errors, 1)
}

func (self *metricsInstrumentInstance) AcquireFailed(_ error) {
	atomic.AddInt64(&self.errors, 1)
}

func (self *metricsInstrumentInstance) DequeueFailed(_ error) {
	atomic.AddInt64(&self.errors, 1)
}

func (self *metricsInstrumentInstance) OutstandingChanged(outstanding int) {
	atomic.StoreInt64(&self.outstanding, int64(outstanding))
}

func (self *metricsInstrumentInstance) Shutdown() {
	close(self.close)
}

func (self *metricsInstrumentInstance) snapshotter(ms int) {
	logrus.Infof("[%s] started", self.id)
	defer logrus.Warnf("[%s] exited", self.id)

	for {
		select {
		case <-time.After(time.Duration(ms) * time.Millisecond):
			self.snapshot()
		case <-self.close:
			self.snapshot()
			return
		}
	}
}

func (self *metricsInstrumentInstance) snapshot() {
	now := time.Now()
	self.lock.Lock()
	defer self.lock.Unlock()
	if self.series == nil {
		self.series = make(map[string][]*util.Sample)
	}
	add := func(name string, v int64) {
		self.series[name] = append(self.series[name], &util.Sample{Ts: now, V: v})
	}
	add("produced", atomic.LoadInt64(&self.produced))
	add("acquired", atomic.LoadInt64(&self.acquired))
	add("dropped", atomic.LoadInt64(&self.dropped))
	add("released", atomic.LoadInt64(&self.released))
	add("dequeued", atomic.LoadInt64(&self.dequeued))
	add("queued", atomic.LoadInt64(&self.queued))
	add("detached", atomic.LoadInt64(&self.detached))
	add("attached", atomic.LoadInt64(&self.attached))
	add("errors", atomic.LoadInt64(&self.errors))
	add("outstanding", atomic.LoadInt64(&self.outstanding))
}
