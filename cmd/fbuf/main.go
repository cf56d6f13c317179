package main

import (
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/michaelquigley/pfxlog"
	"github.com/openvisor/fbuf/cmd/fbuf/fbuf"
	_ "github.com/openvisor/fbuf/cmd/fbuf/influx"
	_ "github.com/openvisor/fbuf/cmd/fbuf/sim"
	"github.com/sirupsen/logrus"
)

func init() {
	pfxlog.GlobalInit(logrus.InfoLevel, pfxlog.DefaultOptions().SetTrimPrefix("github.com/openvisor/"))
}

func main() {
	defer logrus.Debugf("finished")

	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGQUIT)
		buf := make([]byte, 1<<20)
		for {
			<-sigs
			stacklen := runtime.Stack(buf, true)
			log.Printf("=== received SIGQUIT ===\n*** goroutine dump...\n%s\n*** end\n", buf[:stacklen])
		}
	}()

	if err := fbuf.RootCmd.Execute(); err != nil {
		logrus.Fatalf("error (%v)", err)
	}
}
