package influx

import (
	"fmt"
	"path/filepath"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/openvisor/fbuf/util"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	influxCmd.AddCommand(influxLoadCmd)
}

var influxLoadCmd = &cobra.Command{
	Use:   "load <metricsRoot>",
	Short: "Load pool metrics snapshots into the analyzer",
	Args:  cobra.ExactArgs(1),
	Run:   influxLoad,
}

func influxLoad(_ *cobra.Command, args []string) {
	metricsMap, err := util.DiscoverMetrics(args[0])
	if err != nil {
		logrus.Fatalf("error discovering metrics (%v)", err)
	}

	authToken := ""
	if influxDbUsername != "" || influxDbPassword != "" {
		authToken = fmt.Sprintf("%s:%s", influxDbUsername, influxDbPassword)
	}
	client := influxdb2.NewClient(influxDbUrl, authToken)
	writeApi := client.WriteAPI("", influxDbDatabase)

	for root, mid := range metricsMap {
		pool := mid.Values["pool"]
		for _, dataset := range datasets {
			data, err := util.ReadSamples(filepath.Join(root, dataset+".csv"))
			if err != nil {
				logrus.Fatalf("error reading dataset [%s] (%v)", dataset, err)
			}
			for ts, v := range data {
				p := influxdb2.NewPoint(dataset, nil, map[string]interface{}{"v": v}, time.Unix(0, ts)).AddTag("pool", pool)
				writeApi.WritePoint(p)
			}
			logrus.Infof("wrote %d points for pool [%s] dataset [%s]", len(data), pool, dataset)
		}
	}

	client.Close()
}

var datasets = []string{
	"produced",
	"acquired",
	"dropped",
	"released",
	"dequeued",
	"queued",
	"detached",
	"attached",
	"errors",
	"outstanding",
}
