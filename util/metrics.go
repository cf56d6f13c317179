package util

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// MetricsId marks a directory of sample series as belonging to one pool run.
type MetricsId struct {
	Id     string            `json:"id"`
	Values map[string]string `json:"values,omitempty"`
}

func WriteMetricsId(id, outPath string, values map[string]string) error {
	data, err := json.MarshalIndent(&MetricsId{Id: id, Values: values}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outPath, "metrics.id"), data, os.ModePerm)
}

// DiscoverMetrics walks root for metrics.id markers, keyed by the directory
// holding them.
func DiscoverMetrics(root string) (map[string]*MetricsId, error) {
	metricsMap := make(map[string]*MetricsId)
	err := filepath.Walk(root, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() || filepath.Base(path) != "metrics.id" {
			return nil
		}
		mid, err := readMetricsId(path)
		if err != nil {
			return errors.Wrapf(err, "error reading [%s]", path)
		}
		metricsMap[filepath.Dir(path)] = mid
		return nil
	})
	if err != nil {
		return nil, err
	}
	return metricsMap, nil
}

func readMetricsId(path string) (*MetricsId, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	mid := &MetricsId{}
	if err := json.Unmarshal(data, mid); err != nil {
		return nil, err
	}
	return mid, nil
}

type Sample struct {
	Ts time.Time
	V  int64
}

func WriteSamples(name, outPath string, samples []*Sample) error {
	path := filepath.Join(outPath, fmt.Sprintf("%s.csv", name))
	oF, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, os.ModePerm)
	if err != nil {
		return err
	}
	defer func() { _ = oF.Close() }()
	w := bufio.NewWriter(oF)
	for _, sample := range samples {
		if _, err := fmt.Fprintf(w, "%d,%d\n", sample.Ts.UnixNano(), sample.V); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	logrus.Infof("wrote [%d] samples to [%s]", len(samples), path)
	return nil
}

func ReadSamples(path string) (map[int64]int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	data := make(map[int64]int64)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		ts, v, err := parseSample(scanner.Text())
		if err != nil {
			return nil, errors.Wrapf(err, "malformed sample in [%s]", path)
		}
		data[ts] = v
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return data, nil
}

func parseSample(line string) (int64, int64, error) {
	tokens := strings.Split(line, ",")
	if len(tokens) != 2 {
		return 0, 0, errors.Errorf("expected 2 fields, got [%d]", len(tokens))
	}
	ts, err := strconv.ParseInt(tokens[0], 10, 64)
	if err != nil {
		return 0, 0, err
	}
	v, err := strconv.ParseInt(tokens[1], 10, 64)
	if err != nil {
		return 0, 0, err
	}
	return ts, v, nil
}
