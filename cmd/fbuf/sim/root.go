package sim

import (
	"github.com/openvisor/fbuf/cmd/fbuf/fbuf"
	"github.com/spf13/cobra"
)

func init() {
	simCmd.Flags().IntVarP(&frames, "frames", "n", 256, "Number of frames to push through the loop")
	simCmd.Flags().IntVarP(&rateMs, "rate", "r", 10, "Frame period (in ms)")
	simCmd.Flags().IntVar(&attachEvery, "attach-every", 8, "Transfer every Nth frame reader->writer without copying (0 disables)")
	simCmd.Flags().BoolVar(&latest, "latest", false, "Acquire the newest pending frame, dropping older ones")
	simCmd.Flags().BoolVarP(&dump, "dump", "d", false, "Dump the processed profile")
	fbuf.RootCmd.AddCommand(simCmd)
}

var simCmd = &cobra.Command{
	Use:   "sim",
	Short: "Run a producer/consumer loop over reader and writer pools",
	Run:   run,
}
var frames int
var rateMs int
var attachEvery int
var latest bool
var dump bool
