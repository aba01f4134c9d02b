package cli

import (
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

// scanProgress renders a per-file progress bar on stderr. It stays
// silent when stderr is not a terminal or when verbose or JSON output
// would collide with it.
type scanProgress struct {
	bar *progressbar.ProgressBar
}

func newScanProgress(totalFiles int, quiet bool) *scanProgress {
	stat, err := os.Stderr.Stat()
	interactive := err == nil && (stat.Mode()&os.ModeCharDevice) != 0
	if quiet || !interactive || totalFiles == 0 {
		return &scanProgress{}
	}

	bar := progressbar.NewOptions(totalFiles,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Scanning"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
	return &scanProgress{bar: bar}
}

func (p *scanProgress) Step() {
	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}

func (p *scanProgress) Done() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
