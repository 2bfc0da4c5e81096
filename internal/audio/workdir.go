package audio

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SweepTemp removes leftover temporary conversion files older than maxAge
// from the work directory. Interrupted ffmpeg runs leave ".normalize_*"
// files behind; a later run cleans them up before starting.
func SweepTemp(dir string, maxAge time.Duration) (removed int) {
	now := time.Now()
	filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if !strings.HasPrefix(filepath.Base(path), ".normalize_") {
			return nil
		}
		if now.Sub(info.ModTime()) > maxAge {
			if os.Remove(path) == nil {
				removed++
			}
		}
		return nil
	})
	return removed
}
