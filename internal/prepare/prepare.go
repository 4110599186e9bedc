// Package prepare collects a month's raw export files from the drop folder
// into the layout the importer reads from.
package prepare

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// sources maps each import strategy to the filename fragment its export
// carries in the drop folder.
var sources = []struct {
	strategy string
	fragment string
}{
	{"wx", "微信"},
	{"zfb", "alipay"},
	{"bank", "bank"},
}

// Result reports where each strategy's file ended up; strategies with no
// matching file in the drop folder are absent.
type Result map[string]string

// Collect scans <dropDir>/<month>/ for recognizable export files and copies
// the first match per strategy to <dataDir>/<strategy>/<month>.csv. Missing
// sources are logged and skipped; xlsx exports must be converted to CSV
// by hand first.
func Collect(dropDir, dataDir, month string, log zerolog.Logger) (Result, error) {
	monthDir := filepath.Join(dropDir, month)
	entries, err := os.ReadDir(monthDir)
	if err != nil {
		return nil, fmt.Errorf("read drop folder %s: %w", monthDir, err)
	}

	result := Result{}
	for _, src := range sources {
		name, found := matchEntry(entries, src.fragment)
		if !found {
			log.Warn().Str("strategy", src.strategy).Str("dir", monthDir).
				Msg("no export file for strategy")
			continue
		}
		if strings.EqualFold(filepath.Ext(name), ".xlsx") {
			log.Warn().Str("file", name).
				Msg("xlsx exports are not supported, convert to csv first")
			continue
		}

		target := filepath.Join(dataDir, src.strategy, month+".csv")
		if err := copyFile(filepath.Join(monthDir, name), target); err != nil {
			return nil, err
		}
		log.Info().Str("file", name).Str("target", target).Msg("export file collected")
		result[src.strategy] = target
	}
	return result, nil
}

func matchEntry(entries []os.DirEntry, fragment string) (string, bool) {
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.Contains(e.Name(), fragment) {
			return e.Name(), true
		}
	}
	return "", false
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(dst), err)
	}
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}
