package audit

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// TimestampLayout is the timestamp embedded in audit file names.
	TimestampLayout = "2006-01-02_15-04-05"

	logSuffix = ".log"
	datSuffix = ".dat"
)

// FileName returns the audit file name for input started at t:
// data.dat -> data_2024-01-05_13-04-59.log.
func FileName(input string, t time.Time) string {
	return stem(input) + "_" + t.Format(TimestampLayout) + logSuffix
}

func stem(input string) string {
	return strings.TrimSuffix(filepath.Base(input), datSuffix)
}

// Prune removes audit files of input in dir that are older than
// retainDays relative to now. retainDays <= 0 keeps everything. Files whose
// name does not parse are left alone. Returns the removed paths.
func Prune(dir, input string, retainDays int, now time.Time) ([]string, error) {
	if retainDays <= 0 {
		return nil, nil
	}
	cutoff := now.AddDate(0, 0, -retainDays)
	prefix := stem(input) + "_"

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var removed []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, logSuffix) {
			continue
		}

		// Parse timestamp from filename: data_2024-01-05_13-04-59.log
		stamp := strings.TrimPrefix(strings.TrimSuffix(name, logSuffix), prefix)
		logTime, err := time.ParseInLocation(TimestampLayout, stamp, now.Location())
		if err != nil {
			continue
		}

		if logTime.Before(cutoff) {
			path := filepath.Join(dir, name)
			if err := os.Remove(path); err != nil {
				return removed, err
			}
			removed = append(removed, path)
		}
	}
	return removed, nil
}
