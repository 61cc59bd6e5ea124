// Package reportstore persists rendered reports as dated markdown files and
// maintains a browsable index document next to them.
package reportstore

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"tw-stock-tracker/internal/observability/metrics"
)

// maxIndexHistory caps how many past reports the index lists.
const maxIndexHistory = 30

// FileStore writes reports under a directory as YYYY-MM-DD.md files and
// rewrites the index next to that directory after every save. Saving a report
// for a date that already has one overwrites it, so a rerun on the same day
// replaces that day's report.
type FileStore struct {
	dir       string
	indexPath string
}

// NewFileStore creates a store rooted at the given reports directory. The
// index document is written as index.md in the directory's parent.
func NewFileStore(dir string) *FileStore {
	return &FileStore{
		dir:       dir,
		indexPath: filepath.Join(filepath.Dir(dir), "index.md"),
	}
}

// Save writes the rendered report for the given date and rebuilds the index.
// It returns the written report's path.
func (s *FileStore) Save(date time.Time, content string) (string, error) {
	name := date.Format("2006-01-02") + ".md"
	reportPath := filepath.Join(s.dir, name)

	if err := s.save(reportPath, content); err != nil {
		metrics.RecordReportWritten(false)
		return "", err
	}

	metrics.RecordReportWritten(true)
	slog.Info("report written",
		slog.String("path", reportPath),
		slog.Int("bytes", len(content)))

	return reportPath, nil
}

func (s *FileStore) save(reportPath, content string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create reports dir: %w", err)
	}

	if err := os.WriteFile(reportPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if err := s.rebuildIndex(filepath.Base(reportPath)); err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}

	return nil
}

// rebuildIndex rewrites the index document: a link to the latest report
// followed by the most recent reports, newest first. Dated file names sort
// lexically in date order, so a reverse name sort is newest-first.
func (s *FileStore) rebuildIndex(latestName string) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	if len(names) > maxIndexHistory {
		names = names[:maxIndexHistory]
	}

	dirName := filepath.Base(s.dir)
	latestRel := path.Join(dirName, latestName)

	var b strings.Builder
	b.WriteString("# 台股新聞追蹤（財報/營收/法說/EPS）\n")
	b.WriteString("\n")
	fmt.Fprintf(&b, "- 最新報告：[%s](%s)\n", latestRel, latestRel)
	b.WriteString("\n")
	b.WriteString("## 歷史報告\n")
	b.WriteString("\n")
	for _, name := range names {
		rel := path.Join(dirName, name)
		fmt.Fprintf(&b, "- [%s](%s)\n", name, rel)
	}

	text := strings.TrimRight(b.String(), "\n") + "\n"
	return os.WriteFile(s.indexPath, []byte(text), 0o644)
}
