package usecase

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"TickPull/pkg/logger"
)

// Merger concatenates a symbol's per-hour CSV artifacts into one file.
// Ordering comes from a plain string sort of the file names, which the
// zero-padded naming scheme makes chronological.
type Merger struct {
	inDir  string
	outDir string
	log    *logger.Logger
}

// NewMerger creates a merger reading from inDir and writing to outDir.
func NewMerger(inDir, outDir string, log *logger.Logger) *Merger {
	return &Merger{inDir: inDir, outDir: outDir, log: log}
}

// MergeSymbol merges all of one symbol's hourly artifacts.
func (m *Merger) MergeSymbol(symbol string) error {
	symbol = strings.ToUpper(symbol)

	pattern := filepath.Join(m.inDir, symbol, "*h_ticks.csv")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return fmt.Errorf("glob %s: %w", pattern, err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no artifacts for %s under %s", symbol, m.inDir)
	}
	sort.Strings(files)

	if err := os.MkdirAll(m.outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	outPath := filepath.Join(m.outDir, symbol+"_ticks.csv")
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	wroteHeader := false
	rows := 0
	for _, path := range files {
		n, err := m.appendFile(w, path, &wroteHeader)
		if err != nil {
			return err
		}
		rows += n
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", outPath, err)
	}

	m.log.Info("merged",
		logger.String("symbol", symbol),
		logger.Int("files", len(files)),
		logger.Int("rows", rows),
		logger.String("out", outPath))
	return nil
}

func (m *Merger) appendFile(w *bufio.Writer, path string, wroteHeader *bool) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows := 0
	sc := bufio.NewScanner(f)
	first := true
	for sc.Scan() {
		line := sc.Text()
		if first {
			first = false
			if !*wroteHeader {
				*wroteHeader = true
			} else {
				continue // skip repeated header
			}
		} else {
			rows++
		}
		if _, err := w.WriteString(line + "\n"); err != nil {
			return rows, fmt.Errorf("write merged row: %w", err)
		}
	}
	if err := sc.Err(); err != nil {
		return rows, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}
