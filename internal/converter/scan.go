package converter

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/a3tai/es2aa/internal/source"
)

// Scanner lists convertible files under a directory within depth, count and
// time limits. Hidden entries and symlinks are skipped.
type Scanner struct {
	maxDepth  int
	fileLimit int
	timeLimit time.Duration
}

// ScanResult is the outcome of a directory scan
type ScanResult struct {
	Files     []FileInfo
	Scanned   int
	Truncated bool
	Elapsed   time.Duration
}

// NewScanner creates a scanner; zero limits are unlimited
func NewScanner(maxDepth, fileLimit int, timeLimit time.Duration) *Scanner {
	return &Scanner{
		maxDepth:  maxDepth,
		fileLimit: fileLimit,
		timeLimit: timeLimit,
	}
}

// Scan walks root and collects PDF, text, CSV and XLSX files
func (s *Scanner) Scan(ctx context.Context, root string) (*ScanResult, error) {
	start := time.Now()
	result := &ScanResult{}
	visited := make(map[string]bool)

	err := s.walk(ctx, root, 0, start, visited, result)
	result.Elapsed = time.Since(start)
	return result, err
}

func (s *Scanner) walk(ctx context.Context, dir string, depth int, start time.Time,
	visited map[string]bool, result *ScanResult,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.maxDepth > 0 && depth >= s.maxDepth {
		return nil
	}
	if s.timeLimit > 0 && time.Since(start) > s.timeLimit {
		result.Truncated = true
		return nil
	}

	real, err := filepath.EvalSymlinks(dir)
	if err != nil || visited[real] {
		return nil
	}
	visited[real] = true

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		result.Scanned++

		name := entry.Name()
		if strings.HasPrefix(name, ".") || entry.Type()&os.ModeSymlink != 0 {
			continue
		}

		path := filepath.Join(dir, name)
		if entry.IsDir() {
			if err := s.walk(ctx, path, depth+1, start, visited, result); err != nil {
				return err
			}
			if result.Truncated {
				return nil
			}
			continue
		}

		kind, err := source.KindOf(name)
		if err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}

		result.Files = append(result.Files, FileInfo{
			Path:         path,
			Name:         name,
			Kind:         string(kind),
			Size:         info.Size(),
			ModifiedTime: info.ModTime().Format("2006-01-02 15:04:05"),
		})
		if s.fileLimit > 0 && len(result.Files) >= s.fileLimit {
			result.Truncated = true
			return nil
		}
	}

	return nil
}
