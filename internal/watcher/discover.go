package watcher

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/blackwell-systems/assay/internal/artifact"
)

// DefaultMaxFileSize caps what a scan will fingerprint. Anything larger
// is almost certainly a build product, not candidate work.
const DefaultMaxFileSize = 1 << 20

// ignoredDirs are directory names skipped wholesale during a scan.
var ignoredDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"target":       true,
	"__pycache__":  true,
}

// discover walks root and fingerprints every capturable file, keyed by
// slash-separated relative path. Hidden directories, known build output,
// and files over maxSize are skipped.
func discover(root string, maxSize int64) (map[string]FileState, error) {
	files := make(map[string]FileState)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Entries can disappear mid-walk; treat that as a skip.
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}

		name := d.Name()
		if d.IsDir() {
			if path != root && (strings.HasPrefix(name, ".") || ignoredDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if maxSize > 0 && info.Size() > maxSize {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = FileState{
			Checksum: artifact.Checksum(content),
			Size:     info.Size(),
			Language: detectLanguage(name),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// languageByExt maps file extensions to the language recorded on the
// snapshot event.
var languageByExt = map[string]string{
	".go":   "go",
	".js":   "javascript",
	".jsx":  "javascript",
	".ts":   "typescript",
	".tsx":  "typescript",
	".py":   "python",
	".rs":   "rust",
	".rb":   "ruby",
	".java": "java",
	".c":    "c",
	".h":    "c",
	".cpp":  "cpp",
	".sql":  "sql",
	".sh":   "shell",
	".md":   "markdown",
	".json": "json",
	".yaml": "yaml",
	".yml":  "yaml",
}

func detectLanguage(name string) string {
	return languageByExt[strings.ToLower(filepath.Ext(name))]
}
