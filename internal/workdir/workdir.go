// Package workdir resolves the directory that holds the local task store,
// supporting redirection via .tdash-root files.
package workdir

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	rootFile = ".tdash-root"
	storeDir = ".tdash"
)

// ResolveBaseDir walks up from dir looking for a .tdash-root file or an
// existing .tdash store. A .tdash-root file holds the path of the directory
// to use instead, relative paths resolving against the file's directory.
// When neither marker is found, dir is returned unchanged.
func ResolveBaseDir(dir string) string {
	start, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}

	for cur := start; ; {
		if target, ok := readRootFile(cur); ok {
			return target
		}
		if fi, err := os.Stat(filepath.Join(cur, storeDir)); err == nil && fi.IsDir() {
			return cur
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return dir
		}
		cur = parent
	}
}

func readRootFile(dir string) (string, bool) {
	content, err := os.ReadFile(filepath.Join(dir, rootFile))
	if err != nil {
		return "", false
	}
	resolved := strings.TrimSpace(string(content))
	if resolved == "" {
		return "", false
	}
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(dir, resolved)
	}
	return filepath.Clean(resolved), true
}
