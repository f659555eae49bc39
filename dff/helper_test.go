package dff

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

func init() {
	log.SetOutput(io.Discard)
}

// alphaTree mirrors the reference fixture: a and c are unique, the b and d
// copies are identical.
var alphaTree = map[string]string{
	"alpha/a":               "alpha a is unique\n",
	"alpha/b":               "b\n",
	"alpha/bravo/d":         "the d files are longer than the b files\n",
	"alpha/bravo/charlie/b": "b\n",
	"alpha/bravo/charlie/c": "charlie c is unique too\n",
	"alpha/bravo/charlie/d": "the d files are longer than the b files\n",
}

func writeTree(t *testing.T, root string, tree map[string]string) {
	t.Helper()
	for name, content := range tree {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
}

func writeMemTree(t *testing.T, fs afero.Fs, tree map[string]string) {
	t.Helper()
	for name, content := range tree {
		if err := fs.MkdirAll(filepath.Dir(name), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", filepath.Dir(name), err)
		}
		if err := afero.WriteFile(fs, name, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func symlinkOrSkip(t *testing.T, oldname, newname string) {
	t.Helper()
	if err := os.Symlink(oldname, newname); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
}

// relPaths makes paths relative to root, slash separated and sorted.
func relPaths(t *testing.T, root string, paths []string) []string {
	t.Helper()
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		rel, err := filepath.Rel(root, p)
		if err != nil {
			t.Fatalf("rel %s: %v", p, err)
		}
		out = append(out, filepath.ToSlash(rel))
	}
	sort.Strings(out)
	return out
}

func equalStrings(a, b []string) bool {
	return strings.Join(a, "\n") == strings.Join(b, "\n") && len(a) == len(b)
}
