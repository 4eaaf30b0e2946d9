package compiler

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	sidecarerrors "github.com/nucleus-apple/sidecar/internal/errors"
)

type candidate struct {
	path    string
	release bool
	depth   int
}

// Locate finds the built executable name under root.
// Candidates are executable regular files with that name; a path with a
// "release" component wins, then the shallowest, then the lexicographically
// smallest.
func Locate(root, name string) (string, error) {
	var found []candidate

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip unreadable entries
		}

		if d.IsDir() || d.Name() != name || !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil || info.Mode().Perm()&0o111 == 0 {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}

		parts := strings.Split(filepath.ToSlash(rel), "/")
		c := candidate{path: path, depth: len(parts)}
		for _, p := range parts[:len(parts)-1] {
			if p == "release" {
				c.release = true
				break
			}
		}

		found = append(found, c)
		return nil
	})
	if err != nil || len(found) == 0 {
		return "", sidecarerrors.ArtifactMissing(name, root)
	}

	sort.Slice(found, func(i, j int) bool {
		a, b := found[i], found[j]
		if a.release != b.release {
			return a.release
		}

		if a.depth != b.depth {
			return a.depth < b.depth
		}

		return a.path < b.path
	})

	return found[0].path, nil
}
