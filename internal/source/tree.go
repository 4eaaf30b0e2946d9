// Package source collects the companion's native sources into a Tree, the
// ordered input of both the content digest and the build backends.
package source

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	sidecarerrors "github.com/nucleus-apple/sidecar/internal/errors"
)

// SwiftExt is the extension of the companion's source files
const SwiftExt = ".swift"

// File is one source file, its path relative to the tree root
type File struct {
	// Path is slash-separated and relative to Tree.Root
	Path    string
	Content []byte
}

// Tree is an ordered set of source files rooted at a directory.
// Files are always sorted by Path.
type Tree struct {
	Root  string
	Files []File
}

// Collect reads every file under root with extension ext, plus the named
// manifest files found directly in root. Hidden directories are skipped.
func Collect(root, ext string, manifests ...string) (*Tree, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, sidecarerrors.Wrapf(err, sidecarerrors.KindInvalidSource, "failed to resolve source root %s", root)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, sidecarerrors.Wrap(err, sidecarerrors.KindInvalidSource, "source root not found").WithPath(absRoot)
	}

	if !info.IsDir() {
		return nil, sidecarerrors.New(sidecarerrors.KindInvalidSource, "source root is not a directory").WithPath(absRoot)
	}

	wanted := make(map[string]bool, len(manifests))
	for _, m := range manifests {
		wanted[m] = true
	}

	tree := &Tree{Root: absRoot}

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != absRoot && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}

			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return err
		}

		rel = filepath.ToSlash(rel)
		isManifest := wanted[rel]
		if !isManifest && filepath.Ext(rel) != ext {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		tree.Files = append(tree.Files, File{Path: rel, Content: content})
		return nil
	})
	if err != nil {
		return nil, sidecarerrors.Wrap(err, sidecarerrors.KindInvalidSource, "failed to read sources").WithPath(absRoot)
	}

	if len(tree.Files) == 0 {
		return nil, sidecarerrors.New(sidecarerrors.KindInvalidSource, fmt.Sprintf("no %s sources found", ext)).WithPath(absRoot)
	}

	tree.sort()
	return tree, nil
}

// New builds a tree from in-memory files, sorting them by path
func New(root string, files ...File) *Tree {
	t := &Tree{Root: root, Files: append([]File(nil), files...)}
	t.sort()
	return t
}

// HasManifest reports whether root directly contains the named file
func HasManifest(root, name string) bool {
	info, err := os.Stat(filepath.Join(root, name))
	return err == nil && info.Mode().IsRegular()
}

// Len returns the number of files in the tree
func (t *Tree) Len() int {
	return len(t.Files)
}

// Size returns the total byte size of all file contents
func (t *Tree) Size() int64 {
	var n int64
	for _, f := range t.Files {
		n += int64(len(f.Content))
	}

	return n
}

// SourcePaths returns the absolute paths of files with extension ext, in tree order
func (t *Tree) SourcePaths(ext string) []string {
	var paths []string
	for _, f := range t.Files {
		if filepath.Ext(f.Path) == ext {
			paths = append(paths, filepath.Join(t.Root, filepath.FromSlash(f.Path)))
		}
	}

	return paths
}

func (t *Tree) sort() {
	sort.Slice(t.Files, func(i, j int) bool {
		return t.Files[i].Path < t.Files[j].Path
	})
}
