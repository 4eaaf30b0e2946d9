package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"sort"

	"github.com/nucleus-apple/sidecar/internal/source"
)

// IDLength is the number of hex characters kept from the digest (a 64-bit prefix)
const IDLength = 16

// Params are the build parameters that, together with the sources, identify a build
type Params struct {
	// Package is the identity of the distribution embedding the sources
	Package string
	// Version is the version of that distribution
	Version string
	// Backend tags the backend/algorithm so backends never share entries
	Backend string
}

// BuildID creates a deterministic identifier for a source tree and its build parameters
// The hash is based on:
// - Package identity and version
// - Backend tag
// - Every file path and its content, in lexicographic path order
func BuildID(tree *source.Tree, p Params) string {
	h := sha256.New()

	io.WriteString(h, "pkg="+p.Package+"@"+p.Version+"\n")
	io.WriteString(h, "algo="+p.Backend+"\n")

	files := append([]source.File(nil), tree.Files...)
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	for _, f := range files {
		io.WriteString(h, "path="+f.Path+"\n")
		h.Write(f.Content)
		h.Write([]byte{'\n'})
	}

	return hex.EncodeToString(h.Sum(nil))[:IDLength]
}

// HashFile creates a hash of a file's content
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
