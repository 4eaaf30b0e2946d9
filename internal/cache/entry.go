package cache

import "time"

// Entry describes a published companion executable
type Entry struct {
	// BuildID is the content digest the executable is stored under
	BuildID string `json:"build_id" yaml:"build_id"`

	// Backend is the tag of the backend that produced it (e.g. "swiftpm-v1")
	Backend string `json:"backend" yaml:"backend"`

	// Product is the executable's file name
	Product string `json:"product" yaml:"product"`

	// Path is the absolute path of the published executable
	Path string `json:"path" yaml:"path"`

	// Size is the executable's size in bytes
	Size int64 `json:"size" yaml:"size"`

	// SHA256 is the digest of the executable itself
	SHA256 string `json:"sha256" yaml:"sha256"`

	// Package and Version identify the distribution the sources came from
	Package string `json:"package" yaml:"package"`
	Version string `json:"version" yaml:"version"`

	// SourceRoot is the source directory the build read from
	SourceRoot string `json:"source_root" yaml:"source_root"`

	// Files is the number of source files hashed
	Files int `json:"files" yaml:"files"`

	// BuiltAt is when the executable was published
	BuiltAt time.Time `json:"built_at" yaml:"built_at"`

	// Duration is how long the build took
	Duration time.Duration `json:"duration" yaml:"duration"`
}
