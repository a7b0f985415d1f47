package report

import (
	"os"
	"sync"
)

// Artifact is an exclusively owned report file on disk. Release removes the
// underlying file and is safe to call more than once; only the first call
// performs the removal.
type Artifact struct {
	path    string
	once    sync.Once
	cleanup func(path string) error
}

// NewArtifact wraps a file path in an artifact handle that deletes the file
// on release.
func NewArtifact(path string) *Artifact {
	return &Artifact{path: path, cleanup: os.Remove}
}

// NewArtifactFunc wraps a file path with a custom cleanup, used by tests.
func NewArtifactFunc(path string, cleanup func(path string) error) *Artifact {
	if cleanup == nil {
		cleanup = os.Remove
	}
	return &Artifact{path: path, cleanup: cleanup}
}

// Path returns the location of the rendered file.
func (a *Artifact) Path() string {
	return a.path
}

// Release removes the rendered file exactly once.
func (a *Artifact) Release() error {
	var err error
	a.once.Do(func() {
		err = a.cleanup(a.path)
	})
	return err
}
