package mirror

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"guidesearch/internal/blobstore"
)

// Failure records one blob that could not be transferred.
type Failure struct {
	Name string
	Err  error
}

// Result reports the outcome of a synchronization run.
type Result struct {
	// Documents is the authoritative local document set: absolute paths of
	// every successfully mirrored file, sorted by name.
	Documents []string
	// Transferred lists blob names downloaded during this run.
	Transferred []string
	// Failed lists blobs whose transfer failed; the rest of the run continues.
	Failed []Failure
	// UpToDate is true when the remote and local name sets already matched
	// and no transfer was attempted.
	UpToDate bool
}

// Synchronizer reconciles the local mirror directory against the remote
// document store. It only ever adds files; removals on the remote side are
// never pruned locally.
type Synchronizer struct {
	client blobstore.Client
	dir    string
}

// New creates a Synchronizer writing into dir.
func New(client blobstore.Client, dir string) *Synchronizer {
	return &Synchronizer{client: client, dir: dir}
}

// Sync lists the remote container and materializes every blob locally.
// When the remote and local name sets are equal no bytes are transferred.
// A failed fetch is recorded in the result and does not abort the run.
func (s *Synchronizer) Sync(ctx context.Context) (*Result, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create mirror dir: %w", err)
	}

	remote, err := s.client.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list remote documents: %w", err)
	}

	local, err := s.localNames()
	if err != nil {
		return nil, fmt.Errorf("list mirror: %w", err)
	}

	// Names, not content hashes, identify a document: an unchanged name set
	// means an unchanged mirror.
	if sameSet(remote, local) {
		return &Result{Documents: s.paths(local), UpToDate: true}, nil
	}

	res := &Result{}
	mirrored := make(map[string]bool, len(local))
	for _, name := range local {
		mirrored[name] = true
	}

	for _, name := range remote {
		data, err := s.client.Download(ctx, name)
		if err != nil {
			res.Failed = append(res.Failed, Failure{Name: name, Err: err})
			continue
		}
		if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
			res.Failed = append(res.Failed, Failure{Name: name, Err: err})
			continue
		}
		res.Transferred = append(res.Transferred, name)
		mirrored[name] = true
	}

	names := make([]string, 0, len(mirrored))
	for name := range mirrored {
		names = append(names, name)
	}
	sort.Strings(names)
	res.Documents = s.paths(names)
	return res, nil
}

// localNames returns the file names currently present in the mirror.
func (s *Synchronizer) localNames() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

func (s *Synchronizer) paths(names []string) []string {
	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(s.dir, name)
	}
	return paths
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, s := range a {
		set[s] = true
	}
	for _, s := range b {
		if !set[s] {
			return false
		}
	}
	return true
}
