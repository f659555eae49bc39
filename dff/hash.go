package dff

import (
	"context"
	log "github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/afero"
	"sort"
)

// Hasher computes digests for many files, at most BatchSize at a time.
type Hasher struct {
	fs   afero.Fs
	opts HashOptions
}

func NewHasher(fs afero.Fs, opts HashOptions) (*Hasher, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Hasher{
		fs:   fs,
		opts: opts,
	}, nil
}

// HashAll hashes paths on the OS filesystem.
func HashAll(ctx context.Context, paths []string, opts HashOptions, tick func()) (DigestGroupMap, []HashError, error) {
	h, err := NewHasher(nil, opts)
	if err != nil {
		return nil, nil, err
	}
	return h.HashAll(ctx, paths, tick)
}

type fileHash struct {
	path   string
	digest Digest
	err    error
}

// HashAll groups paths by digest. Files that cannot be hashed are returned
// as HashErrors and left out of the map; they never stop the run. tick is
// called once per path, after the batch holding it completes. The returned
// error is non-nil only when ctx is done, which is checked between batches.
func (h *Hasher) HashAll(ctx context.Context, paths []string, tick func()) (DigestGroupMap, []HashError, error) {
	groups := make(DigestGroupMap)
	hashErrors := make([]HashError, 0)

	for start := 0; start < len(paths); start += h.opts.BatchSize {
		if err := ctx.Err(); err != nil {
			sortGroupPaths(groups)
			return groups, hashErrors, err
		}

		end := start + h.opts.BatchSize
		if end > len(paths) {
			end = len(paths)
		}

		for _, res := range h.hashBatch(paths[start:end]) {
			if res.err != nil {
				log.WithFields(log.Fields{
					"path": res.path,
				}).Warn(res.err)
				hashErrors = append(hashErrors, HashError{Path: res.path, Err: res.err})
			} else {
				groups[res.digest] = append(groups[res.digest], res.path)
			}
			if tick != nil {
				tick()
			}
		}
		log.Debugf("hashed %d/%d files", end, len(paths))
	}

	sortGroupPaths(groups)
	return groups, hashErrors, nil
}

// hashBatch hashes every path concurrently and waits for all of them.
func (h *Hasher) hashBatch(batch []string) []fileHash {
	p := pool.NewWithResults[fileHash]().WithMaxGoroutines(len(batch))
	for _, path := range batch {
		path := path
		p.Go(func() fileHash {
			digest, err := HashFile(h.fs, path, h.opts)
			return fileHash{
				path:   path,
				digest: digest,
				err:    err,
			}
		})
	}
	return p.Wait()
}

func sortGroupPaths(groups DigestGroupMap) {
	for _, paths := range groups {
		sort.Strings(paths)
	}
}
