package dff

import (
	"context"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
	"os"
	"path/filepath"
	"sync"
)

// maxConcurrentRoots bounds how many roots CrawlAll walks at once.
const maxConcurrentRoots = 4

// Crawler enumerates regular files under a directory tree.
type Crawler struct {
	fs   afero.Fs
	opts CrawlOptions
}

func NewCrawler(fs afero.Fs, opts CrawlOptions) *Crawler {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Crawler{
		fs:   fs,
		opts: opts,
	}
}

// Crawl walks root on the OS filesystem.
func Crawl(root string, opts CrawlOptions, tick func()) ([]string, error) {
	return NewCrawler(nil, opts).Crawl(context.Background(), root, tick)
}

type pendingDir struct {
	path  string
	depth int // remaining levels, negative is unlimited
}

// Crawl returns the paths of all regular files reachable from root. tick is
// called once per file found. A directory that cannot be listed or an entry
// that cannot be stat'ed aborts the crawl with a *CrawlError.
func (c *Crawler) Crawl(ctx context.Context, root string, tick func()) ([]string, error) {
	log.Debugf("searching files in [%s]", root)
	files := make([]string, 0)
	if c.opts.MaxDepth == 0 {
		return files, nil
	}

	var visited map[dirID]struct{}
	if c.opts.FollowSymlinks {
		visited = make(map[dirID]struct{})
	}

	stack := []pendingDir{{path: root, depth: c.opts.MaxDepth}}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited != nil {
			id, err := c.identify(dir.path)
			if err != nil {
				return nil, &CrawlError{Path: dir.path, Err: err}
			}
			if _, ok := visited[id]; ok {
				log.Debugf("already visited [%s], skipping", dir.path)
				continue
			}
			visited[id] = struct{}{}
		}

		entries, err := afero.ReadDir(c.fs, dir.path)
		if err != nil {
			return nil, &CrawlError{Path: dir.path, Err: err}
		}

		for _, fi := range entries {
			path := filepath.Join(dir.path, fi.Name())

			if fi.Mode()&os.ModeSymlink != 0 {
				if !c.opts.FollowSymlinks {
					continue
				}
				fi, err = c.fs.Stat(path)
				if err != nil {
					return nil, &CrawlError{Path: path, Err: err}
				}
			}

			switch {
			case fi.IsDir():
				next := dir.depth
				if next > 0 {
					next--
				}
				if next == 0 {
					// Skip this subtree only; siblings are still listed.
					continue
				}
				stack = append(stack, pendingDir{path: path, depth: next})
			case fi.Mode().IsRegular():
				files = append(files, path)
				if tick != nil {
					tick()
				}
			}
		}
	}

	log.Debugf("finished searching files in [%s]: %d files", root, len(files))
	return files, nil
}

// dirID identifies a directory by device and inode when the filesystem
// reports them, so a directory reached through a symlink matches itself.
// Otherwise the cleaned path is used.
type dirID struct {
	dev, ino uint64
	path     string
}

func (c *Crawler) identify(path string) (dirID, error) {
	fi, err := c.fs.Stat(path)
	if err != nil {
		return dirID{}, err
	}
	if dev, ino, ok := fileIdentity(fi); ok {
		return dirID{dev: dev, ino: ino}, nil
	}
	return dirID{path: filepath.Clean(path)}, nil
}

// CrawlAll crawls several roots concurrently and merges their files. A path
// reachable from more than one root is returned once.
func (c *Crawler) CrawlAll(ctx context.Context, roots []string, tick func()) ([]string, error) {
	var mu sync.Mutex
	safeTick := func() {
		if tick == nil {
			return
		}
		mu.Lock()
		tick()
		mu.Unlock()
	}

	found := make([][]string, len(roots))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentRoots)
	for i, root := range roots {
		i, root := i, root
		g.Go(func() error {
			files, err := c.Crawl(ctx, root, safeTick)
			if err != nil {
				return err
			}
			found[i] = files
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	files := make([]string, 0)
	for _, list := range found {
		for _, path := range list {
			if _, ok := seen[path]; ok {
				continue
			}
			seen[path] = struct{}{}
			files = append(files, path)
		}
	}
	return files, nil
}
