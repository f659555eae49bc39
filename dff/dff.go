package dff

import (
	"context"
	"fmt"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"time"
)

type Config struct {
	Dirs    []string
	Crawl   CrawlOptions
	Hash    HashOptions
	SortBy  SortOrder
	MinSize int64 // smaller files are never hashed
	Fs      afero.Fs
	// Progress is optional. It is called from the goroutine running Start.
	Progress ProgressFunc
}

func DefaultConfig(dirs ...string) Config {
	return Config{
		Dirs:   dirs,
		Crawl:  DefaultCrawlOptions(),
		Hash:   DefaultHashOptions(),
		SortBy: SortBySize,
	}
}

// DuplicateFileFinder runs crawl, hash and grouping over a set of directories.
type DuplicateFileFinder struct {
	cfg     Config
	crawler *Crawler
	hasher  *Hasher
}

func NewDuplicateFileFinder(cfg Config) (*DuplicateFileFinder, error) {
	if len(cfg.Dirs) < 1 {
		return nil, ErrNoDirectory
	}
	if cfg.MinSize < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMinSize, cfg.MinSize)
	}
	if cfg.SortBy < SortBySize || cfg.SortBy > SortByNatural {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSortOrder, cfg.SortBy)
	}
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}
	hasher, err := NewHasher(cfg.Fs, cfg.Hash)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"dirs":             cfg.Dirs,
		"max_depth":        cfg.Crawl.MaxDepth,
		"follow_symlinks":  cfg.Crawl.FollowSymlinks,
		"read_buf_size":    cfg.Hash.ReadBufSize,
		"sample_threshold": cfg.Hash.SampleThreshold,
		"sample_rate":      cfg.Hash.SampleRate,
		"batch_size":       cfg.Hash.BatchSize,
		"algorithm":        cfg.Hash.Algorithm,
		"min_file_size":    cfg.MinSize,
		"sort_by":          cfg.SortBy,
	}).Info("settings")

	return &DuplicateFileFinder{
		cfg:     cfg,
		crawler: NewCrawler(cfg.Fs, cfg.Crawl),
		hasher:  hasher,
	}, nil
}

// Start crawls every directory, then hashes the candidates and groups them.
// A crawl failure stops the run; files that cannot be hashed end up in
// Result.Errors.
func (d *DuplicateFileFinder) Start(ctx context.Context) (*Result, error) {
	started := time.Now()
	if err := d.checkDirs(); err != nil {
		return nil, err
	}

	var crawled int
	files, err := d.crawler.CrawlAll(ctx, d.cfg.Dirs, func() {
		crawled++
		d.progress(StageCrawl, crawled, 0)
	})
	if err != nil {
		return nil, err
	}
	log.Infof("found %d files", len(files))

	candidates, sizes, statErrors := d.classifyFilesBySize(files)
	log.Debugf("%d of %d files share a size with another file", len(candidates), len(files))

	var hashed int
	groups, hashErrors, err := d.hasher.HashAll(ctx, candidates, func() {
		hashed++
		d.progress(StageHash, hashed, len(candidates))
	})
	if err != nil {
		return nil, err
	}

	result := &Result{
		Groups:      NewGrouper(d.cfg.Fs).WithSizes(sizes).Duplicates(groups, d.cfg.SortBy),
		Errors:      append(statErrors, hashErrors...),
		FileCount:   len(files),
		HashedCount: len(candidates),
		Duration:    time.Since(started),
	}
	log.WithFields(log.Fields{
		"groups":   len(result.Groups),
		"errors":   len(result.Errors),
		"duration": result.Duration,
	}).Info("finished")
	return result, nil
}

func (d *DuplicateFileFinder) progress(stage Stage, done, total int) {
	if d.cfg.Progress != nil {
		d.cfg.Progress(stage, done, total)
	}
}

func (d *DuplicateFileFinder) checkDirs() error {
	for _, dir := range d.cfg.Dirs {
		fi, err := d.cfg.Fs.Stat(dir)
		if err != nil {
			return err
		}
		if !fi.IsDir() {
			return fmt.Errorf("%w: %s", ErrNotDirectory, dir)
		}
	}
	return nil
}

// classifyFilesBySize keeps files of at least MinSize whose size is shared
// with another file. Files of a unique size cannot have a duplicate.
func (d *DuplicateFileFinder) classifyFilesBySize(files []string) ([]string, map[string]int64, []HashError) {
	sizes := make(map[string]int64, len(files))
	countBySize := make(map[int64]int)
	statErrors := make([]HashError, 0)
	for _, path := range files {
		fi, err := d.cfg.Fs.Stat(path)
		if err != nil {
			log.WithFields(log.Fields{
				"path": path,
			}).Warn(err)
			statErrors = append(statErrors, HashError{Path: path, Err: err})
			continue
		}
		if fi.Size() < d.cfg.MinSize {
			continue
		}
		sizes[path] = fi.Size()
		countBySize[fi.Size()]++
	}

	candidates := make([]string, 0, len(sizes))
	for _, path := range files {
		size, ok := sizes[path]
		if !ok || countBySize[size] < 2 {
			continue
		}
		candidates = append(candidates, path)
	}
	return candidates, sizes, statErrors
}
