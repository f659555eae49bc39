package dff

import (
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// Errors
var (
	ErrInvalidBatchSize       = errors.New("batch size must be greater than zero")
	ErrInvalidReadBufSize     = errors.New("read buffer size must be greater than zero")
	ErrInvalidSampleThreshold = errors.New("sample threshold must not be negative")
	ErrInvalidMinSize         = errors.New("minimum file size must not be negative")
	ErrUnknownAlgorithm       = errors.New("unknown digest algorithm")
	ErrUnknownSortOrder       = errors.New("unknown sort order")
	ErrNoDirectory            = errors.New("no directory to search")
	ErrNotDirectory           = errors.New("not a directory")
)

// Unlimited disables the crawl depth limit.
const Unlimited = -1

// Digest is the 16-byte fingerprint of a file's (sampled or full) content.
type Digest [16]byte

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// DigestGroupMap indexes file paths by digest.
type DigestGroupMap map[Digest][]string

// DuplicateGroup is a set of two or more files sharing a digest.
type DuplicateGroup struct {
	Digest Digest
	Paths  []string
	Size   int64 // size of the first member
}

func (g DuplicateGroup) Count() int {
	return len(g.Paths)
}

func (g DuplicateGroup) TotalSize() int64 {
	return g.Size * int64(len(g.Paths))
}

// HashError records a file that could not be hashed.
type HashError struct {
	Path string
	Err  error
}

func (e HashError) Error() string {
	return fmt.Sprintf("hash %s: %v", e.Path, e.Err)
}

func (e HashError) Unwrap() error {
	return e.Err
}

// CrawlError is a fatal crawl failure on a single path.
type CrawlError struct {
	Path string
	Err  error
}

func (e *CrawlError) Error() string {
	return fmt.Sprintf("crawl %s: %v", e.Path, e.Err)
}

func (e *CrawlError) Unwrap() error {
	return e.Err
}

type CrawlOptions struct {
	MaxDepth       int // negative is unlimited
	FollowSymlinks bool
}

func DefaultCrawlOptions() CrawlOptions {
	return CrawlOptions{
		MaxDepth: Unlimited,
	}
}

type HashOptions struct {
	ReadBufSize     int   // bytes read per chunk
	SampleThreshold int64 // files larger than this are sampled
	SampleRate      int64 // number of samples across a sampled file
	BatchSize       int   // files hashed concurrently
	Algorithm       Algorithm
}

func DefaultHashOptions() HashOptions {
	return HashOptions{
		ReadBufSize:     64 * 1024,
		SampleThreshold: 64 * 1024 * 1024,
		SampleRate:      64,
		BatchSize:       64,
		Algorithm:       AlgorithmMD5,
	}
}

func (o HashOptions) Validate() error {
	if o.BatchSize < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidBatchSize, o.BatchSize)
	}
	if o.ReadBufSize < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidReadBufSize, o.ReadBufSize)
	}
	if o.SampleThreshold < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSampleThreshold, o.SampleThreshold)
	}
	if _, ok := algorithms[o.Algorithm]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAlgorithm, o.Algorithm)
	}
	return nil
}

// Stage identifies the pipeline step reporting progress.
type Stage int

const (
	StageCrawl Stage = iota
	StageHash
)

func (s Stage) String() string {
	switch s {
	case StageCrawl:
		return "crawl"
	case StageHash:
		return "hash"
	}
	return "unknown"
}

// ProgressFunc receives progress ticks. total is 0 while crawling.
type ProgressFunc func(stage Stage, done, total int)

type Result struct {
	Groups      []DuplicateGroup
	Errors      []HashError
	FileCount   int // files found by the crawler
	HashedCount int // files handed to the hasher
	Duration    time.Duration
}

// WastedSize is the number of bytes held by redundant copies.
func (r *Result) WastedSize() int64 {
	var wasted int64
	for _, g := range r.Groups {
		wasted += g.TotalSize() - g.Size
	}
	return wasted
}

func (r *Result) DuplicateCount() int {
	var n int
	for _, g := range r.Groups {
		n += g.Count()
	}
	return n
}
