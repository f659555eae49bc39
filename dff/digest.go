package dff

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"github.com/minio/highwayhash"
	"github.com/spf13/afero"
	"io"
	"strings"
)

// Algorithm names the function used to fold chunks into a Digest.
type Algorithm string

const (
	AlgorithmMD5     Algorithm = "md5"
	AlgorithmHighway Algorithm = "highway"
)

var highwayKey []byte

func init() {
	key, err := hex.DecodeString("000102030405060708090A0B0C0D0E0FF0E0D0C0B0A090807060504030201000")
	if err != nil {
		panic(err)
	}
	highwayKey = key
}

type sumFunc func(data []byte) Digest

var algorithms = map[Algorithm]sumFunc{
	AlgorithmMD5: func(data []byte) Digest {
		return md5.Sum(data)
	},
	AlgorithmHighway: func(data []byte) Digest {
		return highwayhash.Sum128(data, highwayKey)
	},
}

func ParseAlgorithm(name string) (Algorithm, error) {
	a := Algorithm(strings.TrimSpace(strings.ToLower(name)))
	if _, ok := algorithms[a]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
	}
	return a, nil
}

// Seed returns the digest of a file with no content.
func Seed(a Algorithm) (Digest, error) {
	sum, ok := algorithms[a]
	if !ok {
		return Digest{}, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, a)
	}
	return sum(nil), nil
}

// Sum computes the chained digest of r, whose length is size.
//
// Every chunk of up to ReadBufSize bytes is folded as H(previous ++ chunk),
// starting from the digest of empty input. When size exceeds
// SampleThreshold, size/SampleRate bytes are skipped after each chunk so
// only evenly spaced samples are read. A non-positive SampleRate disables
// skipping and reads the whole file, while a SampleRate of 1 skips size
// bytes and so reads only the first chunk.
func Sum(r io.ReadSeeker, size int64, opts HashOptions) (Digest, error) {
	sum, ok := algorithms[opts.Algorithm]
	if !ok {
		return Digest{}, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, opts.Algorithm)
	}
	if opts.ReadBufSize < 1 {
		return Digest{}, ErrInvalidReadBufSize
	}

	var skip int64
	if size > opts.SampleThreshold && opts.SampleRate > 0 {
		skip = size / opts.SampleRate
	}

	digest := sum(nil)
	buf := make([]byte, opts.ReadBufSize)
	chain := make([]byte, 0, len(digest)+opts.ReadBufSize)
	for {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			chain = append(chain[:0], digest[:]...)
			chain = append(chain, buf[:n]...)
			digest = sum(chain)
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return digest, nil
		}
		if err != nil {
			return Digest{}, err
		}

		if skip > 0 {
			if _, err := r.Seek(skip, io.SeekCurrent); err != nil {
				return Digest{}, err
			}
		}
	}
}

// HashFile opens path on fs and returns its digest.
func HashFile(fs afero.Fs, path string, opts HashOptions) (Digest, error) {
	file, err := fs.Open(path)
	if err != nil {
		return Digest{}, err
	}
	defer file.Close()

	fi, err := file.Stat()
	if err != nil {
		return Digest{}, err
	}

	return Sum(file, fi.Size(), opts)
}
