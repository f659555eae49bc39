package dff

import (
	"fmt"
	"github.com/facette/natsort"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"sort"
	"strings"
)

type SortOrder int

const (
	SortBySize      SortOrder = iota // first member's size, ascending
	SortByName                       // first member's path, ascending
	SortByTotalSize                  // size of the whole group, descending
	SortByNatural                    // first member's path, natural order
)

func (o SortOrder) String() string {
	switch o {
	case SortBySize:
		return "size"
	case SortByName:
		return "name"
	case SortByTotalSize:
		return "total"
	case SortByNatural:
		return "natural"
	}
	return fmt.Sprintf("SortOrder(%d)", int(o))
}

func ParseSortOrder(sortBy string) (SortOrder, error) {
	switch strings.TrimSpace(strings.ToLower(sortBy)) {
	case "", "size":
		return SortBySize, nil
	case "name", "path", "lexicographic":
		return SortByName, nil
	case "total":
		return SortByTotalSize, nil
	case "natural":
		return SortByNatural, nil
	}
	return SortBySize, fmt.Errorf("%w: %q", ErrUnknownSortOrder, sortBy)
}

func (o SortOrder) needsSize() bool {
	return o == SortBySize || o == SortByTotalSize
}

// Grouper turns a DigestGroupMap into ordered duplicate groups. File sizes
// are looked up at most once per path.
type Grouper struct {
	fs    afero.Fs
	sizes map[string]int64
}

func NewGrouper(fs afero.Fs) *Grouper {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Grouper{
		fs:    fs,
		sizes: make(map[string]int64),
	}
}

// WithSizes seeds the size cache, e.g. with sizes already seen while crawling.
func (g *Grouper) WithSizes(sizes map[string]int64) *Grouper {
	for path, size := range sizes {
		g.sizes[path] = size
	}
	return g
}

// Duplicates groups on the OS filesystem.
func Duplicates(m DigestGroupMap, order SortOrder) []DuplicateGroup {
	return NewGrouper(nil).Duplicates(m, order)
}

// Duplicates drops singleton groups, sorts the paths of each group and
// orders the groups by order.
func (g *Grouper) Duplicates(m DigestGroupMap, order SortOrder) []DuplicateGroup {
	list := make([]DuplicateGroup, 0)
	for digest, paths := range m {
		if len(paths) < 2 {
			continue
		}
		sorted := make([]string, len(paths))
		copy(sorted, paths)
		sort.Strings(sorted)

		list = append(list, DuplicateGroup{
			Digest: digest,
			Paths:  sorted,
			Size:   g.size(sorted[0], order.needsSize()),
		})
	}

	switch order {
	case SortByName:
		sort.Sort(ByName{list})
	case SortByTotalSize:
		sort.Sort(ByTotalSize{list})
	case SortByNatural:
		sort.Sort(ByNatural{list})
	default:
		sort.Sort(BySize{list})
	}
	return list
}

func (g *Grouper) size(path string, lookup bool) int64 {
	if size, ok := g.sizes[path]; ok {
		return size
	}
	if !lookup {
		return 0
	}
	fi, err := g.fs.Stat(path)
	if err != nil {
		log.Debugf("failed to get size of [%s]: %v", path, err)
		g.sizes[path] = 0
		return 0
	}
	g.sizes[path] = fi.Size()
	return fi.Size()
}

type Groups []DuplicateGroup

func (s Groups) Len() int      { return len(s) }
func (s Groups) Swap(i, j int) { s[i], s[j] = s[j], s[i] }

// firstPathLess breaks ties so the order never depends on map iteration.
func (s Groups) firstPathLess(i, j int) bool {
	if s[i].Paths[0] != s[j].Paths[0] {
		return s[i].Paths[0] < s[j].Paths[0]
	}
	return s[i].Digest.String() < s[j].Digest.String()
}

type BySize struct{ Groups }

func (s BySize) Less(i, j int) bool {
	if s.Groups[i].Size != s.Groups[j].Size {
		return s.Groups[i].Size < s.Groups[j].Size
	}
	return s.firstPathLess(i, j)
}

type ByName struct{ Groups }

func (s ByName) Less(i, j int) bool { return s.firstPathLess(i, j) }

type ByTotalSize struct{ Groups }

func (s ByTotalSize) Less(i, j int) bool {
	if s.Groups[i].TotalSize() != s.Groups[j].TotalSize() {
		return s.Groups[i].TotalSize() > s.Groups[j].TotalSize()
	}
	return s.firstPathLess(i, j)
}

type ByNatural struct{ Groups }

func (s ByNatural) Less(i, j int) bool {
	a, b := s.Groups[i].Paths[0], s.Groups[j].Paths[0]
	if a == b {
		return s.firstPathLess(i, j)
	}
	return natsort.Compare(a, b)
}
