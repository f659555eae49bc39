package dff

import (
	"errors"
	"github.com/spf13/afero"
	"testing"
)

func digestOf(b byte) Digest {
	var d Digest
	d[0] = b
	return d
}

func firstPaths(groups []DuplicateGroup) []string {
	out := make([]string, 0, len(groups))
	for _, g := range groups {
		out = append(out, g.Paths[0])
	}
	return out
}

func TestDuplicatesDropsSingletonsAndSortsPaths(t *testing.T) {
	m := DigestGroupMap{
		digestOf(1): {"/z", "/a", "/m"},
		digestOf(2): {"/only"},
		digestOf(3): {},
	}
	groups := NewGrouper(afero.NewMemMapFs()).Duplicates(m, SortByName)
	if len(groups) != 1 {
		t.Fatalf("Duplicates() = %v, want one group", groups)
	}
	if want := []string{"/a", "/m", "/z"}; !equalStrings(groups[0].Paths, want) {
		t.Errorf("group paths = %v, want %v", groups[0].Paths, want)
	}
	if groups[0].Digest != digestOf(1) {
		t.Errorf("group digest = %s", groups[0].Digest)
	}
}

func TestDuplicatesOrder(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeMemTree(t, fs, map[string]string{
		"/big/1":    "0123456789",
		"/big/2":    "0123456789",
		"/small/1":  "0",
		"/small/2":  "0",
		"/small/3":  "0",
		"/mid/1":    "01234",
		"/mid/2":    "01234",
		"/file10/x": "abc",
		"/file10/y": "abc",
		"/file9/x":  "ab",
		"/file9/y":  "ab",
	})
	m := DigestGroupMap{
		digestOf(1): {"/big/2", "/big/1"},
		digestOf(2): {"/small/3", "/small/1", "/small/2"},
		digestOf(3): {"/mid/1", "/mid/2"},
		digestOf(4): {"/file10/y", "/file10/x"},
		digestOf(5): {"/file9/x", "/file9/y"},
	}

	tests := []struct {
		order SortOrder
		want  []string
	}{
		{SortBySize, []string{"/small/1", "/file9/x", "/file10/x", "/mid/1", "/big/1"}},
		{SortByName, []string{"/big/1", "/file10/x", "/file9/x", "/mid/1", "/small/1"}},
		{SortByNatural, []string{"/big/1", "/file9/x", "/file10/x", "/mid/1", "/small/1"}},
		{SortByTotalSize, []string{"/big/1", "/mid/1", "/file10/x", "/file9/x", "/small/1"}},
	}
	for _, tt := range tests {
		t.Run(tt.order.String(), func(t *testing.T) {
			groups := NewGrouper(fs).Duplicates(m, tt.order)
			if got := firstPaths(groups); !equalStrings(got, tt.want) {
				t.Errorf("Duplicates(%s) = %v, want %v", tt.order, got, tt.want)
			}
			for _, g := range groups {
				if g.Count() < 2 {
					t.Errorf("group %v has fewer than 2 paths", g.Paths)
				}
			}
		})
	}
}

func TestDuplicatesSizesAreNonDecreasing(t *testing.T) {
	fs := afero.NewMemMapFs()
	m := make(DigestGroupMap)
	sizes := make(map[string]int64)
	for i, size := range []int64{40, 3, 3, 17, 0, 99, 8} {
		a := "/g/" + string(rune('a'+i)) + "1"
		b := "/g/" + string(rune('a'+i)) + "2"
		m[digestOf(byte(i))] = []string{b, a}
		sizes[a] = size
	}

	groups := NewGrouper(fs).WithSizes(sizes).Duplicates(m, SortBySize)
	for i := 1; i < len(groups); i++ {
		if groups[i-1].Size > groups[i].Size {
			t.Fatalf("group %d (size %d) comes before group %d (size %d)",
				i-1, groups[i-1].Size, i, groups[i].Size)
		}
	}
}

func TestDuplicatesUnknownSize(t *testing.T) {
	m := DigestGroupMap{
		digestOf(1): {"/gone/a", "/gone/b"},
	}
	groups := NewGrouper(afero.NewMemMapFs()).Duplicates(m, SortBySize)
	if len(groups) != 1 || groups[0].Size != 0 {
		t.Errorf("Duplicates() = %+v, want one group of size 0", groups)
	}
}

func TestParseSortOrder(t *testing.T) {
	tests := []struct {
		in   string
		want SortOrder
		err  error
	}{
		{"", SortBySize, nil},
		{"size", SortBySize, nil},
		{"Name", SortByName, nil},
		{"lexicographic", SortByName, nil},
		{"path", SortByName, nil},
		{"total", SortByTotalSize, nil},
		{" natural ", SortByNatural, nil},
		{"count", SortBySize, ErrUnknownSortOrder},
	}
	for _, tt := range tests {
		got, err := ParseSortOrder(tt.in)
		if !errors.Is(err, tt.err) {
			t.Errorf("ParseSortOrder(%q) error = %v, want %v", tt.in, err, tt.err)
		}
		if got != tt.want {
			t.Errorf("ParseSortOrder(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
