package report

import (
	"bufio"
	"fmt"
	"github.com/devplayg/dupfinder/dff"
	"github.com/dustin/go-humanize"
	"io"
)

// Text writes one path per line, with a blank line after every group. Files
// that could not be hashed are listed after the groups.
func Text(w io.Writer, result *dff.Result) error {
	bw := bufio.NewWriter(w)
	for i, g := range result.Groups {
		fmt.Fprintf(bw, "no=#%d, unit_size=%s, count=%d, total_size=%s, digest=%s\n",
			i+1, humanize.IBytes(uint64(g.Size)), g.Count(), humanize.IBytes(uint64(g.TotalSize())), g.Digest)
		for _, path := range g.Paths {
			fmt.Fprintf(bw, "    %s\n", path)
		}
		fmt.Fprintln(bw)
	}

	if len(result.Errors) > 0 {
		fmt.Fprintf(bw, "errors=%d\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Fprintf(bw, "    %s: %v\n", e.Path, e.Err)
		}
		fmt.Fprintln(bw)
	}

	fmt.Fprintln(bw, Summary(result))
	return bw.Flush()
}

// Summary is a one-line description of a run.
func Summary(result *dff.Result) string {
	return fmt.Sprintf("files=%d, hashed=%d, groups=%d, duplicates=%d, wasted=%s, errors=%d, time=%.1fs",
		result.FileCount,
		result.HashedCount,
		len(result.Groups),
		result.DuplicateCount(),
		humanize.IBytes(uint64(result.WastedSize())),
		len(result.Errors),
		result.Duration.Seconds(),
	)
}
