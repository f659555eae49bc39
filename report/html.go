package report

import (
	"fmt"
	"github.com/devplayg/dupfinder/dff"
	"github.com/dustin/go-humanize"
	"html"
	"io"
	"net/url"
	"path/filepath"
	"strings"
)

// HTML writes a standalone page listing every duplicate group.
func HTML(w io.Writer, result *dff.Result, title string) error {
	_, err := io.WriteString(w, wrapHtml(title, getContent(result), Summary(result)))
	return err
}

func getContent(result *dff.Result) string {
	var sb strings.Builder
	for i, g := range result.Groups {
		fmt.Fprintf(&sb, "<h3>#%d <small>%s &times; %d = %s</small></h3>",
			i+1, humanize.IBytes(uint64(g.Size)), g.Count(), humanize.IBytes(uint64(g.TotalSize())))
		sb.WriteString("<ul>")
		for _, path := range g.Paths {
			fmt.Fprintf(&sb, "<li><a href='%s'>%s</a></li>", fileURL(path), html.EscapeString(path))
		}
		fmt.Fprintf(&sb, "</ul><div class='digest'>%s</div>", g.Digest)
	}

	if len(result.Errors) > 0 {
		sb.WriteString("<h3>Errors</h3><ul class='errors'>")
		for _, e := range result.Errors {
			fmt.Fprintf(&sb, "<li>%s: %s</li>", html.EscapeString(e.Path), html.EscapeString(e.Err.Error()))
		}
		sb.WriteString("</ul>")
	}
	return sb.String()
}

func fileURL(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return html.EscapeString(u.String())
}

func wrapHtml(title, content, summary string) string {
	title = html.EscapeString(title)
	return `<!DOCTYPE html><html lang="en-US"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">
<title>` + title + `</title>
<style>
body {color: #555555; font-family: sans-serif}
a:link{color:#0366d6; text-decoration:none}
a:visited{color:#0366d6;}
a:hover{color: #0366d6; text-decoration:underline}
a:active{color: #0366d6 ;}
.digest{color: #999999; font-family: monospace}
.errors{color: #cb2431}
</style>
</head>
<body>
<h1>` + title + `</h1>
<p>` + html.EscapeString(summary) + `</p>
` + content + `
</body>
</html>`
}
