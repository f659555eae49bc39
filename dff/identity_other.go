//go:build !unix

package dff

import "os"

func fileIdentity(fi os.FileInfo) (dev, ino uint64, ok bool) {
	return 0, 0, false
}
