//go:build unix

package fsx

import (
	"errors"
	"syscall"
)

// errors.Is 会穿透 *os.LinkError 的 Unwrap，直接比对 errno 即可。
func isEXDEV(err error) bool {
	return errors.Is(err, syscall.EXDEV)
}
