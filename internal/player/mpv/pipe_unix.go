//go:build !windows

package mpv

// isPipeReady reports false: Unix builds only use sockets
func isPipeReady(string) bool {
	return false
}
