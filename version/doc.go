// Package version reports the engine build that is running.
//
// Values are set at link time:
//
//	go build -ldflags "-X github.com/kbukum/pipex/version.Version=v1.2.0"
//
// When pipex is linked in as a library without ldflags, the module version
// recorded by the Go toolchain is used instead.
package version
