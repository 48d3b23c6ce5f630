//go:build e2e

// Package e2e runs the pose server against a real browser.
//
// Each test starts a server on a random port, opens its client page in
// headless Chrome through testutil.PoseBrowser and streams landmark frames
// over the page's RTCDataChannel. Chrome is downloaded by Rod on first use.
//
// The package only builds with the e2e tag:
//
//	go test -tags=e2e ./e2e/...
//
// Plain `go test ./...` skips it.
package e2e
