// Package abghttp contains common constants, functions, and types for working
// with HTTP.
package abghttp

import "github.com/csslayer/browser-ios/internal/version"

// HTTP header value constants.
const (
	HdrValApplicationJSON = "application/json"
	HdrValTextPlain       = "text/plain"
)

// userAgent is the cached User-Agent string for adblockd.
var userAgent = version.Name() + "/" + version.Version()

// UserAgent returns the ID of the service as a User-Agent string.  It can also
// be used as the value of the Server HTTP header.
func UserAgent() (ua string) {
	return userAgent
}
