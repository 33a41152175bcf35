// Command adblockd is the local ad-block decision service.  It keeps the
// filter dataset current and answers whether requests should be blocked.
package main

import "github.com/csslayer/browser-ios/internal/cmd"

func main() {
	cmd.Main()
}
