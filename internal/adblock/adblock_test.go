package adblock_test

import "time"

// testTimeout is the common timeout for tests.
const testTimeout = 1 * time.Second
