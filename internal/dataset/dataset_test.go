package dataset_test

import (
	"time"

	"github.com/AdguardTeam/golibs/logutil/slogutil"
)

// testTimeout is the common timeout for tests.
const testTimeout = 1 * time.Second

// testLogger is the common logger for tests.
var testLogger = slogutil.NewDiscardLogger()

// Common test values.
const (
	testName    = "adblock"
	testVersion = "2"
	testTag     = "abc"
)

// testData is the common dataset blob for tests.
var testData = []byte("||example.com^\n")
