package abghttp_test

import (
	"time"

	"github.com/AdguardTeam/golibs/errors"
)

// testError is the common error for tests.
const testError errors.Error = "test error"

// testTimeout is the common timeout for tests.
const testTimeout = 1 * time.Second
