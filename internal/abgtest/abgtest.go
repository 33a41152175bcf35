// Package abgtest contains simple mocks for common interfaces and other test
// utilities.
package abgtest

import (
	"context"
	"testing"

	"github.com/AdguardTeam/golibs/testutil"
	"github.com/stretchr/testify/require"
)

// NewErrorCollector returns an *ErrorCollector that fails the test on any
// collected error.
func NewErrorCollector(tb testing.TB) (c *ErrorCollector) {
	tb.Helper()

	return &ErrorCollector{
		OnCollect: func(_ context.Context, err error) {
			require.NoError(testutil.PanicT{}, err)
		},
	}
}

// NewChanErrorCollector returns an *ErrorCollector that sends all collected
// errors into the returned channel.  The channel is buffered with size.
func NewChanErrorCollector(size int) (c *ErrorCollector, errCh chan error) {
	errCh = make(chan error, size)

	return &ErrorCollector{
		OnCollect: func(_ context.Context, err error) {
			errCh <- err
		},
	}, errCh
}
