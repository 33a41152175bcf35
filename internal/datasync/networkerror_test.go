package datasync_test

import (
	"context"
	"fmt"
	"net"
	"testing"

	"github.com/csslayer/browser-ios/internal/datasync"
	"github.com/stretchr/testify/assert"
)

func TestNetworkError_IsSentryReportable(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		err  error
		name string
		want bool
	}{{
		err:  testError,
		name: "plain",
		want: true,
	}, {
		err:  fmt.Errorf("requesting dataset: %w", context.DeadlineExceeded),
		name: "deadline",
		want: false,
	}, {
		err:  &net.DNSError{Err: "i/o timeout", IsTimeout: true},
		name: "net_timeout",
		want: false,
	}, {
		err:  &net.DNSError{Err: "no such host", IsNotFound: true},
		name: "net_not_found",
		want: true,
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := &datasync.NetworkError{
				Err: tc.err,
				Op:  datasync.OpFetch,
			}

			assert.Equal(t, tc.want, err.IsSentryReportable())
		})
	}
}
