package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/c2h5oh/datasize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testTimeout is the common timeout for tests.
const testTimeout = 1 * time.Second

// writeConfig writes data into a configuration file in a temporary directory
// and returns its path.
func writeConfig(tb testing.TB, data string) (confPath string) {
	tb.Helper()

	confPath = filepath.Join(tb.TempDir(), "config.yaml")
	err := os.WriteFile(confPath, []byte(data), 0o600)
	require.NoError(tb, err)

	return confPath
}

// testConfigFull is a configuration with all fields set.
const testConfigFull = `
blocking:
    enabled: false
cache:
    chunk_size: 20
    max_chunks: 5
dataset:
    url: 'https://filters.example/adblock.dat'
    name: 'adblock'
    version: '2'
    max_size: 1MB
    timeout: 10s
    revalidate_delay: 1s
    retry_delay: 30s
    refresh_interval: 1h
    max_retries: 3
`

// testConfigMinimal is a configuration with only the required fields set.
const testConfigMinimal = `
dataset:
    url: 'https://filters.example/adblock.dat'
    name: 'adblock'
    version: '2'
`

func TestParseConfig(t *testing.T) {
	t.Parallel()

	t.Run("full", func(t *testing.T) {
		t.Parallel()

		c, err := parseConfig(writeConfig(t, testConfigFull))
		require.NoError(t, err)
		require.NoError(t, c.Validate())

		assert.False(t, c.Blocking.Enabled)
		assert.Equal(t, 20, c.Cache.ChunkSize)
		assert.Equal(t, 5, c.Cache.MaxChunks)

		d := c.Dataset
		require.NotNil(t, d.URL)

		assert.Equal(t, "https://filters.example/adblock.dat", d.URL.String())
		assert.Equal(t, "adblock", d.Name)
		assert.Equal(t, "2", d.Version)
		assert.Equal(t, datasize.MB, d.MaxSize)
		assert.Equal(t, 10*time.Second, d.Timeout.Duration)
		assert.Equal(t, time.Second, d.RevalidateDelay.Duration)
		assert.Equal(t, 30*time.Second, d.RetryDelay.Duration)
		assert.Equal(t, time.Hour, d.RefreshInterval.Duration)
		assert.Equal(t, uint(3), d.MaxRetries)
	})

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		c, err := parseConfig(writeConfig(t, testConfigMinimal))
		require.NoError(t, err)
		require.NoError(t, c.Validate())

		assert.True(t, c.Blocking.Enabled)
		assert.Equal(t, 50, c.Cache.ChunkSize)
		assert.Equal(t, 10, c.Cache.MaxChunks)

		d := c.Dataset
		assert.Equal(t, 64*datasize.MB, d.MaxSize)
		assert.Equal(t, 30*time.Second, d.Timeout.Duration)
		assert.Equal(t, 5*time.Second, d.RevalidateDelay.Duration)
		assert.Equal(t, 60*time.Second, d.RetryDelay.Duration)
		assert.Zero(t, d.RefreshInterval.Duration)
		assert.Zero(t, d.MaxRetries)
	})

	t.Run("no_file", func(t *testing.T) {
		t.Parallel()

		_, err := parseConfig(filepath.Join(t.TempDir(), "none.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("bad_yaml", func(t *testing.T) {
		t.Parallel()

		_, err := parseConfig(writeConfig(t, "cache: [1, 2"))
		assert.Error(t, err)
	})
}

func TestConfiguration_Validate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		wantErrIs error
		name      string
		conf      string
	}{{
		wantErrIs: errors.ErrNoValue,
		name:      "no_url",
		conf: `
dataset:
    name: 'adblock'
    version: '2'
`,
	}, {
		wantErrIs: errors.ErrBadEnumValue,
		name:      "bad_scheme",
		conf: `
dataset:
    url: 'ftp://filters.example/adblock.dat'
    name: 'adblock'
    version: '2'
`,
	}, {
		wantErrIs: errors.ErrNegative,
		name:      "negative_refresh",
		conf: testConfigMinimal + `
    refresh_interval: -1s
`,
	}, {
		wantErrIs: nil,
		name:      "zero_chunk_size",
		conf: testConfigMinimal + `
cache:
    chunk_size: 0
`,
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c, err := parseConfig(writeConfig(t, tc.conf))
			require.NoError(t, err)

			err = c.Validate()
			require.Error(t, err)

			if tc.wantErrIs != nil {
				assert.ErrorIs(t, err, tc.wantErrIs)
			}
		})
	}

	t.Run("nil", func(t *testing.T) {
		t.Parallel()

		var c *configuration
		assert.ErrorIs(t, c.Validate(), errors.ErrNoValue)
	})
}
