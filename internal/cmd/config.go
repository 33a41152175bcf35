package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/AdguardTeam/golibs/container"
	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/netutil/urlutil"
	"github.com/AdguardTeam/golibs/timeutil"
	"github.com/AdguardTeam/golibs/validate"
	"github.com/c2h5oh/datasize"
	"github.com/csslayer/browser-ios/internal/adblock"
	"gopkg.in/yaml.v2"
)

// configuration represents the on-disk configuration of the ad-block service.
// The order of the fields should generally not be altered.
type configuration struct {
	// Blocking is the request blocking configuration.
	Blocking *blockingConfig `yaml:"blocking"`

	// Cache is the decision cache configuration.
	Cache *cacheConfig `yaml:"cache"`

	// Dataset is the filter dataset synchronization configuration.
	Dataset *datasetConfig `yaml:"dataset"`
}

// newDefaultConfig returns a configuration with the default values of the
// optional fields set.
func newDefaultConfig() (c *configuration) {
	return &configuration{
		Blocking: &blockingConfig{
			Enabled: true,
		},
		Cache: &cacheConfig{
			ChunkSize: adblock.DefaultChunkSize,
			MaxChunks: adblock.DefaultMaxChunks,
		},
		Dataset: &datasetConfig{
			MaxSize:         64 * datasize.MB,
			Timeout:         timeutil.Duration{Duration: 30 * time.Second},
			RevalidateDelay: timeutil.Duration{Duration: 5 * time.Second},
			RetryDelay:      timeutil.Duration{Duration: 60 * time.Second},
		},
	}
}

// parseConfig reads the configuration.
func parseConfig(confPath string) (c *configuration, err error) {
	// #nosec G304 -- Trust the path to the configuration file that is given
	// from the environment.
	yamlFile, err := os.ReadFile(confPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	c = newDefaultConfig()
	err = yaml.Unmarshal(yamlFile, c)
	if err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return c, nil
}

// type check
var _ validate.Interface = (*configuration)(nil)

// Validate implements the [validate.Interface] interface for *configuration.
func (c *configuration) Validate() (err error) {
	if c == nil {
		return errors.ErrNoValue
	}

	// Keep this in the same order as the fields in the config.
	validators := container.KeyValues[string, validate.Interface]{{
		Key:   "blocking",
		Value: c.Blocking,
	}, {
		Key:   "cache",
		Value: c.Cache,
	}, {
		Key:   "dataset",
		Value: c.Dataset,
	}}

	var errs []error
	for _, kv := range validators {
		errs = validate.Append(errs, kv.Key, kv.Value)
	}

	return errors.Join(errs...)
}

// blockingConfig is the request blocking configuration.
type blockingConfig struct {
	// Enabled turns the blocking of requests on and off.  It is re-read on
	// SIGHUP.
	Enabled bool `yaml:"enabled"`
}

// type check
var _ validate.Interface = (*blockingConfig)(nil)

// Validate implements the [validate.Interface] interface for *blockingConfig.
func (c *blockingConfig) Validate() (err error) {
	if c == nil {
		return errors.ErrNoValue
	}

	return nil
}

// cacheConfig is the decision cache configuration.
type cacheConfig struct {
	// ChunkSize is the maximum number of decisions in a single cache chunk.
	ChunkSize int `yaml:"chunk_size"`

	// MaxChunks is the maximum number of chunks in the cache.
	MaxChunks int `yaml:"max_chunks"`
}

// type check
var _ validate.Interface = (*cacheConfig)(nil)

// Validate implements the [validate.Interface] interface for *cacheConfig.
func (c *cacheConfig) Validate() (err error) {
	if c == nil {
		return errors.ErrNoValue
	}

	return errors.Join(
		validate.Positive("chunk_size", c.ChunkSize),
		validate.Positive("max_chunks", c.MaxChunks),
	)
}

// datasetConfig is the filter dataset synchronization configuration.
type datasetConfig struct {
	// URL is the HTTP(S) URL of the dataset.
	URL *urlutil.URL `yaml:"url"`

	// Name is the name of the dataset, used in the file names.
	Name string `yaml:"name"`

	// Version is the version of the dataset, used in the file names.
	Version string `yaml:"version"`

	// MaxSize is the maximum size of the downloaded dataset.
	MaxSize datasize.ByteSize `yaml:"max_size"`

	// Timeout is the timeout for a single HTTP request.
	Timeout timeutil.Duration `yaml:"timeout"`

	// RevalidateDelay is the delay between loading the persisted dataset and
	// checking its revalidation tag.
	RevalidateDelay timeutil.Duration `yaml:"revalidate_delay"`

	// RetryDelay is the delay before retrying a failed download.
	RetryDelay timeutil.Duration `yaml:"retry_delay"`

	// RefreshInterval is the interval between periodic revalidations.  Zero
	// disables them.
	RefreshInterval timeutil.Duration `yaml:"refresh_interval"`

	// MaxRetries is the maximum number of retries of a failed download.  Zero
	// means no limit.
	MaxRetries uint `yaml:"max_retries"`
}

// type check
var _ validate.Interface = (*datasetConfig)(nil)

// Validate implements the [validate.Interface] interface for *datasetConfig.
func (c *datasetConfig) Validate() (err error) {
	if c == nil {
		return errors.ErrNoValue
	}

	errs := []error{
		validate.NotNil("url", c.URL),
		validate.NotEmpty("name", c.Name),
		validate.NotEmpty("version", c.Version),
		validate.Positive("max_size", c.MaxSize),
		validate.Positive("timeout", c.Timeout),
		validate.Positive("revalidate_delay", c.RevalidateDelay),
		validate.Positive("retry_delay", c.RetryDelay),
	}

	if c.URL != nil && !urlutil.IsValidHTTPURLScheme(c.URL.Scheme) {
		errs = append(errs, fmt.Errorf("url: scheme %q: %w", c.URL.Scheme, errors.ErrBadEnumValue))
	}

	if c.RefreshInterval.Duration < 0 {
		errs = append(errs, fmt.Errorf("refresh_interval: %w", errors.ErrNegative))
	}

	return errors.Join(errs...)
}
