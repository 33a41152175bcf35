package cmd

import (
	"fmt"
	"log/slog"
	"net/netip"
	"os"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/validate"
	"github.com/caarlos0/env/v7"
	"github.com/csslayer/browser-ios/internal/errcoll"
	"github.com/csslayer/browser-ios/internal/version"
	"github.com/getsentry/sentry-go"
)

// sentryDSNStderr is the special value of SENTRY_DSN which makes the errors be
// written to stderr instead of being sent to Sentry.
const sentryDSNStderr = "stderr"

// environment represents the configuration that is kept in the environment.
type environment struct {
	ConfPath   string `env:"CONFIG_PATH" envDefault:"./config.yaml"`
	DatasetDir string `env:"DATASET_DIR" envDefault:"./adblock-data/"`
	LogFormat  string `env:"LOG_FORMAT" envDefault:"text"`
	SentryDSN  string `env:"SENTRY_DSN" envDefault:"stderr"`

	ListenAddr netip.Addr `env:"LISTEN_ADDR" envDefault:"127.0.0.1"`

	ListenPort uint16 `env:"LISTEN_PORT" envDefault:"8181"`

	Verbosity uint8 `env:"VERBOSE" envDefault:"0"`

	LogTimestamp strictBool `env:"LOG_TIMESTAMP" envDefault:"1"`
}

// parseEnvironment reads the configuration.
func parseEnvironment() (envs *environment, err error) {
	envs = &environment{}
	err = env.Parse(envs)
	if err != nil {
		return nil, fmt.Errorf("parsing environments: %w", err)
	}

	return envs, nil
}

// type check
var _ validate.Interface = (*environment)(nil)

// Validate implements the [validate.Interface] interface for *environment.
func (envs *environment) Validate() (err error) {
	errs := []error{
		validate.NotEmpty("CONFIG_PATH", envs.ConfPath),
		validate.NotEmpty("DATASET_DIR", envs.DatasetDir),
		validate.NotEmpty("SENTRY_DSN", envs.SentryDSN),
	}

	if !envs.ListenAddr.IsValid() {
		errs = append(errs, fmt.Errorf("LISTEN_ADDR: %w", errors.ErrBadEnumValue))
	}

	_, err = slogutil.NewFormat(envs.LogFormat)
	if err != nil {
		errs = append(errs, fmt.Errorf("LOG_FORMAT: %w", err))
	}

	_, err = slogutil.VerbosityToLevel(envs.Verbosity)
	if err != nil {
		errs = append(errs, fmt.Errorf("VERBOSE: %w", err))
	}

	return errors.Join(errs...)
}

// listenAddrPort returns the address of the local API.  envs must be valid.
func (envs *environment) listenAddrPort() (addr netip.AddrPort) {
	return netip.AddrPortFrom(envs.ListenAddr, envs.ListenPort)
}

// buildErrColl builds and returns an error collector from environment.
// baseLogger must not be nil.
func (envs *environment) buildErrColl(
	baseLogger *slog.Logger,
) (errColl errcoll.Interface, err error) {
	dsn := envs.SentryDSN
	if dsn == sentryDSNStderr {
		return errcoll.NewWriterErrorCollector(os.Stderr), nil
	}

	cli, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              dsn,
		AttachStacktrace: true,
		Release:          version.Version(),
	})
	if err != nil {
		return nil, fmt.Errorf("creating sentry client: %w", err)
	}

	baseLogger.Debug("reporting errors to sentry")

	return errcoll.NewSentryErrorCollector(cli), nil
}

// strictBool is a type for booleans that are parsed from the environment more
// strictly than the usual bool.  It only accepts "0" and "1" as valid values.
type strictBool bool

// UnmarshalText implements the encoding.TextUnmarshaler interface for
// *strictBool.
func (sb *strictBool) UnmarshalText(b []byte) (err error) {
	switch string(b) {
	case "0":
		*sb = false
	case "1":
		*sb = true
	default:
		return fmt.Errorf("invalid value %q, supported: %q, %q", b, "0", "1")
	}

	return nil
}
