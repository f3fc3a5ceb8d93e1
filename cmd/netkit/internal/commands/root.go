package commands

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gaborage/netkit/config"
	"github.com/gaborage/netkit/httpclient"
	"github.com/gaborage/netkit/logger"
	"github.com/gaborage/netkit/observability"
	"github.com/gaborage/netkit/transport"
)

// GlobalOptions holds flags shared by every command
type GlobalOptions struct {
	ConfigFile string
	Retries    int
	Trace      bool
}

// NewRootCommand creates the netkit command tree
func NewRootCommand(version string) *cobra.Command {
	opts := &GlobalOptions{}

	root := &cobra.Command{
		Use:   "netkit",
		Short: "Call, download from and upload to an HTTP service",
		Long: `netkit sends requests to the service described by its configuration.

Configuration comes from an optional YAML file and NETKIT_* environment
variables (NETKIT_CLIENT_BASEURL, NETKIT_CLIENT_TIMEOUT, ...).`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "YAML configuration file")
	root.PersistentFlags().IntVarP(&opts.Retries, "retries", "r", -1, "Retry budget for transport failures (default from config)")
	root.PersistentFlags().BoolVar(&opts.Trace, "trace", false, "Print OpenTelemetry spans and metrics to stderr")

	root.AddCommand(
		NewGetCommand(opts),
		NewDownloadCommand(opts),
		NewUploadCommand(opts),
		NewVersionCommand(version),
	)

	return root
}

// session is a ready client plus the teardown of whatever was set up for it
type session struct {
	client   *httpclient.Client
	log      logger.Logger
	shutdown func(context.Context) error
}

func (s *session) close(ctx context.Context) {
	if s.shutdown != nil {
		_ = s.shutdown(ctx)
	}
}

// newSession builds a client from configuration. When requireConfig is false
// and neither a file nor NETKIT_CLIENT_BASEURL is given, the client runs
// unconfigured, which is enough for downloads of absolute URLs.
func newSession(cmd *cobra.Command, opts *GlobalOptions, requireConfig bool) (*session, error) {
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil && (requireConfig || opts.ConfigFile != "") {
		return nil, err
	}

	s := &session{log: newLogger(cmd.ErrOrStderr(), config.LogConfig{Level: config.LogLevelInfo})}
	var obsCfg observability.Config
	var clientOpts []httpclient.Option
	var transportOpts []transport.Option

	if cfg != nil {
		s.log = newLogger(cmd.ErrOrStderr(), cfg.Log)
		obsCfg = cfg.Observability
		clientOpts, err = cfg.Client.ClientOptions()
		if err != nil {
			return nil, err
		}
		transportOpts = append(transportOpts, transport.WithUserAgent(cfg.Client.UserAgent))
	}

	if err := s.startTelemetry(cmd.ErrOrStderr(), obsCfg, opts.Trace); err != nil {
		return nil, err
	}

	transportOpts = append(transportOpts, transport.WithLogger(s.log))
	clientOpts = append(clientOpts,
		httpclient.WithLogger(s.log),
		httpclient.WithTransportFactory(transport.RestyFactory(transportOpts...)),
	)
	if opts.Retries >= 0 {
		clientOpts = append(clientOpts, httpclient.WithMaxRetries(opts.Retries))
	}

	s.client = httpclient.New(clientOpts...)
	return s, nil
}

// startTelemetry installs the configured exporters. --trace forces stdout
// export of spans and metrics to w.
func (s *session) startTelemetry(w io.Writer, cfg observability.Config, stdout bool) error {
	if stdout {
		cfg.Enabled = true
		if cfg.Service.Name == "" {
			cfg.Service.Name = "netkit"
		}
		cfg.Trace.Enabled = observability.BoolPtr(true)
		cfg.Trace.Endpoint = observability.EndpointStdout
		cfg.Metrics.Endpoint = observability.EndpointStdout
	}
	if !cfg.Enabled {
		return nil
	}

	provider, err := observability.NewProvider(&cfg,
		observability.WithWriter(w),
		observability.WithLogger(s.log),
	)
	if err != nil {
		return err
	}
	s.shutdown = func(context.Context) error {
		return observability.Shutdown(provider, observability.DefaultShutdownTimeout)
	}
	return nil
}

// newLogger keeps log lines off stdout, which carries response bodies.
func newLogger(w io.Writer, cfg config.LogConfig) logger.Logger {
	if cfg.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return logger.NewWithWriter(zerolog.SyncWriter(w), cfg.Level, nil)
}
