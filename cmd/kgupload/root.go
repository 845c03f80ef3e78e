package main

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/kgclient"
	"github.com/kailas-cloud/kgclient/internal/config"
	logpkg "github.com/kailas-cloud/kgclient/internal/logger"
	"github.com/kailas-cloud/kgclient/internal/version"
)

// rootOptions holds the persistent flags.
type rootOptions struct {
	configPath string
	fromEnv    bool
	debug      bool
}

func newRootCommand() *cobra.Command {
	o := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "kgupload",
		Short: "Upload schemas, contexts and instances to a knowledge graph",
		Long: "kgupload walks template directories and uploads their files idempotently.\n" +
			"Configuration comes from --config, from config/<ENV>.yaml, or with --from-env\n" +
			"from NEXUS_ENDPOINT, NEXUS_PREFIX, NEXUS_NAMESPACE and NEXUS_TOKEN.",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.PersistentFlags().StringVar(&o.configPath, "config", "", "Path to a YAML configuration file")
	cmd.PersistentFlags().BoolVar(&o.fromEnv, "from-env", false, "Read the configuration from NEXUS_* variables")
	cmd.PersistentFlags().BoolVar(&o.debug, "debug", false, "Set log level to debug")

	cmd.AddCommand(
		newVersionCommand(),
		newVersionCheckCommand(o),
		newVersionedCommand(o, kgclient.KindSchema, "schemas", "Upload schema templates below DIR"),
		newVersionedCommand(o, kgclient.KindContext, "contexts", "Upload context templates below DIR"),
		newInstancesCommand(o),
		newClearInstancesCommand(o),
		newClearChecksumsCommand(),
	)
	return cmd
}

// session is one configured run.
type session struct {
	cfg      config.Config
	client   *kgclient.Client
	logger   *zap.Logger
	registry *prometheus.Registry
}

func (o *rootOptions) loadConfig() (config.Config, error) {
	switch {
	case o.configPath != "":
		return config.LoadFile(o.configPath)
	case o.fromEnv:
		cfg := config.FromEnv()
		return cfg, cfg.Validate()
	default:
		return config.Load(config.GetEnv())
	}
}

func (o *rootOptions) open(ctx context.Context) (*session, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.Logging.Level
	if o.debug {
		level = "debug"
	}
	logger, err := logpkg.NewLogger("cli", level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	s := &session{cfg: cfg, logger: logger}
	opts := []kgclient.Option{
		kgclient.WithEndpoint(cfg.Nexus.Endpoint),
		kgclient.WithPrefix(cfg.Nexus.Prefix),
		kgclient.WithNamespace(cfg.Nexus.Namespace),
		kgclient.WithToken(cfg.Nexus.Token),
		kgclient.WithTimeout(time.Duration(cfg.Nexus.TimeoutSec) * time.Second),
		kgclient.WithSupportedVersions(cfg.Nexus.SupportedVersions...),
		kgclient.WithFullyQualifiedUploads(*cfg.Upload.FullyQualified),
		kgclient.WithChecksumFiles(cfg.Upload.ChecksumFiles),
		kgclient.WithCacheTTL(time.Duration(cfg.Cache.TTLSec) * time.Second),
		kgclient.WithLogger(logger),
	}
	if len(cfg.Cache.Redis.Addrs) > 0 {
		opts = append(opts,
			kgclient.WithRedisCache(cfg.Cache.Redis.Addrs, cfg.Cache.Redis.Password, cfg.Cache.Redis.KeyPrefix),
			kgclient.WithRedisDatabase(cfg.Cache.Redis.Username, cfg.Cache.Redis.DB),
			kgclient.WithCacheReadinessTimeout(time.Duration(cfg.Cache.Redis.ReadinessTimeout)*time.Second),
		)
	}
	if cfg.Metrics.Enabled {
		s.registry = prometheus.NewRegistry()
		opts = append(opts, kgclient.WithPrometheus(s.registry))
	}

	s.client, err = kgclient.New(ctx, opts...)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	logger.Debug("Session opened",
		zap.String("version", version.Version),
		zap.String("endpoint", cfg.Nexus.Endpoint),
		zap.String("prefix", cfg.Nexus.Prefix),
		zap.Bool("shared_cache", len(cfg.Cache.Redis.Addrs) > 0),
	)
	return s, nil
}

// close flushes metrics and logs and releases the client.
func (s *session) close() {
	if s.registry != nil && s.cfg.Metrics.Textfile != "" {
		if err := prometheus.WriteToTextfile(s.cfg.Metrics.Textfile, s.registry); err != nil {
			s.logger.Warn("Failed to write metrics", zap.String("path", s.cfg.Metrics.Textfile), zap.Error(err))
		}
	}
	s.client.Close()
	_ = s.logger.Sync()
}
