package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/stratum/archive"
	"github.com/justapithecus/stratum/cdx"
	"github.com/justapithecus/stratum/cli/config"
	"github.com/justapithecus/stratum/download"
	"github.com/justapithecus/stratum/fetch"
	"github.com/justapithecus/stratum/harvest"
	"github.com/justapithecus/stratum/log"
	"github.com/justapithecus/stratum/metrics"
	"github.com/justapithecus/stratum/proxy"
	"github.com/justapithecus/stratum/types"
)

// defaultConfigPath is consulted when --config is not given; a missing file
// there is not an error.
const defaultConfigPath = "stratum.yaml"

// services bundles everything a harvest command needs.
type services struct {
	harvest   *harvest.Service
	config    *config.Config
	collector *metrics.Collector
	pool      *proxy.Pool
	logger    *log.Logger
}

// loadConfig reads the config file named by --config, or the default path
// when present. Flag values override config values afterwards.
func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); err != nil {
			return &config.Config{}, nil
		}
		path = defaultConfigPath
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildServices assembles the harvest service from config and flag overrides.
func buildServices(c *cli.Context, target string) (*services, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	// Flags always win over config values.
	if v := c.String("endpoint"); v != "" {
		cfg.Index.Endpoint = v
	}
	if v := c.String("token"); v != "" {
		cfg.Index.Token = v
	}
	if v := c.String("engine"); v != "" {
		cfg.Engine.Name = v
	}
	if v := c.String("renderer-path"); v != "" {
		cfg.Engine.RendererPath = v
	}
	if v := c.String("proxies"); v != "" {
		cfg.ProxiesFile = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	engineName := cfg.Engine.Name
	if engineName == "" {
		engineName = config.EngineHTTP
	}

	logger := log.NewLogger(&log.BatchMeta{Target: target})
	collector := metrics.NewCollector(engineName, "", target)

	var pool *proxy.Pool
	if cfg.ProxiesFile != "" {
		pool, err = proxy.FromFile(cfg.ProxiesFile, logger)
		if err != nil {
			return nil, err
		}
	}

	var engine fetch.Engine
	switch engineName {
	case config.EngineHTTP:
		engine = fetch.NewHTTPEngine(logger)
	case config.EngineRenderer:
		engine = fetch.NewRendererEngine(cfg.Engine.RendererPath, cfg.Engine.RendererArgs, logger)
	default:
		return nil, fmt.Errorf("unknown engine %q", engineName)
	}
	engine = fetch.WithRetryObserved(engine, cfg.Policy(), nil, logger, collector.IncFetchRetry)

	svc := harvest.NewService(harvest.Config{
		Index:        cdx.NewClient(cfg.IndexClientConfig(), logger),
		Orchestrator: download.NewOrchestrator(engine, logger, collector),
		BaseURL:      cfg.Archive.BaseURL,
		Policy:       cfg.Policy(),
		Logger:       logger,
		Collector:    collector,
	})

	return &services{
		harvest:   svc,
		config:    cfg,
		collector: collector,
		pool:      pool,
		logger:    logger,
	}, nil
}

// downloadOptions builds orchestrator options from config defaults.
func (s *services) downloadOptions() download.Options {
	headers := make(map[string]string, len(s.config.Download.Headers)+1)
	for k, v := range s.config.Download.Headers {
		headers[k] = v
	}
	if _, ok := headers["User-Agent"]; !ok {
		ua := s.config.Download.UserAgent
		if ua == "" {
			ua = "stratum/" + types.Version
		}
		headers["User-Agent"] = ua
	}

	return download.Options{
		Concurrency: s.config.Download.Concurrency,
		Headers:     headers,
		Timeout:     s.config.Download.Timeout.Duration,
		Pool:        s.pool,
	}
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return ctx, cancel
}

// baseURL resolves the replay host for URL building in commands.
func (s *services) baseURL() string {
	if s.config.Archive.BaseURL != "" {
		return s.config.Archive.BaseURL
	}
	return archive.DefaultBaseURL
}
