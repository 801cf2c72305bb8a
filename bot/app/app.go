package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	gormlogger "gorm.io/gorm/logger"

	"github.com/flexbet/FlexCodeBot-Go/bot"
	"github.com/flexbet/FlexCodeBot-Go/bot/api"
	"github.com/flexbet/FlexCodeBot-Go/bot/cache"
	"github.com/flexbet/FlexCodeBot-Go/bot/config"
	"github.com/flexbet/FlexCodeBot-Go/bot/convert"
	"github.com/flexbet/FlexCodeBot-Go/bot/db"
	logpkg "github.com/flexbet/FlexCodeBot-Go/bot/logger"
	"github.com/flexbet/FlexCodeBot-Go/bot/metrics"
	"github.com/flexbet/FlexCodeBot-Go/bot/monitor"
	"github.com/flexbet/FlexCodeBot-Go/bot/ner"
	"github.com/flexbet/FlexCodeBot-Go/bot/nlp"
	"github.com/flexbet/FlexCodeBot-Go/bot/platform"
	"github.com/flexbet/FlexCodeBot-Go/bot/social"
	tgtransport "github.com/flexbet/FlexCodeBot-Go/bot/social/telegram"
	xtransport "github.com/flexbet/FlexCodeBot-Go/bot/social/x"
	"github.com/flexbet/FlexCodeBot-Go/bot/worker"
)

// App wires all application dependencies.
type App struct {
	Config    *config.Config
	Logger    *logpkg.Logger
	DB        *db.Repository
	Cache     *redis.Client
	Pool      *worker.Pool
	Registry  *platform.Registry
	Metrics   *metrics.Collector
	Extractor *nlp.Extractor
	Converter *convert.Client
	Responder *monitor.Responder
	Monitor   *monitor.Monitor
	API       *api.Server
	Build     BuildInfo

	telegram *tgtransport.Adapter
}

// BuildInfo provides build-time metadata.
type BuildInfo struct {
	RuntimeVer string
	BinVersion string
	CommitSHA  string
	BuildTime  string
	BuildArch  string
}

// New builds the application container. Construction order follows the
// dependency graph: config and logging first, then storage, then the
// extraction pipeline and outbound clients, then the transports that
// consume them.
func New(ctx context.Context, configPath string, build BuildInfo) (*App, error) {
	conf, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log, err := logpkg.New(
		conf.GetString("bot.log_level"),
		conf.GetString("bot.log_format"),
		conf.GetBool("bot.log_source"),
	)
	if err != nil {
		return nil, err
	}

	gormLogger := logpkg.NewGormLogger(log.Slog(), mapGormLevel(conf.GetString("database.gorm_log_level")))
	repo, err := db.NewSQLiteRepository(conf.GetString("database.path"), gormLogger)
	if err != nil {
		return nil, fmt.Errorf("init db: %w", err)
	}
	if err := repo.ConfigurePool(
		conf.GetInt("database.max_open_conns"),
		conf.GetInt("database.max_idle_conns"),
		time.Duration(conf.GetInt("database.conn_max_lifetime_sec"))*time.Second,
	); err != nil {
		return nil, fmt.Errorf("configure db pool: %w", err)
	}

	pool := worker.New(conf.GetInt("bot.worker_pool_size"))
	registry := platform.NewRegistry()

	var collector *metrics.Collector
	if conf.GetBool("api.metrics") {
		collector = metrics.NewCollector(nil)
	}

	var recognizer bot.EntityRecognizer
	if conf.GetBool("ner.enabled") {
		if apiKey := conf.GetString("ner.api_key"); apiKey != "" {
			recognizer = ner.New(
				log.With("component", "ner"),
				apiKey,
				conf.GetString("ner.endpoint"),
				time.Duration(conf.GetInt("ner.timeout_seconds"))*time.Second,
			)
		} else {
			log.Warn("ner enabled but no api key configured; keyword matching only")
		}
	}
	extractor := nlp.NewExtractor(registry, recognizer, log.With("component", "nlp"))

	var redisClient *redis.Client
	if conf.GetBool("converter.cache") {
		redisClient, err = cache.New(ctx, log, conf.GetString("redis.addr"), conf.GetString("redis.password"), conf.GetInt("redis.db"))
		if err != nil {
			log.Warn("redis unavailable; conversion cache disabled", "error", err)
			redisClient = nil
		}
	}
	var convertCache convert.RedisClient
	if redisClient != nil {
		convertCache = redisClient
	}
	converter := convert.New(
		log.With("component", "converter"),
		registry,
		convertCache,
		conf.GetString("converter.api_key"),
		conf.GetString("converter.base_url"),
		conf.GetBool("converter.simulate"),
	)

	responder := monitor.NewResponder(extractor, converter, repo, collector, log.With("component", "responder"))

	a := &App{
		Config:    conf,
		Logger:    log,
		DB:        repo,
		Cache:     redisClient,
		Pool:      pool,
		Registry:  registry,
		Metrics:   collector,
		Extractor: extractor,
		Converter: converter,
		Responder: responder,
		Build:     build,
	}

	sessions, err := a.buildSessions(conf, responder, repo, pool, collector, log)
	if err != nil {
		return nil, err
	}
	if len(sessions) > 0 {
		mon, err := monitor.New(log.With("component", "monitor"), sessions...)
		if err != nil {
			return nil, fmt.Errorf("init monitor: %w", err)
		}
		a.Monitor = mon
	} else {
		log.Warn("no transports configured; running with the ops api only")
	}

	if conf.GetBool("api.enabled") {
		handler := api.NewHandler(api.HandlerConfig{
			Logger:     log.With("component", "api"),
			Registry:   registry,
			Extractor:  extractor,
			Processor:  responder,
			Controller: controllerOrNil(a.Monitor),
			History:    repo,
			Metrics:    collector,
		})
		a.API = api.NewServer(conf.GetString("api.listen"), handler, log.With("component", "api"))
	}

	return a, nil
}

func (a *App) buildSessions(conf *config.Config, responder *monitor.Responder, repo bot.MessageRepository, pool bot.WorkerPool, collector *metrics.Collector, log *logpkg.Logger) ([]*monitor.Session, error) {
	replyRate := conf.GetFloat64("bot.reply_rate_per_second")
	replyBurst := conf.GetInt("bot.reply_rate_burst")
	sessionCfg := func(client bot.SocialClient) monitor.SessionConfig {
		return monitor.SessionConfig{
			Client:          client,
			Responder:       responder,
			Repo:            repo,
			Pool:            pool,
			Limiter:         social.NewRateLimiter(replyRate, replyBurst),
			Metrics:         collector,
			Logger:          log.With("transport", client.Name()),
			MentionInterval: time.Duration(conf.GetInt("bot.mention_poll_seconds")) * time.Second,
			DMInterval:      time.Duration(conf.GetInt("bot.dm_poll_seconds")) * time.Second,
			BatchSize:       conf.GetInt("bot.poll_batch_size"),
			WarmLimit:       conf.GetInt("bot.dedup_warm_limit"),
		}
	}

	var sessions []*monitor.Session

	if conf.GetBool("x.enabled") {
		creds := xtransport.Credentials{
			APIKey:            conf.GetString("x.api_key"),
			APISecret:         conf.GetString("x.api_secret"),
			AccessToken:       conf.GetString("x.access_token"),
			AccessTokenSecret: conf.GetString("x.access_token_secret"),
		}
		if creds.Complete() {
			client, err := xtransport.New(
				log.With("component", "x"),
				social.NewRateLimiter(replyRate, replyBurst),
				creds,
				conf.GetString("x.base_url"),
			)
			if err != nil {
				return nil, fmt.Errorf("init x client: %w", err)
			}
			session, err := monitor.NewSession(sessionCfg(client))
			if err != nil {
				return nil, fmt.Errorf("init x session: %w", err)
			}
			sessions = append(sessions, session)
		} else {
			log.Warn("x transport enabled but credentials incomplete; skipping")
		}
	}

	if conf.GetBool("telegram.enabled") {
		if token := conf.GetString("telegram.token"); token != "" {
			adapter, err := tgtransport.New(
				token,
				tgtransport.Options{
					APIServer: conf.GetString("telegram.api_server"),
					Debug:     conf.GetBool("telegram.debug"),
				},
				social.NewRateLimiter(replyRate, replyBurst),
				log.With("component", "telegram"),
			)
			if err != nil {
				return nil, fmt.Errorf("init telegram adapter: %w", err)
			}
			session, err := monitor.NewSession(sessionCfg(adapter))
			if err != nil {
				return nil, fmt.Errorf("init telegram session: %w", err)
			}
			sessions = append(sessions, session)
			a.telegram = adapter
		} else {
			log.Warn("telegram transport enabled but no token configured; skipping")
		}
	}

	return sessions, nil
}

// Start brings up the transports, the poll loops and the ops API.
func (a *App) Start(ctx context.Context) error {
	if a.telegram != nil {
		if err := a.telegram.Start(ctx); err != nil {
			return fmt.Errorf("start telegram: %w", err)
		}
	}

	if a.Monitor != nil && a.Config.GetBool("bot.autostart") {
		if err := a.Monitor.Start(ctx); err != nil {
			return fmt.Errorf("start monitoring: %w", err)
		}
	}

	if a.API != nil {
		go func() {
			if err := a.API.Start(); err != nil {
				a.Logger.Error("ops api stopped", "error", err)
			}
		}()
	}

	a.Logger.Info("flexcodebot started",
		"version", a.Build.BinVersion,
		"commit", a.Build.CommitSHA,
		"simulate", a.Converter.Simulated())
	return nil
}

// Shutdown tears the application down in reverse construction order.
func (a *App) Shutdown(ctx context.Context) error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if a.API != nil {
		keep(a.API.Shutdown(ctx))
	}
	if a.Monitor != nil && a.Monitor.Running() {
		keep(a.Monitor.Stop(ctx))
	}
	if a.Pool != nil {
		keep(a.Pool.Shutdown(ctx))
	}
	if a.Cache != nil {
		keep(a.Cache.Close())
	}
	if a.DB != nil {
		keep(a.DB.Close())
	}
	if a.Logger != nil {
		a.Logger.Info("flexcodebot stopped")
		keep(a.Logger.Close())
	}
	return firstErr
}

func controllerOrNil(m *monitor.Monitor) api.Controller {
	if m == nil {
		return nil
	}
	return m
}

func mapGormLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "silent", "off":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info", "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
