package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lovary/lovary/internal/api"
	"github.com/lovary/lovary/internal/config"
	"github.com/lovary/lovary/internal/logging"
	"github.com/lovary/lovary/internal/prefs"
	"github.com/lovary/lovary/internal/router"
	"github.com/lovary/lovary/internal/session"
	"github.com/lovary/lovary/internal/state"
	"github.com/lovary/lovary/internal/ui"
)

// Options configure the lovary application.
type Options struct {
	ConfigPath string
	APIURL     string // overrides config and environment when set
	LogLevel   string // overrides config when set
	Ephemeral  bool   // keep the token in memory only
	UserAgent  string
}

// Env is the wired client: configuration, logging, token storage, the API
// client, the router and the session, with the 401 handler installed.
type Env struct {
	Config  config.Config
	Logger  *zap.Logger
	Storage prefs.Storage
	Client  *api.Client
	Router  *router.Router
	Session *session.Session

	closeLog func()
}

// Open builds an Env from opts. Callers must Close it.
func Open(opts Options) (*Env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.APIURL != "" {
		cfg.APIURL = opts.APIURL
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}

	logger, closeLog, err := logging.New(logging.Options{
		Path:  cfg.LogPath(),
		Level: cfg.LogLevel,
	})
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	var storage prefs.Storage
	if opts.Ephemeral {
		storage = prefs.NewMemoryStore()
	} else {
		fs, err := prefs.NewFileStore(cfg.StatePath, prefs.WithLogger(logger.Named("prefs")))
		if err != nil {
			closeLog()
			return nil, fmt.Errorf("open state: %w", err)
		}
		storage = fs
	}

	clientOpts := []api.Option{
		api.WithTokenSource(storage),
		api.WithTimeout(cfg.RequestTimeout),
		api.WithLogger(logger.Named("api")),
	}
	if opts.UserAgent != "" {
		clientOpts = append(clientOpts, api.WithUserAgent(opts.UserAgent))
	}
	client, err := api.NewClient(cfg.APIURL, clientOpts...)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("init api client: %w", err)
	}

	rt := router.New(storage, logger.Named("router"))
	sess := session.New(client, storage, rt, logger.Named("session"))
	client.OnUnauthorized(sess)

	logger.Info("lovary started",
		zap.String("api_url", client.BaseURL()),
		zap.Bool("authenticated", sess.IsAuthenticated()),
		zap.Bool("ephemeral", opts.Ephemeral),
	)

	return &Env{
		Config:   cfg,
		Logger:   logger,
		Storage:  storage,
		Client:   client,
		Router:   rt,
		Session:  sess,
		closeLog: closeLog,
	}, nil
}

// Close flushes the log.
func (e *Env) Close() {
	if e != nil && e.closeLog != nil {
		e.closeLog()
	}
}

// WatchState follows the state file so a login or logout made by another
// lovary process is picked up. When the token changes the current route is
// pushed again so the guard re-runs. It is a no-op for in-memory storage.
func (e *Env) WatchState(ctx context.Context) error {
	fs, ok := e.Storage.(*prefs.FileStore)
	if !ok {
		return nil
	}
	return prefs.Watch(ctx, fs.Path(), func() {
		if e.Session.Sync() {
			e.Router.Push(e.Router.CurrentPath())
		}
	})
}

// Run boots the lovary TUI until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	env, err := Open(opts)
	if err != nil {
		return err
	}
	defer env.Close()

	if err := env.WatchState(ctx); err != nil {
		env.Logger.Warn("state file watch unavailable", zap.Error(err))
	}

	store := &state.Store{}
	poller := StartPoller(ctx, store, env.Client, env.Session, env.Config.PollInterval, env.Logger.Named("poller"))

	start := router.PathHome
	if env.Session.IsAuthenticated() {
		start = router.PathDiary
	}

	return ui.Run(ui.Options{
		Context:   ctx,
		Backend:   env.Client,
		Session:   env.Session,
		Router:    env.Router,
		Store:     store,
		Poller:    poller,
		Storage:   env.Storage,
		LogPath:   env.Config.LogPath(),
		StartPath: start,
		Logger:    env.Logger.Named("ui"),
	})
}
