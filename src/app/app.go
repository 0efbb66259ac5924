package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/elee1766/convo/src/aisdk"
	"github.com/elee1766/convo/src/config"
	"github.com/elee1766/convo/src/conversation"
	"github.com/elee1766/convo/src/llmclient"
	"github.com/elee1766/convo/src/session"
	"github.com/elee1766/convo/src/storage"
	"github.com/spf13/afero"
)

// App represents the main application with all services
type App struct {
	ModelProvider *llmclient.Client
	Conversations *conversation.Store
	Index         *storage.Index
	Logger        *slog.Logger
	Config        *config.Config
	FS            afero.Fs

	db *storage.DB
}

// AppConfig holds configuration for creating a new App instance
type AppConfig struct {
	Config *config.Config
	Logger *slog.Logger
	// FS defaults to the OS filesystem.
	FS afero.Fs
	// NoIndex skips opening the SQLite index.
	NoIndex bool
}

// New creates a new App instance with all services initialized. A failure
// to open the index is logged and the app continues without one.
func New(ctx context.Context, cfg AppConfig) (*App, error) {
	if cfg.Config == nil {
		return nil, fmt.Errorf("app: missing config")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	fsys := cfg.FS
	if fsys == nil {
		fsys = afero.NewOsFs()
	}

	provider := llmclient.NewClient(llmclient.Config{
		APIKey:  cfg.Config.APIKey,
		BaseURL: cfg.Config.BaseURL,
		Timeout: cfg.Config.Timeout,
		Logger:  logger,
	})

	// the index is shared across working directories, so rows are keyed by
	// the absolute conversations directory
	dir := cfg.Config.ConvosDir
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	store := conversation.NewStore(fsys, dir, cfg.Config.Model,
		conversation.WithLogger(logger))

	a := &App{
		ModelProvider: provider,
		Conversations: store,
		Logger:        logger,
		Config:        cfg.Config,
		FS:            fsys,
	}

	if !cfg.NoIndex && cfg.Config.IndexPath != "" {
		db, err := storage.Open(cfg.Config.IndexPath)
		if err != nil {
			logger.Warn("conversation index unavailable", "path", cfg.Config.IndexPath, "error", err)
		} else {
			a.db = db
			a.Index = storage.NewIndex(db, dir)
		}
	}

	return a, nil
}

// Model returns a client bound to the configured model.
func (a *App) Model(ctx context.Context) (aisdk.ModelClient, error) {
	return a.ModelProvider.Model(ctx, a.Config.Model)
}

// NewSession builds a session loop over the app services. cfg.Join is
// taken from the app config when unset.
func (a *App) NewSession(ctx context.Context, cfg session.Config, in io.Reader, out io.Writer, opts ...session.Option) (*session.Loop, error) {
	client, err := a.Model(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.Join == "" {
		mode := a.Config.JoinMode
		if mode == "" {
			mode = config.DefaultJoinMode
		}
		join, err := conversation.ParseJoinMode(mode)
		if err != nil {
			return nil, err
		}
		cfg.Join = join
	}

	opts = append([]session.Option{session.WithLogger(a.Logger)}, opts...)
	if a.Index != nil {
		opts = append(opts, session.WithRecorder(a.Index))
	}

	return session.New(cfg, a.Conversations, client, in, out, opts...), nil
}

// Close closes all resources held by the app
func (a *App) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
