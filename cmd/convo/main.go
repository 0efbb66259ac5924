package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/elee1766/convo/src/app"
	"github.com/elee1766/convo/src/config"
	"github.com/spf13/afero"
)

var version = "dev"

// CLI represents the main CLI structure
type CLI struct {
	APIKey    string        `env:"API_KEY,MISTRAL_API_KEY" help:"Completion service API key"`
	BaseURL   string        `env:"CONVO_BASE_URL" default:"https://api.mistral.ai/v1" help:"OpenAI-compatible API base URL"`
	Model     string        `short:"m" env:"CONVO_MODEL" default:"open-mixtral-8x7b" help:"Model to chat with"`
	Preprompt string        `env:"CONVO_PREPROMPT" default:"preprompt.txt" help:"File holding the instruction preamble"`
	ConvosDir string        `env:"CONVO_DIR" default:"convos" help:"Directory holding conversation files"`
	Join      string        `default:"space" enum:"space,concat" help:"How streamed fragments are joined in saved replies (space, concat)"`
	Index     string        `help:"Conversation index database (default: XDG state dir)"`
	NoIndex   bool          `help:"Do not maintain the SQLite conversation index"`
	Timeout   time.Duration `default:"60s" help:"Timeout for non-streaming requests"`
	LogLevel  string        `default:"warn" enum:"debug,info,warn,warning,error" help:"Log level"`

	Version kong.VersionFlag `help:"Print version and exit"`

	// Chat is the default command - interactive session
	Chat   ChatCmd   `cmd:"" default:"1" help:"Start an interactive chat (default)"`
	List   ListCmd   `cmd:"" help:"List saved conversations"`
	Show   ShowCmd   `cmd:"" help:"Print a saved conversation"`
	Models ModelsCmd `cmd:"" help:"Inspect models offered by the service"`
}

func main() {
	// .env is applied before parsing so kong's env lookups see it
	if _, err := config.LoadDotEnv(afero.NewOsFs(), ".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitConfig)
	}

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("convo"),
		kong.Description("Terminal chat client with per-conversation history"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Configuration(kong.JSON, config.DefaultConfigPath()),
		kong.Vars{"version": version},
	)

	logger := createCLILogger(cli.LogLevel)
	slog.SetDefault(logger)

	if err := ctx.Run(&cli, logger); err != nil {
		NewErrorHandler(logger).HandleError(err)
	}
}

// config builds the runtime configuration from parsed flags.
func (c *CLI) config() *config.Config {
	cfg := config.DefaultConfig()
	cfg.APIKey = c.APIKey
	cfg.BaseURL = c.BaseURL
	cfg.Model = c.Model
	cfg.PrepromptPath = c.Preprompt
	cfg.ConvosDir = c.ConvosDir
	cfg.JoinMode = c.Join
	cfg.LogLevel = c.LogLevel
	cfg.Timeout = c.Timeout
	if c.Index != "" {
		cfg.IndexPath = c.Index
	}
	return cfg
}

// newApp validates the configuration and initializes services. Commands
// that never call the completion service pass requireKey=false.
func (c *CLI) newApp(ctx context.Context, logger *slog.Logger, requireKey bool) (*app.App, error) {
	cfg := c.config()

	v := config.NewValidator()
	validate := v.ValidateLocal
	if requireKey {
		validate = v.Validate
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return app.New(ctx, app.AppConfig{
		Config:  cfg,
		Logger:  logger,
		NoIndex: c.NoIndex,
	})
}
