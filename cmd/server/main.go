// cmd/server/main.go
package main

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/quipset/quipset/internal/auth"
	"github.com/quipset/quipset/internal/config"
	"github.com/quipset/quipset/internal/game"
	"github.com/quipset/quipset/internal/handlers"
	"github.com/quipset/quipset/internal/journal"
	"github.com/quipset/quipset/internal/middleware"
	"github.com/quipset/quipset/internal/prompts"
)

func main() {
	log.SetFlags(0)
	cfg := config.FromEnv()
	cobra.CheckErr(newCmd(&cfg).Execute())
}

func newCmd(cfg *config.Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("QUIPSET")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var verbose bool

	cmd := &cobra.Command{
		Use:           "quipset",
		Short:         "Real-time fill-in-the-blank party game server.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cfg, verbose)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVar(&cfg.ListenAddr, "listen-addr", cfg.ListenAddr, "address to listen on (env: QUIPSET_LISTEN_ADDR)")
	fs.StringVar(&cfg.PromptServiceURL, "prompt-service-url", cfg.PromptServiceURL, "base URL of the prompt/answer text service (env: QUIPSET_PROMPT_SERVICE_URL)")
	fs.StringVar(&cfg.DefaultDifficulty, "difficulty", cfg.DefaultDifficulty, "default prompt difficulty tag (env: QUIPSET_DIFFICULTY)")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "Redis address for the event journal, empty disables it (env: QUIPSET_REDIS_ADDR)")
	fs.StringVar(&cfg.JournalQueue, "journal-queue", cfg.JournalQueue, "Redis list events are pushed to (env: QUIPSET_JOURNAL_QUEUE)")
	fs.BoolVar(&cfg.PermissiveStart, "permissive-start", cfg.PermissiveStart, "allow single-participant session starts (env: QUIPSET_PERMISSIVE_START)")
	fs.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging (env: QUIPSET_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})

	return cmd
}

func serve(cfg *config.Config, verbose bool) error {
	if err := auth.Init(); err != nil {
		return err
	}

	logger := logrus.New()
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	var j *journal.Journal
	if cfg.RedisAddr != "" {
		var err error
		j, err = journal.Connect(cfg.RedisAddr, cfg.JournalQueue)
		if err != nil {
			logger.Warnf("event journal disabled: %v", err)
			j = nil
		}
	}

	source := prompts.NewClient(cfg.PromptServiceURL)
	registry := game.NewRegistry(source, logger)
	srv := handlers.NewGameServer(registry, j, logger)
	srv.Permissive = cfg.PermissiveStart
	srv.DefaultDifficulty = cfg.DefaultDifficulty

	mux := http.NewServeMux()

	logged := middleware.LogMiddleware(logger)

	mux.Handle("/session/create", logged(srv.CreateSessionHandler()))
	mux.Handle("/session/qr/", logged(srv.QRHandler()))
	mux.Handle("/session/ws/", srv.SessionWSHandler())

	logger.Infof("Running on %s", cfg.ListenAddr)
	return http.ListenAndServe(cfg.ListenAddr, mux)
}
