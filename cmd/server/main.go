package main

import (
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"rolegate/bot"
	"rolegate/impl/auth"
	"rolegate/impl/core"
	"rolegate/impl/redeem"
	"rolegate/internal/config"
	"rolegate/internal/database"
	"rolegate/internal/guild"
	"rolegate/internal/http-server/api"
	"rolegate/lib/logger"
	"rolegate/lib/sl"
)

const logFileName = "rolegate.log"

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

// run owns the service lifecycle; returning instead of exiting lets the
// deferred store and session closes fire on a failed start.
func run() error {
	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	lg := logger.SetupLogger(conf.Env, filepath.Join(*logPath, logFileName))
	lg.Info("starting rolegate", slog.String("config", *configPath), slog.String("env", conf.Env))

	store, err := database.NewSQLClient(conf)
	if err != nil {
		lg.Error("member store", sl.Err(err))
		return err
	}
	defer store.Close()

	journal := database.NewMongoClient(conf)
	if journal == nil {
		lg.Warn("redemption journal disabled")
	}

	guildClient, err := guild.New(conf.Discord, lg)
	if err != nil {
		lg.Error("guild client", sl.Err(err))
		return err
	}
	if err = guildClient.Connect(); err != nil {
		lg.Error("guild connect", sl.Err(err))
		return err
	}
	defer guildClient.Close()

	// once the session is up, error-level records can reach the ops channel
	if conf.Discord.OpsChannelId != "" {
		lg = slog.New(logger.NewDiscordHandler(lg.Handler(), guildClient, slog.LevelError))
	}

	redeemer := redeem.New(store, guildClient, journalOrNil(journal), lg)

	dcBot, err := bot.New(conf.Discord, guildClient, redeemer, lg)
	if err != nil {
		lg.Error("discord bot", sl.Err(err))
		return err
	}
	if err = dcBot.Start(); err != nil {
		lg.Error("discord bot start", sl.Err(err))
		return err
	}
	defer dcBot.Stop()

	handler := core.New(store, guildClient, lg)
	handler.SetAuthService(auth.New(conf.Api.Users))
	if journal != nil {
		handler.SetJournal(journal)
	}

	apiErr := make(chan error, 1)
	go func() {
		apiErr <- api.New(conf, lg, handler)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err = <-apiErr:
		if err != nil {
			lg.Error("api server", sl.Err(err))
			return err
		}
	case sig := <-stop:
		lg.Info("shutting down", slog.String("signal", sig.String()))
	}
	return nil
}

// journalOrNil keeps the typed-nil *MongoDB out of the Journal interface.
func journalOrNil(journal *database.MongoDB) redeem.Journal {
	if journal == nil {
		return nil
	}
	return journal
}
