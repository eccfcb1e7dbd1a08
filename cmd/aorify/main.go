// aorify is a command-line client for the video sharing backend. It signs
// users in and out, lists and searches posts, uploads videos and manages
// bookmarks.
//
// The session is kept in the store selected by SESSION_STORE, so a sign-in
// survives between invocations when the file or redis store is used.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"aorify/internal/config"
	"aorify/internal/logging"
	"aorify/internal/media"
	"aorify/internal/remote"
	"aorify/internal/service"
	"aorify/internal/session"
	"aorify/internal/sessionstore"
)

func main() {
	if err := run(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

type app struct {
	actions   *session.Actions
	auth      *service.AuthService
	posts     *service.PostService
	bookmarks *service.BookmarkService
}

func run() error {
	flagSet := pflag.NewFlagSet("aorify", pflag.ContinueOnError)
	logLevel := flagSet.String("log-level", "", "log level (overrides LOG_LEVEL)")
	flagSet.SetInterspersed(false)
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help || flagSet.NArg() == 0 {
		printHelp(flagSet)
		return nil
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := sessionstore.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logrus.WithError(err).Warn("close session store")
		}
	}()

	client := remote.NewClient(remote.OptionsFromConfig(cfg), store)

	var storage remote.StorageAPI = client
	if cfg.StorageDriver == config.StorageDriverR2 {
		r2, err := media.NewR2Storage(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to set up R2 storage: %w", err)
		}
		storage = r2
	}

	ids := service.CollectionsFromConfig(cfg)
	a := &app{
		auth:      service.NewAuthService(client, client, client, ids, nil),
		posts:     service.NewPostService(client, storage, ids, nil),
		bookmarks: service.NewBookmarkService(client, ids, nil),
	}
	a.actions = session.NewActions(session.NewState(), a.auth, a.bookmarks, a.posts)
	a.actions.Bootstrap(ctx)

	return a.dispatch(ctx, flagSet.Arg(0), flagSet.Args()[1:])
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `aorify: command-line client for the video sharing backend.

Usage: aorify [flags] <command> [args]

Commands:
  signup --email E --password P --username U
  signin --email E --password P
  signout
  whoami
  posts                       list all posts, newest first
  latest                      list the most recent posts
  search <query>              search post titles
  user-posts [user-id]        list a user's posts (default: signed-in user)
  create-video --title T --prompt P --thumbnail FILE --video FILE
  delete-video <post-id>
  save <post-id>
  unsave <post-id>
  saved                       list the signed-in user's saved posts
  bookmarks                   list the signed-in user's saved post ids

Flags:
%s`, flagSet.FlagUsages())
}
