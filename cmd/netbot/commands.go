package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/0xcro3dile/netbot-go/internal/adapters/filewatcher"
	"github.com/0xcro3dile/netbot-go/internal/adapters/loader"
	"github.com/0xcro3dile/netbot-go/internal/config"
	"github.com/0xcro3dile/netbot-go/internal/domain/ports"
	"github.com/0xcro3dile/netbot-go/internal/domain/usecases"
	"github.com/0xcro3dile/netbot-go/internal/infrastructure/terminal"
	"github.com/0xcro3dile/netbot-go/internal/logging"
)

// ChatCommand returns the interactive chat command
func ChatCommand() *cli.Command {
	return &cli.Command{
		Name:   "chat",
		Usage:  "Start an interactive chat session (default)",
		Action: runChat,
	}
}

// AskCommand returns the one-shot question command
func AskCommand() *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "Ask a single question and print the answer",
		ArgsUsage: "QUESTION...",
		Action:    runAsk,
	}
}

// DocsCommand returns the knowledge-base management command
func DocsCommand() *cli.Command {
	titleFlag := &cli.StringFlag{
		Name:    "title",
		Aliases: []string{"t"},
		Usage:   "Display title (defaults to the server's choice)",
	}
	return &cli.Command{
		Name:  "docs",
		Usage: "Manage the knowledge base",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List documents",
				Action: runDocsList,
			},
			{
				Name:      "add-file",
				Usage:     "Upload a file",
				ArgsUsage: "PATH",
				Flags:     []cli.Flag{titleFlag},
				Action:    runDocsAddFile,
			},
			{
				Name:      "add-url",
				Usage:     "Ingest a web page",
				ArgsUsage: "URL",
				Flags:     []cli.Flag{titleFlag},
				Action:    runDocsAddURL,
			},
			{
				Name:      "rm",
				Usage:     "Remove a document",
				ArgsUsage: "ID",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "Do not ask for confirmation",
					},
				},
				Action: runDocsRemove,
			},
		},
	}
}

// WatchCommand returns the folder ingestion command
func WatchCommand() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Upload every supported file dropped into a directory",
		ArgsUsage: "DIR",
		Action:    runWatch,
	}
}

// ConfigCommand returns the config command
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage configuration",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Initialize a new configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
						Value:   "netbot.toml",
					},
				},
				Action: runConfigInit,
			},
			{
				Name:   "validate",
				Usage:  "Validate the configuration",
				Action: runConfigValidate,
			},
		},
	}
}

func runChat(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	closer := logging.SetupFile(cfg.Log.Level, cfg.Log.File)
	defer closer.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()

	cl := newClient(cfg, nil)
	session := terminal.NewSession(cl.console, cl.conv, cl.kb, cl.ctrl, loader.NewFileLoader(cfg.Watch.Extensions))
	log.Info().Str("base_url", cfg.Server.BaseURL).Msg("chat session started")
	return session.Run(ctx)
}

func runAsk(c *cli.Context) error {
	question := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(question) == "" {
		return cli.Exit("a question is required", 2)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logging.Stderr(cfg.Log.Level)

	cl := newClient(cfg, nil)
	cl.conv.SetDraft(question)
	cl.conv.Send(c.Context)

	msgs := cl.conv.Messages()
	reply := msgs[len(msgs)-1]
	cl.console.PrintMessage(reply)
	if reply.Content == usecases.ChatErrorReply {
		return cli.Exit("", 1)
	}
	return nil
}

func runDocsList(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logging.Stderr(cfg.Log.Level)

	cl := newClient(cfg, nil)
	if err := cl.kb.Refresh(c.Context); err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}
	cl.console.PrintDocuments(cl.kb.Documents(), false)
	return nil
}

func runDocsAddFile(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: netbot docs add-file [--title TITLE] PATH", 2)
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logging.Stderr(cfg.Log.Level)

	file, err := loader.NewFileLoader(cfg.Watch.Extensions).Load(c.Context, c.Args().First())
	if err != nil {
		return err
	}

	cl := newClient(cfg, nil)
	cl.printNotices()
	cl.ctrl.OpenFile()
	cl.ctrl.SelectFile(*file)
	cl.ctrl.SetFileTitle(c.String("title"))
	if err := cl.ctrl.SubmitFile(c.Context); err != nil {
		return cli.Exit("", 1)
	}
	return nil
}

func runDocsAddURL(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: netbot docs add-url [--title TITLE] URL", 2)
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logging.Stderr(cfg.Log.Level)

	cl := newClient(cfg, nil)
	cl.printNotices()
	cl.ctrl.OpenURL()
	cl.ctrl.SetURL(c.Args().First())
	cl.ctrl.SetURLTitle(c.String("title"))
	if err := cl.ctrl.SubmitURL(c.Context); err != nil {
		return cli.Exit("", 1)
	}
	return nil
}

func runDocsRemove(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: netbot docs rm [--yes] ID", 2)
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logging.Stderr(cfg.Log.Level)

	var prompter func(*terminal.Console) ports.Prompter
	if c.Bool("yes") {
		prompter = func(console *terminal.Console) ports.Prompter { return assumeYes{console} }
	}
	cl := newClient(cfg, prompter)
	cl.printNotices()

	// Titles come from the listing; a failed refresh only costs the title.
	if err := cl.kb.Refresh(c.Context); err != nil {
		log.Debug().Err(err).Msg("listing unavailable, deleting without a title")
	}

	deleted, err := cl.ctrl.ConfirmAndDelete(c.Context, c.Args().First(), "")
	if err != nil {
		return cli.Exit("", 1)
	}
	if !deleted {
		cl.console.Mutedf("Cancelled.")
	}
	return nil
}

func runWatch(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: netbot watch DIR", 2)
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logging.Stderr(cfg.Log.Level)

	watcher, err := filewatcher.NewFSNotifyWatcher(cfg.Watch.Extensions)
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer watcher.Stop()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()

	cl := newClient(cfg, nil)
	cl.printNotices()
	ingestor := usecases.NewFolderIngestor(watcher, loader.NewFileLoader(cfg.Watch.Extensions), cl.ctrl)

	err = ingestor.Run(ctx, c.Args().First())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runConfigInit(c *cli.Context) error {
	outputPath := c.String("output")

	if err := config.InitConfig(outputPath); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Created configuration file at %s\n", outputPath)
	return nil
}

func runConfigValidate(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	fmt.Println("Configuration is valid")
	fmt.Printf("  server.base_url  = %s\n", cfg.Server.BaseURL)
	fmt.Printf("  log.level        = %s\n", cfg.Log.Level)
	fmt.Printf("  log.file         = %s\n", cfg.Log.File)
	fmt.Printf("  watch.extensions = %s\n", strings.Join(cfg.Watch.Extensions, ", "))
	return nil
}
