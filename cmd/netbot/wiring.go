package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/0xcro3dile/netbot-go/internal/adapters/gateway"
	"github.com/0xcro3dile/netbot-go/internal/config"
	"github.com/0xcro3dile/netbot-go/internal/domain/ports"
	"github.com/0xcro3dile/netbot-go/internal/domain/usecases"
	"github.com/0xcro3dile/netbot-go/internal/infrastructure/terminal"
)

// client bundles the stores and controller one command works with.
type client struct {
	cfg     *config.Config
	console *terminal.Console
	kb      *usecases.KnowledgeBaseStore
	conv    *usecases.ConversationStore
	ctrl    *usecases.IngestionController
}

// loadConfig reads and validates configuration, applying global flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if u := c.String("base-url"); u != "" {
		cfg.Server.BaseURL = u
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newClient wires the domain around an HTTP gateway.
// A nil prompter means the console itself answers confirmations.
func newClient(cfg *config.Config, prompter func(*terminal.Console) ports.Prompter) *client {
	gw := gateway.NewHTTPGateway(cfg.Server.BaseURL)
	console := terminal.NewConsole(os.Stdin, os.Stdout)

	var p ports.Prompter = console
	if prompter != nil {
		p = prompter(console)
	}

	kb := usecases.NewKnowledgeBaseStore(gw)
	conv := usecases.NewConversationStore(gw)
	return &client{
		cfg:     cfg,
		console: console,
		kb:      kb,
		conv:    conv,
		ctrl:    usecases.NewIngestionController(kb, conv, p),
	}
}

// printNotices echoes assistant messages as they are appended.
func (cl *client) printNotices() {
	printed := cl.conv.Len()
	cl.conv.OnChange(func() {
		msgs := cl.conv.Messages()
		for ; printed < len(msgs); printed++ {
			cl.console.PrintMessage(msgs[printed])
		}
	})
}

// assumeYes answers every confirmation with yes.
type assumeYes struct {
	*terminal.Console
}

func (assumeYes) Confirm(ctx context.Context, question string) bool {
	return true
}
