package cli

import (
	"github.com/mrz1836/tessera/internal/config"
	"github.com/mrz1836/tessera/internal/output"
	"github.com/mrz1836/tessera/internal/wallet"
)

// CommandContext holds dependencies for CLI commands.
type CommandContext struct {
	Config    ConfigProvider
	Logger    LogWriter
	Formatter *output.Formatter
	Storage   wallet.Storage
}

// NewCommandContext creates a context with the given dependencies and a
// file storage under the configured home.
func NewCommandContext(c *config.Config, l *config.Logger, f *output.Formatter) *CommandContext {
	return &CommandContext{
		Config:    c,
		Logger:    l,
		Formatter: f,
		Storage:   wallet.NewFileStorage(c.WalletsDir()),
	}
}

// WithStorage sets the wallet storage.
func (c *CommandContext) WithStorage(s wallet.Storage) *CommandContext {
	c.Storage = s
	return c
}

// currentContext builds a context from the globals set up by the root command.
func currentContext() *CommandContext {
	return NewCommandContext(cfg, logger, formatter)
}
