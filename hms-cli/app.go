// Package hmscli provides the shared CLI boilerplate for the chat services:
// service descriptors, common flags, structured logging and build info.
package hmscli

import (
	"fmt"
	"runtime/debug"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

func App(service Service, action cli.ActionFunc, flags ...cli.Flag) *cli.App {
	return &cli.App{
		Name:                 service.Name,
		Usage:                fmt.Sprintf("%v server", service.Name),
		Version:              service.Version,
		EnableBashCompletion: true,
		Before:               InitCommonOpts,
		Action:               action,
		Flags:                flags,
	}
}

// InitCommonOpts validates CommonOpts after flag parsing.
func InitCommonOpts(c *cli.Context) error {
	if CommonOpts.LogLevel == "" {
		return nil
	}
	if _, err := zerolog.ParseLevel(CommonOpts.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", CommonOpts.LogLevel, err)
	}
	return nil
}

func CommitHash() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				return setting.Value
			}
		}
		return info.Main.Version
	}
	return "unknown"
}
