/*
   BlogDedup - trend and content deduplication service
   Copyright (C) 2025  Unbewohnte (Kasyanov Nikolay Alexeevich)

   This program is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   This program is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package app

import (
	"Unbewohnte/BlogDedup/internal/config"
	"Unbewohnte/BlogDedup/internal/db"
	"Unbewohnte/BlogDedup/internal/dedup"
	"Unbewohnte/BlogDedup/internal/logging"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// App owns the opened store and the registered CLI commands.
type App struct {
	conf     *config.Config
	logger   *slog.Logger
	closeLog func() error
	store    *db.DB
	checker  *dedup.Checker
	commands []Command
	out      io.Writer
}

// New opens logging and the database described by conf. A nil logger means
// "build one from conf.Logging".
func New(conf *config.Config, logger *slog.Logger, out io.Writer) (*App, error) {
	closeLog := func() error { return nil }
	if logger == nil {
		var err error
		logger, closeLog, err = logging.Open(conf.Logging.SlogLevel(), conf.Logging.File)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
	}

	store, err := db.NewDB(conf.Database.File)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("open database %s: %w", conf.Database.File, err)
	}

	checker := dedup.NewChecker(store, DedupOptions(conf), logger.With("component", "dedup"))

	app := &App{
		conf:     conf,
		logger:   logger,
		closeLog: closeLog,
		store:    store,
		checker:  checker,
		out:      out,
	}
	app.registerCommands()
	return app, nil
}

// DedupOptions maps the dedup section of the config onto checker options.
func DedupOptions(conf *config.Config) dedup.Options {
	opts := dedup.DefaultOptions()
	opts.SimilarityThreshold = conf.Dedup.SimilarityThreshold
	opts.RecentWindow = conf.Dedup.RecentWindow
	opts.SampleSize = conf.Dedup.SampleSize
	opts.ReviewThreshold = conf.Dedup.ReviewThreshold
	opts.RetentionDays = conf.Dedup.RetentionDays
	return opts
}

func (a *App) Close() error {
	return errors.Join(a.store.Close(), a.closeLog())
}

// Run executes the command named by args[0], "serve" when args is empty, and
// writes its output.
func (a *App) Run(ctx context.Context, args []string) error {
	name := "serve"
	if len(args) > 0 {
		name = strings.ToLower(strings.TrimSpace(args[0]))
		args = args[1:]
	}

	command := a.CommandByName(name)
	if command == nil {
		return a.unknownCommand(name)
	}

	output, err := command.Call(ctx, args)
	if err != nil {
		return fmt.Errorf("%s: %w", command.Name, err)
	}
	if output != "" {
		fmt.Fprintln(a.out, output)
	}
	return nil
}

func (a *App) unknownCommand(name string) error {
	similar := a.findSimilarCommands(name)
	if len(similar) == 0 {
		return fmt.Errorf("command %q does not exist", name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "unknown command %q. Did you mean one of these?", name)
	for _, cmd := range similar {
		if command := a.CommandByName(cmd); command != nil {
			fmt.Fprintf(&b, "\n  %s - %s", command.Name, command.Description)
		}
	}
	return errors.New(b.String())
}
