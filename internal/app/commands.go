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
	"Unbewohnte/BlogDedup/internal/api"
	"Unbewohnte/BlogDedup/internal/fingerprint"
	"Unbewohnte/BlogDedup/internal/scheduler"
	"Unbewohnte/BlogDedup/internal/spreadsheet"
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

type Command struct {
	Name        string
	Description string
	Example     string
	Group       string
	Call        func(ctx context.Context, args []string) (string, error)
}

func (a *App) NewCommand(cmd Command) {
	a.commands = append(a.commands, cmd)
}

func (a *App) CommandByName(name string) *Command {
	for i := range a.commands {
		if a.commands[i].Name == name {
			return &a.commands[i]
		}
	}

	return nil
}

func (a *App) registerCommands() {
	a.NewCommand(Command{
		Name:        "help",
		Description: "Print this help message or the help of one command",
		Example:     "help cleanup",
		Group:       "General",
		Call:        a.Help,
	})

	a.NewCommand(Command{
		Name:        "serve",
		Description: "Start the HTTP API and the scheduled cleanup",
		Group:       "General",
		Call:        a.Serve,
	})

	a.NewCommand(Command{
		Name:        "token",
		Description: "Issue a signed bearer token for a pipeline client",
		Example:     "token trend-ingestor",
		Group:       "General",
		Call:        a.Token,
	})

	a.NewCommand(Command{
		Name:        "stats",
		Description: "Print trend processing statistics",
		Group:       "Trends",
		Call:        a.Stats,
	})

	a.NewCommand(Command{
		Name:        "cleanup",
		Description: "Remove trends older than N days that never produced an article",
		Example:     "cleanup 30",
		Group:       "Trends",
		Call:        a.Cleanup,
	})

	a.NewCommand(Command{
		Name:        "export",
		Description: "Write all trends and statistics into an XLSX file",
		Example:     "export trends.xlsx",
		Group:       "Trends",
		Call:        a.Export,
	})

	a.NewCommand(Command{
		Name:        "hash",
		Description: "Print the fingerprint of a trend",
		Example:     `hash "solar panels" 2024-01-01 200K+`,
		Group:       "Trends",
		Call:        a.Hash,
	})

	a.NewCommand(Command{
		Name:        "blacklist-add",
		Description: "Blacklist a keyword",
		Example:     "blacklist-add crypto finance spam",
		Group:       "Blacklist",
		Call:        a.BlacklistAdd,
	})

	a.NewCommand(Command{
		Name:        "blacklist-list",
		Description: "List blacklisted keywords",
		Group:       "Blacklist",
		Call:        a.BlacklistList,
	})
}

func constructCommandHelpMessage(command Command) string {
	commandHelp := fmt.Sprintf("\n  %s - %s\n", command.Name, command.Description)
	if command.Example != "" {
		commandHelp += fmt.Sprintf("    example: %s\n", command.Example)
	}

	return commandHelp
}

func (a *App) Help(_ context.Context, args []string) (string, error) {
	if len(args) > 0 {
		// Only the requested command
		command := a.CommandByName(strings.ToLower(args[0]))
		if command != nil {
			return constructCommandHelpMessage(*command), nil
		}
		return "", a.unknownCommand(args[0])
	}

	var helpMessage string

	commandsByGroup := make(map[string][]Command)
	for _, command := range a.commands {
		commandsByGroup[command.Group] = append(commandsByGroup[command.Group], command)
	}

	groups := []string{}
	for g := range commandsByGroup {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	for _, group := range groups {
		helpMessage += fmt.Sprintf("\n[%s]\n", group)
		for _, command := range commandsByGroup[group] {
			helpMessage += constructCommandHelpMessage(command)
		}
	}

	return helpMessage, nil
}

func (a *App) Serve(ctx context.Context, _ []string) (string, error) {
	server := api.NewServer(api.Config{
		APIToken:            a.conf.Auth.APIToken,
		TokenTTL:            a.conf.Auth.TokenTTL(),
		Environment:         a.conf.Environment,
		Version:             a.conf.Version,
		SimilarityThreshold: a.conf.Dedup.SimilarityThreshold,
	}, a.store, a.checker, a.logger.With("component", "api"))

	if a.conf.Auth.APIToken == "" {
		a.logger.Warn("no API token configured, every protected request will be rejected")
	}

	if a.conf.Cleanup.Enabled {
		cleanup := scheduler.New(
			a.conf.Cleanup.Location(),
			a.checker,
			a.conf.Dedup.RetentionDays,
			a.logger.With("component", "scheduler"),
		)
		cleanup.OnCleanup(func(removed int64) {
			server.Hub().Publish(api.EventTrendsCleanup, map[string]any{
				"removed":       removed,
				"retentionDays": a.conf.Dedup.RetentionDays,
			})
		})
		if err := cleanup.Schedule(a.conf.Cleanup.Schedule); err != nil {
			return "", err
		}
		cleanup.Start()
		defer cleanup.Stop()
		a.logger.Info("cleanup scheduled", "schedule", a.conf.Cleanup.Schedule, "next", cleanup.Next())
	}

	err := server.ListenAndServe(ctx, api.ListenOptions{
		Address:         a.conf.Server.Address,
		ReadTimeout:     a.conf.Server.ReadTimeout(),
		WriteTimeout:    a.conf.Server.WriteTimeout(),
		ShutdownTimeout: a.conf.Server.ShutdownTimeout(),
	})
	if err != nil {
		return "", err
	}
	return "", nil
}

func (a *App) Token(_ context.Context, args []string) (string, error) {
	subject := "pipeline"
	if len(args) > 0 {
		subject = strings.Join(args, " ")
	}

	token, err := api.IssueToken(a.conf.Auth.APIToken, subject, a.conf.Auth.TokenTTL(), time.Now())
	if err != nil {
		return "", err
	}
	return token, nil
}

func (a *App) Stats(ctx context.Context, _ []string) (string, error) {
	stats, err := a.checker.Statistics(ctx)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(
		"Total processed: %d\nArticles created: %d\nDuplicates skipped: %d\nActive blacklist entries: %d",
		stats.TotalProcessed,
		stats.ArticlesCreated,
		stats.DuplicatesSkipped,
		stats.BlacklistedActive,
	), nil
}

func (a *App) Cleanup(ctx context.Context, args []string) (string, error) {
	days := a.conf.Dedup.RetentionDays
	if len(args) > 0 {
		parsed, err := strconv.Atoi(args[0])
		if err != nil || parsed <= 0 {
			return "", fmt.Errorf("invalid number of days %q", args[0])
		}
		days = parsed
	}

	removed, err := a.checker.CleanupStale(ctx, days)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Removed %d stale trends older than %d days", removed, days), nil
}

func (a *App) Export(ctx context.Context, args []string) (string, error) {
	if len(args) == 0 {
		return "", errors.New("output file not specified")
	}

	trends, err := a.store.ListTrends(ctx, 0)
	if err != nil {
		return "", err
	}
	stats, err := a.checker.Statistics(ctx)
	if err != nil {
		return "", err
	}

	buf, err := spreadsheet.GenerateTrendReport(trends, &stats)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(args[0], buf.Bytes(), 0o644); err != nil {
		return "", err
	}
	return fmt.Sprintf("Exported %d trends to %s", len(trends), args[0]), nil
}

func (a *App) Hash(_ context.Context, args []string) (string, error) {
	if len(args) < 2 {
		return "", errors.New("usage: hash <query> <date> [traffic]")
	}

	traffic := ""
	if len(args) > 2 {
		traffic = args[2]
	}
	return fingerprint.Trend(args[0], args[1], traffic), nil
}

func (a *App) BlacklistAdd(ctx context.Context, args []string) (string, error) {
	if len(args) == 0 {
		return "", errors.New("keyword not specified")
	}

	entry, err := a.checker.AddToBlacklist(ctx, args[0], strings.Join(args[1:], " "))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Blacklisted %q (id %s)", entry.Keyword, entry.ID), nil
}

func (a *App) BlacklistList(ctx context.Context, _ []string) (string, error) {
	entries, err := a.store.ListBlacklist(ctx, false)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "Blacklist is empty", nil
	}

	var b strings.Builder
	for _, entry := range entries {
		state := "active"
		if !entry.Active {
			state = "inactive"
		}
		fmt.Fprintf(&b, "%s\t%s\t%s\t%s\n", entry.ID, entry.Keyword, state, entry.Reason)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
