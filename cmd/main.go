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

package main

import (
	"Unbewohnte/BlogDedup/internal/app"
	"Unbewohnte/BlogDedup/internal/config"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

var (
	configPath = flag.String("config", "", "Path to the YAML configuration file (default $BLOGDEDUP_CONFIG or config.yaml)")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-config file] [command [args...]]\nRun \"help\" for the list of commands.\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	conf, err := config.Load(config.ResolvePath(*configPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not load configuration: %s\n", err)
		os.Exit(1)
	}

	application, err := app.New(conf, nil, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not start: %s\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = application.Run(ctx, flag.Args())
	stop()
	application.Close()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
