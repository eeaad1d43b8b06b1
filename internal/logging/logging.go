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

package logging

import (
	"io"
	"log/slog"
	"os"
)

// New creates a text slog.Logger writing to w.
func New(w io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler)
}

// Open builds a logger writing to stdout and, when file is set, appending to
// that file as well. The returned close func is never nil.
func Open(level slog.Level, file string) (*slog.Logger, func() error, error) {
	if file == "" {
		return New(os.Stdout, level), func() error { return nil }, nil
	}

	logsFile, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}

	return New(io.MultiWriter(logsFile, os.Stdout), level), logsFile.Close, nil
}
