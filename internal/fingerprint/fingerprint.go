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

package fingerprint

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"regexp"
	"strings"
	"unicode"
)

// The whitespace class matches ECMAScript's \s, which unlike RE2's also
// covers \v, U+FEFF and the Unicode separators.
var (
	whitespaceRun = regexp.MustCompile(`[\s\v\p{Z}\x{FEFF}]+`)
	nonWord       = regexp.MustCompile(`[^\w\s\v\p{Z}\x{FEFF}]`)

	// Escaped backslashes are matched first so `\\u2028` stays untouched.
	lineSeparators = strings.NewReplacer(`\\`, `\\`, `\u2028`, "\u2028", `\u2029`, "\u2029")
)

func isSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', '\uFEFF':
		return true
	}
	return unicode.Is(unicode.Z, r)
}

func trimSpace(s string) string {
	return strings.TrimFunc(s, isSpace)
}

// trendKey field order is part of the digest.
type trendKey struct {
	Query   string `json:"query"`
	Date    string `json:"date"`
	Traffic string `json:"traffic"`
}

// Trend returns the hex SHA-256 of the canonical JSON form of a trend.
// The query is lowercased and trimmed; a missing traffic value is "".
func Trend(query, date, traffic string) string {
	key := trendKey{
		Query:   trimSpace(strings.ToLower(query)),
		Date:    date,
		Traffic: traffic,
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// A struct of strings always encodes.
	_ = enc.Encode(key)

	// encoding/json always escapes U+2028 and U+2029, JSON.stringify does not.
	encoded := lineSeparators.Replace(string(bytes.TrimRight(buf.Bytes(), "\n")))
	return digest([]byte(encoded))
}

// NormalizeContent lowercases body, collapses whitespace runs and drops every
// character that is neither an ASCII word character nor whitespace.
func NormalizeContent(body string) string {
	normalized := strings.ToLower(body)
	normalized = whitespaceRun.ReplaceAllString(normalized, " ")
	normalized = nonWord.ReplaceAllString(normalized, "")
	return trimSpace(normalized)
}

// Content returns the hex SHA-256 of the lowercased title joined with the
// normalized body.
func Content(title, body string) string {
	return digest([]byte(strings.ToLower(title) + "_" + NormalizeContent(body)))
}

func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
