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

package spreadsheet

import (
	"Unbewohnte/BlogDedup/internal/domain"
	"bytes"

	"github.com/tealeg/xlsx/v3"
)

const (
	TrendsSheet  = "Trends"
	SummarySheet = "Summary"
)

var trendHeaders = []string{
	"Created", "Updated", "Query", "Date", "Traffic",
	"Processed", "Article created", "Article ID", "Trend hash",
}

// GenerateTrendReport builds an in-memory XLSX workbook with one row per
// trend and, when stats is given, a summary sheet with the aggregate counts.
func GenerateTrendReport(trends []domain.TrendRecord, stats *domain.TrendStatistics) (*bytes.Buffer, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet(TrendsSheet)
	if err != nil {
		return nil, err
	}

	headerRow := sheet.AddRow()
	for _, h := range trendHeaders {
		cell := headerRow.AddCell()
		cell.Value = h
	}

	for _, trend := range trends {
		row := sheet.AddRow()

		row.AddCell().SetDateTime(trend.CreatedAt)
		row.AddCell().SetDateTime(trend.UpdatedAt)
		row.AddCell().SetString(trend.Query)
		row.AddCell().SetString(trend.Date)
		row.AddCell().SetString(trend.Traffic)
		row.AddCell().SetBool(trend.Processed)
		row.AddCell().SetBool(trend.ArticleCreated)
		row.AddCell().SetString(trend.ArticleID)
		row.AddCell().SetString(trend.TrendHash)
	}

	if stats != nil {
		summary, err := file.AddSheet(SummarySheet)
		if err != nil {
			return nil, err
		}

		for _, line := range []struct {
			name  string
			value int64
		}{
			{"Total processed", stats.TotalProcessed},
			{"Articles created", stats.ArticlesCreated},
			{"Duplicates skipped", stats.DuplicatesSkipped},
			{"Active blacklist entries", stats.BlacklistedActive},
		} {
			row := summary.AddRow()
			row.AddCell().SetString(line.name)
			row.AddCell().SetInt64(line.value)
		}
	}

	buf := new(bytes.Buffer)
	err = file.Write(buf)
	if err != nil {
		return nil, err
	}
	return buf, nil
}
