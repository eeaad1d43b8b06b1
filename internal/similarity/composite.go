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

package similarity

import "strings"

const (
	DefaultTitleWeight  = 0.4
	DefaultSampleLength = 500
)

// Composite weighs title overlap against overlap of a bounded body prefix.
type Composite struct {
	TitleWeight  float64 // 0.0-1.0
	BodyWeight   float64
	SampleLength int // runes of each body compared
}

type Breakdown struct {
	Title   float64 `json:"title"`
	Body    float64 `json:"body"`
	Overall float64 `json:"overall"`
}

func NewComposite(titleWeight float64, sampleLength int) *Composite {
	return &Composite{
		TitleWeight:  titleWeight,
		BodyWeight:   1.0 - titleWeight,
		SampleLength: sampleLength,
	}
}

func Default() *Composite {
	return NewComposite(DefaultTitleWeight, DefaultSampleLength)
}

func (cs *Composite) Compare(newTitle, newBody, candidateTitle, candidateBody string) Breakdown {
	titleSim := LexicalSimilarity(newTitle, candidateTitle)
	bodySim := LexicalSimilarity(
		Sample(newBody, cs.SampleLength),
		Sample(candidateBody, cs.SampleLength),
	)

	return Breakdown{
		Title:   titleSim,
		Body:    bodySim,
		Overall: clamp(titleSim*cs.TitleWeight + bodySim*cs.BodyWeight),
	}
}

// OverallSimilarity is the default weighted score of a candidate.
func OverallSimilarity(newTitle, newBody, candidateTitle, candidateBody string) float64 {
	return Default().Compare(newTitle, newBody, candidateTitle, candidateBody).Overall
}

// LexicalSimilarity is the Jaccard index of the lowercased whitespace tokens
// of both texts. Two texts without tokens score 0.
func LexicalSimilarity(text1, text2 string) float64 {
	set1 := tokenSet(text1)
	set2 := tokenSet(text2)

	intersection := 0
	for word := range set1 {
		if _, exists := set2[word]; exists {
			intersection++
		}
	}

	union := len(set1) + len(set2) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// Sample returns at most n leading runes of text. n <= 0 means no limit.
func Sample(text string, n int) string {
	if n <= 0 {
		return text
	}
	i := 0
	for pos := range text {
		if i == n {
			return text[:pos]
		}
		i++
	}
	return text
}

func tokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, word := range strings.Fields(strings.ToLower(text)) {
		set[word] = struct{}{}
	}
	return set
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
