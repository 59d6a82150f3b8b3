// SPDX-License-Identifier: Apache-2.0

package structure

import "regexp"

// Requirement marker sub-patterns. Each one counts independently.
var (
	hierarchicalMarker = regexp.MustCompile(`(?m)^[ \t]*\d+(?:\.\d+){2,}\.?[ \t]`)
	letteredMarker     = regexp.MustCompile(`(?m)^[ \t]*[a-z]\)[ \t]`)
	bulletMarker       = regexp.MustCompile(`(?m)^[ \t]*[•●▪■◦·][ \t]*\S`)
	dashMarker         = regexp.MustCompile(`(?m)^[ \t]*[-–—][ \t]*\p{Lu}`)
)

// MarkerCounts holds the per-pattern requirement marker counts of a page.
type MarkerCounts struct {
	Hierarchical int
	Lettered     int
	Bullets      int
	DashLines    int
}

// Total sums the independent counts.
func (m MarkerCounts) Total() int {
	return m.Hierarchical + m.Lettered + m.Bullets + m.DashLines
}

// CountHierarchical counts lines opening with d.d.d numbering.
func CountHierarchical(text string) int {
	return len(hierarchicalMarker.FindAllStringIndex(text, -1))
}

// CountLettered counts lines opening with a lettered sub-item such as "a)".
func CountLettered(text string) int {
	return len(letteredMarker.FindAllStringIndex(text, -1))
}

// CountBullets counts lines opening with a bullet glyph.
func CountBullets(text string) int {
	return len(bulletMarker.FindAllStringIndex(text, -1))
}

// CountDashLines counts dash-prefixed lines starting with a capital letter.
func CountDashLines(text string) int {
	return len(dashMarker.FindAllStringIndex(text, -1))
}

// CountRequirementMarkers applies all four sub-patterns to text.
func CountRequirementMarkers(text string) MarkerCounts {
	return MarkerCounts{
		Hierarchical: CountHierarchical(text),
		Lettered:     CountLettered(text),
		Bullets:      CountBullets(text),
		DashLines:    CountDashLines(text),
	}
}
