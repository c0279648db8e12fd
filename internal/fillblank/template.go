// Package fillblank implements the fill-in-the-blank question engine: template
// parsing, blank configuration sync, answer evaluation and author-time validation.
//
// Every function in this package is pure. Nothing here performs I/O, holds shared
// state or returns an error for malformed user content.
package fillblank

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// blankPattern matches a single placeholder such as {BLANK_12}.
var blankPattern = regexp.MustCompile(`\{BLANK_(\d+)\}`)

// UnansweredMarker is rendered by Fill for blanks without a value.
const UnansweredMarker = "___"

type SegmentKind string

const (
	SegmentText  SegmentKind = "text"
	SegmentBlank SegmentKind = "blank"
)

// Segment is one piece of a parsed template. For blank segments Content holds the
// raw token exactly as it appeared in the question text.
type Segment struct {
	Kind    SegmentKind `json:"kind"`
	Content string      `json:"content"`
	BlankID int         `json:"blank_id,omitempty"`
}

// IsBlank reports whether the segment is a blank placeholder.
func (s Segment) IsBlank() bool {
	return s.Kind == SegmentBlank
}

// Template is the parsed form of a question text.
type Template struct {
	RawText  string    `json:"raw_text"`
	Segments []Segment `json:"segments"`
}

// String concatenates the segment contents. For any parsed template it equals RawText.
func (t Template) String() string {
	var b strings.Builder
	b.Grow(len(t.RawText))
	for _, seg := range t.Segments {
		b.WriteString(seg.Content)
	}
	return b.String()
}

// BlankIDs returns the distinct blank ids of the template in ascending order.
func (t Template) BlankIDs() []int {
	return BlankIDs(t)
}

// HasBlank reports whether id occurs at least once in the template.
func (t Template) HasBlank(id int) bool {
	for _, seg := range t.Segments {
		if seg.IsBlank() && seg.BlankID == id {
			return true
		}
	}
	return false
}

// BlankPosition locates one blank occurrence inside the raw text (byte offsets).
type BlankPosition struct {
	BlankID     int    `json:"blank_id"`
	StartIndex  int    `json:"start_index"`
	EndIndex    int    `json:"end_index"`
	Placeholder string `json:"placeholder"`
}

// Token returns the canonical placeholder for a blank id.
func Token(id int) string {
	return fmt.Sprintf("{BLANK_%d}", id)
}

// Parse splits raw question text into text and blank segments. Tokens that do not
// form a valid placeholder stay in the surrounding text. Repeated ids produce
// repeated blank segments.
func Parse(raw string) Template {
	tmpl := Template{RawText: raw, Segments: []Segment{}}

	var text strings.Builder
	flush := func() {
		if text.Len() > 0 {
			tmpl.Segments = append(tmpl.Segments, Segment{Kind: SegmentText, Content: text.String()})
			text.Reset()
		}
	}

	last := 0
	for _, pos := range scan(raw) {
		text.WriteString(raw[last:pos.StartIndex])
		flush()
		tmpl.Segments = append(tmpl.Segments, Segment{
			Kind:    SegmentBlank,
			Content: pos.Placeholder,
			BlankID: pos.BlankID,
		})
		last = pos.EndIndex
	}
	text.WriteString(raw[last:])
	flush()

	return tmpl
}

// BlankIDs returns the ascending set of distinct blank ids found in t.
func BlankIDs(t Template) []int {
	seen := make(map[int]struct{})
	ids := make([]int, 0)
	for _, seg := range t.Segments {
		if !seg.IsBlank() {
			continue
		}
		if _, ok := seen[seg.BlankID]; ok {
			continue
		}
		seen[seg.BlankID] = struct{}{}
		ids = append(ids, seg.BlankID)
	}
	sort.Ints(ids)
	return ids
}

// CountBlanks returns the number of blank occurrences, duplicates included.
func CountBlanks(raw string) int {
	return len(scan(raw))
}

// Positions returns every blank occurrence in raw, in text order.
func Positions(raw string) []BlankPosition {
	return scan(raw)
}

// Fill renders the template with values substituted for blanks. Blanks without a
// value, or with a whitespace-only value, render as UnansweredMarker.
func Fill(t Template, values map[int]string) string {
	var b strings.Builder
	for _, seg := range t.Segments {
		if !seg.IsBlank() {
			b.WriteString(seg.Content)
			continue
		}
		if v, ok := values[seg.BlankID]; ok && strings.TrimSpace(v) != "" {
			b.WriteString(v)
		} else {
			b.WriteString(UnansweredMarker)
		}
	}
	return b.String()
}

func scan(raw string) []BlankPosition {
	matches := blankPattern.FindAllStringSubmatchIndex(raw, -1)
	positions := make([]BlankPosition, 0, len(matches))
	for _, m := range matches {
		id, err := strconv.Atoi(raw[m[2]:m[3]])
		if err != nil {
			// id does not fit in an int, keep it as literal text
			continue
		}
		positions = append(positions, BlankPosition{
			BlankID:     id,
			StartIndex:  m[0],
			EndIndex:    m[1],
			Placeholder: raw[m[0]:m[1]],
		})
	}
	return positions
}
