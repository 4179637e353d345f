// Package position provides source position and span utilities shared by the
// lexer, the inference engine, and the LSP boundary.
//
// The parser side of the codebase speaks 1-based line/column coordinates with
// a 0-based byte offset; editors speak 0-based line/character. Conversion to
// editor coordinates happens exactly once, at the resolution facade, using
// the helpers here.
package position

import "fmt"

// Pos is a single point in the source text. Line and Column are 1-based,
// Offset is the 0-based byte offset.
type Pos struct {
	Line   int
	Column int
	Offset int
}

// Span is a half-open region of source text between two positions.
type Span struct {
	Start Pos
	End   Pos
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d@%d", p.Line, p.Column, p.Offset)
}

func (s Span) String() string {
	return fmt.Sprintf("%s-%s", s.Start, s.End)
}

// Len returns the byte length of the span.
func (s Span) Len() int {
	return s.End.Offset - s.Start.Offset
}

// Contains reports whether the byte offset falls inside the span,
// treating the end offset as inclusive so that a cursor sitting
// immediately after the last character still hits the span.
func (s Span) Contains(offset int) bool {
	return offset >= s.Start.Offset && offset <= s.End.Offset
}

// Overlaps reports whether two spans share at least one byte. Zero-length
// spans overlap anything they fall inside of.
func (s Span) Overlaps(other Span) bool {
	if s.Len() == 0 {
		return s.Start.Offset >= other.Start.Offset && s.Start.Offset <= other.End.Offset
	}
	if other.Len() == 0 {
		return other.Start.Offset >= s.Start.Offset && other.Start.Offset <= s.End.Offset
	}
	return other.Start.Offset < s.End.Offset && s.End.Offset > other.Start.Offset &&
		s.Start.Offset < other.End.Offset
}

// PosAt computes the full position for a byte offset in text. Offsets past
// the end of text are clamped.
func PosAt(text string, offset int) Pos {
	if offset > len(text) {
		offset = len(text)
	}
	if offset < 0 {
		offset = 0
	}
	line := 1
	lastNewline := -1
	for i := 0; i < offset; i++ {
		if text[i] == '\n' {
			line++
			lastNewline = i
		}
	}
	return Pos{
		Line:   line,
		Column: offset - lastNewline,
		Offset: offset,
	}
}

// SpanBetween builds a span covering [start, end) byte offsets of text.
func SpanBetween(text string, start, end int) Span {
	return Span{Start: PosAt(text, start), End: PosAt(text, end)}
}

// OffsetAt converts a 0-based editor line/character pair into a byte offset.
// Positions past the end of a line clamp to the line end; lines past the end
// of the document clamp to the document end. A negative input returns -1.
func OffsetAt(text string, line, character int) int {
	if line < 0 || character < 0 {
		return -1
	}
	offset := 0
	for l := 0; l < line; l++ {
		next := indexByteFrom(text, offset, '\n')
		if next < 0 {
			return len(text)
		}
		offset = next + 1
	}
	lineEnd := indexByteFrom(text, offset, '\n')
	if lineEnd < 0 {
		lineEnd = len(text)
	}
	if offset+character > lineEnd {
		return lineEnd
	}
	return offset + character
}

func indexByteFrom(text string, from int, b byte) int {
	for i := from; i < len(text); i++ {
		if text[i] == b {
			return i
		}
	}
	return -1
}
