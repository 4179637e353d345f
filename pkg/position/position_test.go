package position_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/walteh/jinjals/pkg/position"
)

func TestPosAt(t *testing.T) {
	text := "hello\nworld\n"

	tests := []struct {
		name   string
		offset int
		want   position.Pos
	}{
		{
			name:   "start of document",
			offset: 0,
			want:   position.Pos{Line: 1, Column: 1, Offset: 0},
		},
		{
			name:   "middle of first line",
			offset: 3,
			want:   position.Pos{Line: 1, Column: 4, Offset: 3},
		},
		{
			name:   "start of second line",
			offset: 6,
			want:   position.Pos{Line: 2, Column: 1, Offset: 6},
		},
		{
			name:   "clamped past end",
			offset: 100,
			want:   position.Pos{Line: 3, Column: 1, Offset: 12},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, position.PosAt(text, tt.offset))
		})
	}
}

func TestOffsetAt(t *testing.T) {
	text := "hello\nworld"

	tests := []struct {
		name      string
		line      int
		character int
		want      int
	}{
		{name: "origin", line: 0, character: 0, want: 0},
		{name: "second line", line: 1, character: 2, want: 8},
		{name: "clamp to line end", line: 0, character: 50, want: 5},
		{name: "clamp to document end", line: 9, character: 0, want: 11},
		{name: "negative is invalid", line: -1, character: 0, want: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, position.OffsetAt(text, tt.line, tt.character))
		})
	}
}

func TestSpanContains(t *testing.T) {
	text := "{{ user.name }}"
	span := position.SpanBetween(text, 3, 7) // "user"

	assert.True(t, span.Contains(3))
	assert.True(t, span.Contains(5))
	assert.True(t, span.Contains(7), "cursor immediately after the word still hits")
	assert.False(t, span.Contains(8))
	assert.False(t, span.Contains(2))
}

func TestSpanOverlaps(t *testing.T) {
	text := "{{ user.name }}"
	user := position.SpanBetween(text, 3, 7)
	name := position.SpanBetween(text, 8, 12)
	cursor := position.SpanBetween(text, 5, 5)

	assert.False(t, user.Overlaps(name))
	assert.True(t, cursor.Overlaps(user))
	assert.False(t, cursor.Overlaps(name))
}
