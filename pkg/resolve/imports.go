package resolve

import (
	"go.lsp.dev/protocol"

	"github.com/walteh/jinjals/pkg/jinja"
	"github.com/walteh/jinjals/pkg/position"
)

// RemoveImportedName produces the minimal edit that drops one name from a
// from-import list while keeping the tag syntactically valid: the name's
// trailing comma is deleted when a later name follows, otherwise the
// leading comma of the last name. Removing the only imported name removes
// the whole tag.
func (r *Resolver) RemoveImportedName(docURI, text, name string) []protocol.TextEdit {
	tpl, _, err := jinja.Parse(text)
	if err != nil {
		return nil
	}

	var edits []protocol.TextEdit
	jinja.Walk(tpl, func(n jinja.Node) {
		fi, ok := n.(*jinja.FromImport)
		if !ok {
			return
		}
		idx := -1
		for i, imported := range fi.Names {
			if imported.Name == name {
				idx = i
				break
			}
		}
		if idx < 0 {
			return
		}

		var start, end int
		switch {
		case len(fi.Names) == 1:
			span := fi.Span()
			start, end = span.Start.Offset, span.End.Offset
		case idx < len(fi.Names)-1:
			// delete up to the next name, taking the trailing comma with it
			start = fi.Names[idx].Span.Start.Offset
			end = fi.Names[idx+1].Span.Start.Offset
		default:
			// last name: take the leading comma instead
			start = fi.Names[idx-1].Span.End.Offset
			end = fi.Names[idx].Span.End.Offset
		}
		edits = append(edits, protocol.TextEdit{
			Range:   rangeFor(position.SpanBetween(text, start, end)),
			NewText: "",
		})
	})
	return edits
}
