package inference

import (
	"sort"

	"github.com/walteh/jinjals/pkg/fuzzy"
)

// Suggestion is one "did you mean" candidate with its edit distance from
// the typed name.
type Suggestion struct {
	Name     string
	Distance int
}

// SimilarProperties ranks the known properties of a variable by edit
// distance from a typed (possibly misspelled) name. Only candidates with a
// distance in (0, threshold] are kept, closest first, ties broken by name.
func (e *Engine) SimilarProperties(uri, variable, typed string, threshold int) []Suggestion {
	return SimilarPropertiesIn(e, uri, variable, typed, threshold)
}

// SimilarPropertiesIn is SimilarProperties over an arbitrary table source.
func SimilarPropertiesIn(src TableSource, uri, variable, typed string, threshold int) []Suggestion {
	if typed == "" || threshold <= 0 {
		return nil
	}
	var out []Suggestion
	for _, prop := range PropertiesIn(src, uri, variable) {
		d := fuzzy.Levenshtein(typed, prop)
		if d > 0 && d <= threshold {
			out = append(out, Suggestion{Name: prop, Distance: d})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].Name < out[j].Name
	})
	return out
}
