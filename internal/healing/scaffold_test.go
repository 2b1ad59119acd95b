package healing

import (
	"testing"

	"patternforge/internal/types"
)

func pat(name, lang string, coherence float64, tags ...string) types.Pattern {
	return types.Pattern{
		Name:      name,
		Language:  lang,
		Tags:      tags,
		Coherency: types.CoherencyScore{Total: coherence},
	}
}

func TestFindScaffold_PrefersTagOverlap(t *testing.T) {
	sub := types.Submission{Name: "bubble-sort", Language: "javascript", Tags: []string{"sort", "array"}}
	catalog := []types.Pattern{
		pat("quick-sort", "javascript", 0.85, "sort", "array"),
		pat("http-client", "javascript", 0.99),
	}

	got := FindScaffold(sub, catalog, 0.8)
	if got == nil || got.Name != "quick-sort" {
		t.Fatalf("scaffold = %v, want quick-sort", got)
	}
}

func TestFindScaffold_SkipsUnhealthyAndWrongLanguage(t *testing.T) {
	sub := types.Submission{Name: "x", Language: "javascript", Tags: []string{"sort"}}
	catalog := []types.Pattern{
		pat("too-weak", "javascript", 0.79, "sort"),
		pat("wrong-lang", "python", 0.95, "sort"),
	}

	if got := FindScaffold(sub, catalog, 0.8); got != nil {
		t.Errorf("scaffold = %q, want nil", got.Name)
	}
}

func TestFindScaffold_TieKeepsFirst(t *testing.T) {
	sub := types.Submission{Name: "x", Language: "javascript", Tags: []string{"sort"}}
	catalog := []types.Pattern{
		pat("first", "javascript", 0.9, "sort"),
		pat("second", "javascript", 0.9, "sort"),
	}

	got := FindScaffold(sub, catalog, 0.8)
	if got == nil || got.Name != "first" {
		t.Fatalf("scaffold = %v, want first", got)
	}
}

func TestFindScaffold_EmptyCatalog(t *testing.T) {
	sub := types.Submission{Name: "x", Language: "javascript"}
	if got := FindScaffold(sub, nil, 0.8); got != nil {
		t.Errorf("scaffold = %q, want nil", got.Name)
	}
}

func TestTagOverlapRatio(t *testing.T) {
	tests := []struct {
		name    string
		subTags []string
		patTags []string
		want    float64
	}{
		{"full overlap", []string{"a", "b"}, []string{"a", "b", "c"}, 1.0},
		{"half overlap", []string{"a", "b"}, []string{"a"}, 0.5},
		{"no overlap", []string{"a"}, []string{"b"}, 0.0},
		{"no submission tags", nil, []string{"a"}, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tagOverlapRatio(tt.subTags, tt.patTags); got != tt.want {
				t.Errorf("tagOverlapRatio = %v, want %v", got, tt.want)
			}
		})
	}
}
