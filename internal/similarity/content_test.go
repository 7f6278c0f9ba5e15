package similarity

import (
	"math"
	"testing"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{
			name: "identical bodies",
			a:    "# Title\n\nBody line.\n",
			b:    "# Title\n\nBody line.\n",
			want: 1.0,
		},
		{
			name: "both empty",
			a:    "",
			b:    "",
			want: 1.0,
		},
		{
			name: "one empty",
			a:    "content\n",
			b:    "",
			want: 0.0,
		},
		{
			name: "no shared lines",
			a:    "alpha\nbeta",
			b:    "gamma\ndelta",
			want: 0.0,
		},
		{
			name: "partial overlap in order",
			a:    "line1\nline2\nline3\nline4",
			b:    "line1\nline3\nline5",
			want: 0.5, // 2 of 4 lines survive in order
		},
		{
			name: "reordered lines",
			a:    "alpha\nbeta\ngamma",
			b:    "gamma\nbeta\nalpha",
			want: 1.0, // the Jaccard side ignores order
		},
		{
			name: "whitespace shifts",
			a:    "alpha\n  beta",
			b:    "alpha\nbeta  ",
			want: 1.0,
		},
		{
			name: "one line rewritten",
			a:    "intro\nshared\nlocal",
			b:    "intro\nshared\nremote",
			want: 2.0 / 3.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.a, tt.b)
			if math.Abs(got-tt.want) > 0.01 {
				t.Errorf("Score() = %f, want %f", got, tt.want)
			}
			if swapped := Score(tt.b, tt.a); math.Abs(swapped-got) > 0.001 {
				t.Errorf("Score() is asymmetric: %f vs %f", got, swapped)
			}
		})
	}
}

func TestLCSLength(t *testing.T) {
	tests := []struct {
		name string
		a    []string
		b    []string
		want int
	}{
		{"identical", []string{"a", "b", "c"}, []string{"a", "b", "c"}, 3},
		{"empty a", nil, []string{"a", "b"}, 0},
		{"empty b", []string{"a", "b"}, nil, 0},
		{"both empty", nil, nil, 0},
		{"disjoint", []string{"a", "b"}, []string{"x", "y"}, 0},
		{"partial", []string{"a", "b", "c", "d"}, []string{"b", "c", "e"}, 2},
		{"interleaved", []string{"a", "b", "c", "d", "e"}, []string{"a", "c", "e"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := lcsLength(tt.a, tt.b); got != tt.want {
				t.Errorf("lcsLength() = %d, want %d", got, tt.want)
			}
			if got := lcsLength(tt.b, tt.a); got != tt.want {
				t.Errorf("lcsLength() swapped = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLineSet(t *testing.T) {
	set := lineSet([]string{"  alpha  ", "", "beta", "   ", "alpha"})
	if len(set) != 2 {
		t.Fatalf("lineSet() has %d entries, want 2: %v", len(set), set)
	}
	for _, want := range []string{"alpha", "beta"} {
		if _, ok := set[want]; !ok {
			t.Errorf("lineSet() missing %q", want)
		}
	}
}

func TestJaccard(t *testing.T) {
	abc := map[string]struct{}{"a": {}, "b": {}, "c": {}}
	bcd := map[string]struct{}{"b": {}, "c": {}, "d": {}}
	xy := map[string]struct{}{"x": {}, "y": {}}

	tests := []struct {
		name string
		a    map[string]struct{}
		b    map[string]struct{}
		want float64
	}{
		{"identical", abc, abc, 1.0},
		{"disjoint", abc, xy, 0.0},
		{"both empty", nil, nil, 1.0},
		{"one empty", abc, nil, 0.0},
		{"partial", abc, bcd, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := jaccard(tt.a, tt.b)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("jaccard() = %f, want %f", got, tt.want)
			}
			if swapped := jaccard(tt.b, tt.a); math.Abs(swapped-got) > 0.001 {
				t.Errorf("jaccard() is asymmetric: %f vs %f", got, swapped)
			}
		})
	}
}

func BenchmarkScore(b *testing.B) {
	doc1 := "# Setup\n\nInstall the tool.\nConfigure the token.\nRun the first sync.\n\nSee the guide for details.\n"
	doc2 := "# Setup\n\nInstall the tool.\nConfigure the token.\nRun the second sync.\n\nSee the notes for details.\n"

	for i := 0; i < b.N; i++ {
		Score(doc1, doc2)
	}
}
