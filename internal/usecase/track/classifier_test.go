package track

import "testing"

func TestRelevant(t *testing.T) {
	include := []string{"財報", "營收", "法說會", "EPS"}
	exclude := []string{"技術分析", "K線", "目標價"}

	tests := []struct {
		name  string
		title string
		want  bool
	}{
		{"include keyword present", "台積電7月營收創新高", true},
		{"another include keyword", "台積電法說會釋出展望", true},
		{"no include keyword", "台積電股價盤中震盪", false},
		{"include and exclude both present", "營收亮眼 分析師上調目標價", false},
		{"exclude only", "K線型態轉強", false},
		{"empty title", "", false},
		{"whitespace title", "   ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Relevant(tt.title, include, exclude); got != tt.want {
				t.Errorf("Relevant(%q) = %v, want %v", tt.title, got, tt.want)
			}
		})
	}
}

func TestRelevant_CaseInsensitive(t *testing.T) {
	if !Relevant("TSMC eps beats estimates", []string{"EPS"}, nil) {
		t.Error("Relevant() = false for lowercase match of uppercase term, want true")
	}
	if !Relevant("TSMC EPS beats estimates", []string{"eps"}, nil) {
		t.Error("Relevant() = false for uppercase match of lowercase term, want true")
	}
	if Relevant("quarterly EPS update", []string{"EPS"}, []string{"QUARTERLY"}) {
		t.Error("Relevant() = true despite case-insensitive exclude match, want false")
	}
}

func TestRelevant_SubstringMatching(t *testing.T) {
	// Matching is substring-based, not tokenized: a term inside a larger word
	// still matches.
	if !Relevant("reps meeting scheduled", []string{"eps"}, nil) {
		t.Error("Relevant() = false for embedded substring, want true")
	}
}

// Adding an exclude term can only turn true results false; adding an include
// term can only turn false results true.
func TestRelevant_Monotonicity(t *testing.T) {
	titles := []string{
		"台積電營收月增",
		"鴻海財報優於預期",
		"聯發科盤中大漲",
		"EPS forecast raised",
		"",
	}
	include := []string{"營收", "財報"}
	exclude := []string{"盤中"}

	for _, title := range titles {
		before := Relevant(title, include, exclude)

		// Grow the exclude set.
		after := Relevant(title, include, append([]string{"月增"}, exclude...))
		if after && !before {
			t.Errorf("adding exclude term turned false→true for %q", title)
		}

		// Grow the include set.
		after = Relevant(title, append([]string{"EPS"}, include...), exclude)
		if before && !after {
			t.Errorf("adding include term turned true→false for %q", title)
		}
	}
}

func TestRelevant_EmptyKeywordEntries(t *testing.T) {
	// Blank entries in either set must not match everything.
	if Relevant("台積電股價", []string{""}, nil) {
		t.Error("Relevant() = true with blank include term, want false")
	}
	if !Relevant("台積電營收", []string{"營收"}, []string{""}) {
		t.Error("Relevant() = false with blank exclude term, want true")
	}
}
