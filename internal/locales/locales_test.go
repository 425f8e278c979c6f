package locales

import (
	"testing"

	"github.com/qiuyin/AgentDesk/internal/models"
)

func TestTablesCoverEveryRole(t *testing.T) {
	for _, lang := range []Language{English, Chinese} {
		tr := Get(lang)
		for _, role := range models.AllRoles {
			if tr.AgentNames[role] == "" {
				t.Errorf("%s: missing name for %s", lang, role)
			}
			if tr.AgentDescs[role] == "" {
				t.Errorf("%s: missing description for %s", lang, role)
			}
		}
	}
}

func TestGetFallsBackToEnglish(t *testing.T) {
	tr := Get(Language("fr"))
	if tr.DecisionLabel != "DECISION" {
		t.Fatalf("unknown language did not fall back to English: %q", tr.DecisionLabel)
	}
}

func TestParse(t *testing.T) {
	cases := map[string]Language{
		"zh":    Chinese,
		"zh-CN": Chinese,
		"cn":    Chinese,
		"en":    English,
		"":      English,
		"de":    English,
	}
	for in, want := range cases {
		if got := Parse(in); got != want {
			t.Errorf("Parse(%q) = %s, want %s", in, got, want)
		}
	}
}
