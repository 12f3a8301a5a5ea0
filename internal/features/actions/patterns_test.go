package actions_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"serotonyl.ru/points-bot/internal/features/actions"
	"serotonyl.ru/points-bot/internal/testutil"
)

func TestDefaultPatterns_Match(t *testing.T) {
	tests := []struct {
		text   string
		action string
		ok     bool
	}{
		{"answer: 42", actions.ActionQuizAnswer, true},
		{"Answer:42", actions.ActionQuizAnswer, true},
		{"   ANSWER: paris", actions.ActionQuizAnswer, true},
		{"answer", "", false},
		{"my answer: 42", "", false},
		{"", "", false},
		{"   ", "", false},
		{"hello", "", false},
	}

	for _, tt := range tests {
		action, ok := actions.DefaultPatterns.Match(tt.text)
		if action != tt.action || ok != tt.ok {
			t.Errorf("Match(%q) = (%q, %v), ожидалось (%q, %v)", tt.text, action, ok, tt.action, tt.ok)
		}
	}
}

func TestPatterns_FirstMatchWins(t *testing.T) {
	p := actions.Patterns{
		{Kind: actions.ExactMatch, Text: "answer: yes", Action: "special"},
		{Kind: actions.PrefixMatch, Text: "answer:", Action: actions.ActionQuizAnswer},
	}

	if action, _ := p.Match("Answer: yes"); action != "special" {
		t.Errorf("ожидалось special, получено %q", action)
	}
	if action, _ := p.Match("answer: no"); action != actions.ActionQuizAnswer {
		t.Errorf("ожидалось quiz_answer, получено %q", action)
	}
}

func TestParseSeed(t *testing.T) {
	data := []byte(`
actions:
  - action: Quiz_Answer
    points: 5
  - action: meme
    points: -2
`)
	rules, err := actions.ParseSeed(data)
	if err != nil {
		t.Fatalf("ParseSeed: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("ожидалось 2 правила, получено %d", len(rules))
	}
	if rules[0].Action != "Quiz_Answer" || rules[0].Points != 5 {
		t.Errorf("правило 1: %+v", rules[0])
	}
	if rules[1].Points != -2 {
		t.Errorf("правило 2: %+v", rules[1])
	}
}

func TestParseSeed_Errors(t *testing.T) {
	if _, err := actions.ParseSeed([]byte("actions: [")); err == nil {
		t.Error("ожидалась ошибка разбора")
	}
	if _, err := actions.ParseSeed([]byte("actions:\n  - action: \"  \"\n    points: 1\n")); err == nil {
		t.Error("ожидалась ошибка пустого имени")
	}
}

func TestSeedFromFile_DoesNotOverwrite(t *testing.T) {
	ctx := context.Background()
	catalog := testutil.NewMemoryCatalog()
	_ = catalog.SetPoints(ctx, "quiz_answer", 10)
	svc := actions.NewService(catalog)

	path := filepath.Join(t.TempDir(), "actions.yaml")
	content := "actions:\n  - action: quiz_answer\n    points: 5\n  - action: meme\n    points: 2\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := svc.SeedFromFile(ctx, path); err != nil {
		t.Fatalf("SeedFromFile: %v", err)
	}
	if p, _ := catalog.Rule("quiz_answer"); p != 10 {
		t.Errorf("значение владельца перезаписано: %d", p)
	}
	if p, ok := catalog.Rule("meme"); !ok || p != 2 {
		t.Errorf("meme: %d, %v", p, ok)
	}
}

func TestSeedFromFile_MissingFile(t *testing.T) {
	svc := actions.NewService(testutil.NewMemoryCatalog())
	if err := svc.SeedFromFile(context.Background(), filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("ожидалась ошибка")
	}
}
