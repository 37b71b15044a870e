package script_test

import (
	"errors"
	"strings"
	"testing"

	"musica/internal/script"
	"musica/internal/services"
)

func ruleSeq(nodes []*script.Node) []script.Rule {
	out := make([]script.Rule, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Rule)
	}
	return out
}

func equalRules(a, b []script.Rule) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func findChild(n *script.Node, rule script.Rule) *script.Node {
	for _, child := range n.Children {
		if child.Rule == rule {
			return child
		}
	}
	return nil
}

func TestParseTopLevelShapes(t *testing.T) {
	src := "; header comment\n#include <common.sc>\n\n#bg 01\n1 Alice [happy] \"Hi there\"\nplain narration\n"
	tree, err := script.Parse(src)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if tree.Root.Rule != script.RuleMusica {
		t.Fatalf("expected Musica root, got %s", tree.Root.Rule)
	}
	want := []script.Rule{
		script.RuleIComment,
		script.RuleIInclude,
		script.RuleINonMessage,
		script.RuleIMessage,
		script.RuleINonMessage,
		script.RuleEOI,
	}
	if got := ruleSeq(tree.Root.Children); !equalRules(got, want) {
		t.Fatalf("unexpected top-level rules: got %v want %v", got, want)
	}
	if text := tree.Text(tree.Root.Children[2]); text != "#bg 01" {
		t.Fatalf("unexpected non-message text %q", text)
	}
	if text := tree.Text(tree.Root.Children[0]); text != "; header comment" {
		t.Fatalf("unexpected comment text %q", text)
	}
}

func TestParseNamedMessageParts(t *testing.T) {
	tree, err := script.Parse(`1 Alice [happy] "Hi there"`)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	msg := tree.Root.Children[0]
	named := findChild(msg, script.RuleIMessageNamed)
	if named == nil {
		t.Fatalf("expected IMessageNamed, got %v", ruleSeq(msg.Children))
	}
	checks := map[script.Rule]string{
		script.RuleMessageNumber:        "1",
		script.RuleMessageSpeakerName:   "Alice",
		script.RuleMessageSpeakerTachie: "happy",
		script.RuleMessageContentQuoted: "Hi there",
	}
	for rule, want := range checks {
		node := findChild(named, rule)
		if node == nil {
			t.Fatalf("missing %s", rule)
		}
		if got := tree.Text(node); got != want {
			t.Fatalf("%s: got %q want %q", rule, got, want)
		}
	}
}

func TestParseMessageVariants(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		body    script.Rule
		content string
		rule    script.Rule
	}{
		{"unnamed quoted", `12 "Hello"`, script.RuleIMessageUnnamed, "Hello", script.RuleMessageContentQuoted},
		{"unnamed tachie unquoted", `12 [smile] hello there`, script.RuleIMessageUnnamed, "hello there", script.RuleMessageContentUnquoted},
		{"unnamed plain", `12 hello world`, script.RuleIMessageUnnamed, "hello world", script.RuleMessageContentUnquoted},
		{"named corner brackets", "3 彩葉「こんにちは」", script.RuleIMessageNamed, "こんにちは", script.RuleMessageContentQuoted},
		{"named tachie unquoted", `4 Bob [angry] stop it`, script.RuleIMessageNamed, "stop it", script.RuleMessageContentUnquoted},
		{"command prefix", `.message 5 Alice "Yo"`, script.RuleIMessageNamed, "Yo", script.RuleMessageContentQuoted},
		{"id-less named", `Alice "Hi"`, script.RuleIMessageNamed, "Hi", script.RuleMessageContentQuoted},
		{"empty quoted", `6 ""`, script.RuleIMessageUnnamed, "", script.RuleMessageContentQuoted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := script.Parse(tt.line)
			if err != nil {
				t.Fatalf("Parse returned error: %v", err)
			}
			msg := tree.Root.Children[0]
			if msg.Rule != script.RuleIMessage {
				t.Fatalf("expected IMessage, got %s", msg.Rule)
			}
			body := findChild(msg, tt.body)
			if body == nil {
				t.Fatalf("expected %s, got %v", tt.body, ruleSeq(msg.Children))
			}
			content := findChild(body, tt.rule)
			if content == nil {
				t.Fatalf("expected %s in %v", tt.rule, ruleSeq(body.Children))
			}
			if got := tree.Text(content); got != tt.content {
				t.Fatalf("content: got %q want %q", got, tt.content)
			}
		})
	}
}

func TestParseCommandChildIsFirst(t *testing.T) {
	tree, err := script.Parse(`.message 5 "Yo"`)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	msg := tree.Root.Children[0]
	want := []script.Rule{script.RuleMusicaCommand, script.RuleIMessageUnnamed}
	if got := ruleSeq(msg.Children); !equalRules(got, want) {
		t.Fatalf("unexpected children: got %v want %v", got, want)
	}
}

func TestParseRejectsMalformedInput(t *testing.T) {
	tests := map[string]string{
		"include without path": "#include",
		"unterminated quote":   `1 Alice "Hi there`,
		"unterminated tachie":  `1 Alice [happy "Hi"`,
		"bare command":         ".message",
		"control character":    "1 \"a\x01b\"",
		"invalid utf8":         "1 \"\xff\"",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := script.Parse(src)
			if !errors.Is(err, services.ErrParse) {
				t.Fatalf("expected parse error, got %v", err)
			}
			var syntaxErr *script.SyntaxError
			if !errors.As(err, &syntaxErr) || syntaxErr.Line != 1 {
				t.Fatalf("expected syntax error on line 1, got %v", err)
			}
		})
	}
}

func TestParseReportsPhysicalLine(t *testing.T) {
	_, err := script.Parse("#bg\n\n2 Alice \"open")
	var syntaxErr *script.SyntaxError
	if !errors.As(err, &syntaxErr) {
		t.Fatalf("expected SyntaxError, got %v", err)
	}
	if syntaxErr.Line != 3 {
		t.Fatalf("expected line 3, got %d", syntaxErr.Line)
	}
}

func TestParseStripsBOMAndCRLF(t *testing.T) {
	tree, err := script.Parse("\ufeff#bg 01\r\n1 \"Hi\"\r\n")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if got := tree.Text(tree.Root.Children[0]); got != "#bg 01" {
		t.Fatalf("unexpected first line %q", got)
	}
	if len(tree.Root.Children) != 3 {
		t.Fatalf("expected two lines plus EOI, got %v", ruleSeq(tree.Root.Children))
	}
}

func TestParseEmptyInputYieldsOnlyEOI(t *testing.T) {
	for _, src := range []string{"", "\n\n  \n"} {
		tree, err := script.Parse(src)
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", src, err)
		}
		if got := ruleSeq(tree.Root.Children); !equalRules(got, []script.Rule{script.RuleEOI}) {
			t.Fatalf("Parse(%q): unexpected children %v", src, got)
		}
	}
}

func TestRulesCoverEveryName(t *testing.T) {
	seen := map[string]bool{}
	for _, rule := range script.Rules() {
		name := rule.String()
		if name == "" || strings.HasPrefix(name, "Rule(") {
			t.Fatalf("rule %d has no name", int(rule))
		}
		if seen[name] {
			t.Fatalf("duplicate rule name %q", name)
		}
		seen[name] = true
	}
	if !seen["IMessage"] || !seen["EOI"] || !seen["Musica"] {
		t.Fatalf("expected core rule names, got %v", seen)
	}
}

func TestDumpRendersTree(t *testing.T) {
	tree, err := script.Parse(`1 "Hi"`)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	var b strings.Builder
	if err := tree.Dump(&b); err != nil {
		t.Fatalf("Dump returned error: %v", err)
	}
	if !strings.Contains(b.String(), `MessageContentQuoted "Hi"`) {
		t.Fatalf("unexpected dump:\n%s", b.String())
	}
}
