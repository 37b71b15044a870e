package extractor

import "musica/internal/script"

// Grammar parses script text into a syntax tree rooted at the Musica rule.
type Grammar interface {
	Parse(src string) (*script.Tree, error)
}

// DefaultGrammar returns the built-in Musica grammar.
func DefaultGrammar() Grammar {
	return script.Parser{}
}
