package script

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"musica/internal/services"
)

const (
	byteOrderMark  = "\ufeff"
	messageCommand = ".message"
	includeCommand = "#include"
	leftCorner     = "「"
	rightCorner    = "」"
)

// SyntaxError reports where the grammar rejected the input. Line and Column
// are 1-based; Column counts runes.
type SyntaxError struct {
	Line   int
	Column int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Msg)
}

func (e *SyntaxError) Unwrap() error { return services.ErrParse }

// Parser implements the Musica grammar. The zero value is ready to use.
type Parser struct{}

// Parse builds a syntax tree for src.
func (Parser) Parse(src string) (*Tree, error) {
	return Parse(src)
}

// Parse builds a syntax tree for src.
func Parse(src string) (*Tree, error) {
	src = strings.TrimPrefix(src, byteOrderMark)
	if err := checkCharacters(src); err != nil {
		return nil, err
	}

	tree := &Tree{Source: src}
	root := &Node{Rule: RuleMusica, Start: 0, End: len(src)}

	offset := 0
	lineNo := 0
	for offset <= len(src) {
		lineNo++
		end := strings.IndexByte(src[offset:], '\n')
		next := len(src) + 1
		if end < 0 {
			end = len(src)
		} else {
			end += offset
			next = end + 1
		}
		lp := lineParser{src: src, lineStart: offset, lineNo: lineNo}
		lp.start, lp.end = trimSpan(src, offset, strings.TrimSuffix(src[offset:end], "\r"))
		if lp.start < lp.end {
			node, err := lp.parse()
			if err != nil {
				return nil, err
			}
			root.Children = append(root.Children, node)
		}
		offset = next
	}

	root.Children = append(root.Children, &Node{Rule: RuleEOI, Start: len(src), End: len(src)})
	tree.Root = root
	return tree, nil
}

func checkCharacters(src string) error {
	line, col := 1, 0
	for i, r := range src {
		col++
		if r == utf8.RuneError {
			if _, size := utf8.DecodeRuneInString(src[i:]); size <= 1 {
				return &SyntaxError{Line: line, Column: col, Msg: "invalid UTF-8 sequence"}
			}
		}
		switch {
		case r == '\n':
			line++
			col = 0
		case r == '\t' || r == '\r':
		case r < 0x20 || r == 0x7f:
			return &SyntaxError{Line: line, Column: col, Msg: fmt.Sprintf("unexpected control character %U", r)}
		}
	}
	return nil
}

// trimSpan returns the byte span of line inside src with surrounding
// whitespace removed. line must start at offset.
func trimSpan(src string, offset int, line string) (int, int) {
	left := len(line) - len(strings.TrimLeftFunc(line, unicode.IsSpace))
	right := len(strings.TrimRightFunc(line, unicode.IsSpace))
	if left >= right {
		return offset, offset
	}
	return offset + left, offset + right
}

type lineParser struct {
	src       string
	lineStart int
	lineNo    int
	start     int
	end       int
}

func (p *lineParser) text() string { return p.src[p.start:p.end] }

func (p *lineParser) fail(pos int, format string, args ...any) error {
	col := utf8.RuneCountInString(p.src[p.lineStart:pos]) + 1
	return &SyntaxError{Line: p.lineNo, Column: col, Msg: fmt.Sprintf(format, args...)}
}

func (p *lineParser) parse() (*Node, error) {
	text := p.text()
	switch {
	case strings.HasPrefix(text, ";"):
		return &Node{
			Rule:     RuleIComment,
			Start:    p.start,
			End:      p.end,
			Children: []*Node{{Rule: RuleMusicaComment, Start: p.start, End: p.start + 1}},
		}, nil
	case hasKeyword(text, includeCommand):
		operand := strings.TrimSpace(text[len(includeCommand):])
		if operand == "" {
			return nil, p.fail(p.end, "#include requires a path")
		}
		return &Node{
			Rule:     RuleIInclude,
			Start:    p.start,
			End:      p.end,
			Children: []*Node{{Rule: RuleMusicaPreproc, Start: p.start, End: p.start + len(includeCommand)}},
		}, nil
	case strings.HasPrefix(text, "#"):
		return &Node{Rule: RuleINonMessage, Start: p.start, End: p.end}, nil
	case isMessageLine(text):
		return p.parseMessage()
	default:
		return &Node{Rule: RuleINonMessage, Start: p.start, End: p.end}, nil
	}
}

func hasKeyword(text, keyword string) bool {
	if !strings.HasPrefix(text, keyword) {
		return false
	}
	rest := text[len(keyword):]
	if rest == "" {
		return true
	}
	r, _ := utf8.DecodeRuneInString(rest)
	return unicode.IsSpace(r)
}

func isMessageLine(text string) bool {
	if hasKeyword(text, messageCommand) {
		return true
	}
	if digits := leadingDigits(text); digits > 0 && digits < len(text) {
		if isNumberTerminator(text[digits:]) {
			return true
		}
	}
	return strings.HasSuffix(text, `"`) || strings.HasSuffix(text, rightCorner)
}

func leadingDigits(text string) int {
	n := 0
	for n < len(text) && text[n] >= '0' && text[n] <= '9' {
		n++
	}
	return n
}

func isNumberTerminator(rest string) bool {
	r, _ := utf8.DecodeRuneInString(rest)
	return unicode.IsSpace(r) || r == '[' || r == '"' || strings.HasPrefix(rest, leftCorner)
}

func isQuoteOpen(rest string) bool {
	return strings.HasPrefix(rest, `"`) || strings.HasPrefix(rest, leftCorner)
}

func (p *lineParser) skipSpace(pos int) int {
	for pos < p.end {
		r, size := utf8.DecodeRuneInString(p.src[pos:p.end])
		if !unicode.IsSpace(r) {
			break
		}
		pos += size
	}
	return pos
}

func (p *lineParser) parseMessage() (*Node, error) {
	msg := &Node{Rule: RuleIMessage, Start: p.start, End: p.end}
	pos := p.start

	if hasKeyword(p.text(), messageCommand) {
		msg.Children = append(msg.Children, &Node{Rule: RuleMusicaCommand, Start: pos, End: pos + len(messageCommand)})
		pos = p.skipSpace(pos + len(messageCommand))
		if pos >= p.end {
			return nil, p.fail(pos, "%s requires message content", messageCommand)
		}
	}

	body := &Node{Start: pos, End: p.end}
	var parts []*Node

	if digits := leadingDigits(p.src[pos:p.end]); digits > 0 && pos+digits < p.end && isNumberTerminator(p.src[pos+digits:p.end]) {
		parts = append(parts, &Node{Rule: RuleMessageNumber, Start: pos, End: pos + digits})
		pos = p.skipSpace(pos + digits)
	}

	rest := p.src[pos:p.end]
	named := false
	if rest != "" && rest[0] != '[' && !isQuoteOpen(rest) {
		nameEnd := p.scanName(pos)
		after := p.skipSpace(nameEnd)
		if after < p.end && (p.src[after] == '[' || isQuoteOpen(p.src[after:p.end])) {
			parts = append(parts, &Node{Rule: RuleMessageSpeakerName, Start: pos, End: nameEnd})
			pos = after
			named = true
		}
	}

	hasTachie := false
	if pos < p.end && p.src[pos] == '[' {
		closeIdx := strings.IndexByte(p.src[pos:p.end], ']')
		if closeIdx < 0 {
			return nil, p.fail(pos, "unterminated tachie reference")
		}
		closePos := pos + closeIdx
		parts = append(parts,
			&Node{Rule: RuleASCIIPrintable, Start: pos, End: pos + 1},
			&Node{Rule: RuleMessageSpeakerTachie, Start: pos + 1, End: closePos},
			&Node{Rule: RuleASCIIPrintable, Start: closePos, End: closePos + 1},
		)
		pos = p.skipSpace(closePos + 1)
		hasTachie = true
	}

	if pos >= p.end {
		return nil, p.fail(pos, "message has no content")
	}

	content, err := p.parseContent(pos, named && !hasTachie)
	if err != nil {
		return nil, err
	}
	parts = append(parts, content...)

	body.Rule = RuleIMessageUnnamed
	if named {
		body.Rule = RuleIMessageNamed
	}
	body.Children = parts
	msg.Children = append(msg.Children, body)
	return msg, nil
}

// scanName returns the end of a speaker name starting at pos. Names stop at
// whitespace or at an opening tachie bracket or quote.
func (p *lineParser) scanName(pos int) int {
	for pos < p.end {
		rest := p.src[pos:p.end]
		r, size := utf8.DecodeRuneInString(rest)
		if unicode.IsSpace(r) || r == '[' || isQuoteOpen(rest) {
			break
		}
		pos += size
	}
	return pos
}

func (p *lineParser) parseContent(pos int, quotedOnly bool) ([]*Node, error) {
	rest := p.src[pos:p.end]
	var (
		open, closing string
		delim         Rule
	)
	switch {
	case strings.HasPrefix(rest, `"`):
		open, closing, delim = `"`, `"`, RuleASCIIPrintable
	case strings.HasPrefix(rest, leftCorner):
		open, closing, delim = leftCorner, rightCorner, RuleCJLeftCornerBracket
	default:
		if quotedOnly {
			return nil, p.fail(pos, "named message without tachie requires quoted content")
		}
		return []*Node{{Rule: RuleMessageContentUnquoted, Start: pos, End: p.end}}, nil
	}

	inner := pos + len(open)
	if !strings.HasSuffix(rest, closing) || p.end-len(closing) < inner {
		return nil, p.fail(pos, "unterminated quoted content")
	}
	closePos := p.end - len(closing)
	closeRule := delim
	if delim == RuleCJLeftCornerBracket {
		closeRule = RuleCJRightCornerBracket
	}
	return []*Node{
		{Rule: delim, Start: pos, End: inner},
		{Rule: RuleMessageContentQuoted, Start: inner, End: closePos},
		{Rule: closeRule, Start: closePos, End: p.end},
	}, nil
}
