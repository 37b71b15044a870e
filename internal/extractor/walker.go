package extractor

import (
	"context"
	"fmt"
	"strconv"

	"musica/internal/script"
	"musica/internal/segment"
	"musica/internal/services"
)

// segmentSink receives each segment as soon as it is finalized.
type segmentSink interface {
	Insert(ctx context.Context, seg segment.Segment) (int64, error)
}

type handlerFunc func(w *walker, node *script.Node, line int) (segment.Builder, error)

// handlers holds exactly one entry per grammar rule; checkHandlers enforces it.
var handlers map[script.Rule]handlerFunc

func init() {
	handlers = map[script.Rule]handlerFunc{
		script.RuleEOI:                               silent,
		script.RuleASCIIPrintable:                    silent,
		script.RuleCJCharacters:                      silent,
		script.RuleCJPunctuation:                     silent,
		script.RuleCJHalfFullWidth:                   silent,
		script.RuleCJSeparator:                       silent,
		script.RuleCJLeftCornerBracket:               silent,
		script.RuleCJRightCornerBracket:              silent,
		script.RuleCJPunctuationWithoutCornerBracket: silent,
		script.RuleMusicaCommand:                     silent,
		script.RuleMusicaPreproc:                     silent,
		script.RuleMusicaComment:                     silent,
		script.RuleIMusicaScript:                     silent,
		script.RuleIComment:                          persistNonMessage,
		script.RuleIInclude:                          persistNonMessage,
		script.RuleINonMessage:                       persistNonMessage,
		script.RuleIMessage:                          persistMessage,
		script.RuleIMessageNamed:                     accumulateMessage,
		script.RuleIMessageUnnamed:                   accumulateMessage,
		script.RuleMessageNumber:                     messageNumber,
		script.RuleMessageSpeakerName:                speakerName,
		script.RuleMessageSpeakerTachie:              speakerTachie,
		script.RuleMessageContentQuoted:              messageContent,
		script.RuleMessageContentUnquoted:            messageContent,
		script.RuleMusica:                            walkTopLevel,
	}
	if err := checkHandlers(); err != nil {
		panic(err)
	}
}

func checkHandlers() error {
	for _, rule := range script.Rules() {
		if handlers[rule] == nil {
			return fmt.Errorf("extractor: no handler for rule %s", rule)
		}
	}
	if len(handlers) != len(script.Rules()) {
		return fmt.Errorf("extractor: handler table has %d entries for %d rules", len(handlers), len(script.Rules()))
	}
	return nil
}

// Summary counts what one walk produced.
type Summary struct {
	Messages    int
	NonMessages int
	TopLevel    int
}

type walker struct {
	ctx     context.Context
	tree    *script.Tree
	sink    segmentSink
	summary Summary
}

func (w *walker) dispatch(node *script.Node, line int) (segment.Builder, error) {
	handle, ok := handlers[node.Rule]
	if !ok {
		return nil, services.Errorf(services.ErrParse, "unknown rule %s", node.Rule)
	}
	return handle(w, node, line)
}

func (w *walker) persist(node *script.Node, b segment.Builder) error {
	seg, err := b.Build()
	if err != nil {
		return fmt.Errorf("%s at line %d: %w", node.Rule, w.lineOf(node), err)
	}
	if _, err := w.sink.Insert(w.ctx, seg); err != nil {
		return err
	}
	switch seg.Type() {
	case segment.TypeMessage:
		w.summary.Messages++
	case segment.TypeNonMessage:
		w.summary.NonMessages++
	}
	return nil
}

// lineOf returns the physical source line of node for error messages.
func (w *walker) lineOf(node *script.Node) int {
	line := 1
	for i := 0; i < node.Start && i < len(w.tree.Source); i++ {
		if w.tree.Source[i] == '\n' {
			line++
		}
	}
	return line
}

func silent(*walker, *script.Node, int) (segment.Builder, error) {
	return nil, nil
}

func walkTopLevel(w *walker, node *script.Node, line int) (segment.Builder, error) {
	for _, child := range node.Children {
		if _, err := w.dispatch(child, line); err != nil {
			return nil, err
		}
		line++
		w.summary.TopLevel++
	}
	return nil, nil
}

func persistNonMessage(w *walker, node *script.Node, line int) (segment.Builder, error) {
	b := segment.NonMessageBuilder{}.WithLine(line).WithContent(w.tree.Text(node))
	return nil, w.persist(node, b)
}

func persistMessage(w *walker, node *script.Node, line int) (segment.Builder, error) {
	acc, err := w.mergeChildren(node, segment.MessageBuilder{}.WithLine(line), line)
	if err != nil {
		return nil, err
	}
	return nil, w.persist(node, acc)
}

func accumulateMessage(w *walker, node *script.Node, line int) (segment.Builder, error) {
	return w.mergeChildren(node, &segment.MessageBuilder{}, line)
}

func (w *walker) mergeChildren(node *script.Node, seed segment.Builder, line int) (segment.Builder, error) {
	acc := seed
	for _, child := range node.Children {
		fragment, err := w.dispatch(child, line)
		if err != nil {
			return nil, err
		}
		merged, err := segment.Merge(acc, fragment)
		if err != nil {
			return nil, fmt.Errorf("%s at line %d: %w", node.Rule, w.lineOf(child), err)
		}
		acc = merged
	}
	if acc.Type() != segment.TypeMessage {
		return nil, services.Errorf(services.ErrTypeMismatch, "%s accumulated a %s builder", node.Rule, acc.Type())
	}
	return acc, nil
}

func messageNumber(w *walker, node *script.Node, _ int) (segment.Builder, error) {
	text := w.tree.Text(node)
	id, err := strconv.Atoi(text)
	if err != nil {
		return nil, services.Wrap(services.ErrParse, "", "message number", fmt.Sprintf("line %d: %q is not a valid id", w.lineOf(node), text), err)
	}
	return segment.MessageBuilder{}.WithID(id), nil
}

func speakerName(w *walker, node *script.Node, _ int) (segment.Builder, error) {
	return segment.MessageBuilder{}.WithSpeakerName(w.tree.Text(node)), nil
}

func speakerTachie(w *walker, node *script.Node, _ int) (segment.Builder, error) {
	return segment.MessageBuilder{}.WithSpeakerTachie(w.tree.Text(node)), nil
}

func messageContent(w *walker, node *script.Node, _ int) (segment.Builder, error) {
	return segment.MessageBuilder{}.WithContent(w.tree.Text(node)), nil
}
