package segment

import (
	"fmt"

	"musica/internal/services"
)

// Builder is a partially populated segment. Builders are merged field-wise
// while the tree walk climbs back out of a message node, then finalized with
// Build.
type Builder interface {
	Type() Type
	Merge(other Builder) (Builder, error)
	Build() (Segment, error)
}

// MergeConflictError reports a field set on both sides of a merge.
type MergeConflictError struct {
	Field string
}

func (e *MergeConflictError) Error() string {
	return fmt.Sprintf("conflict when merging field %q", e.Field)
}

func (e *MergeConflictError) Unwrap() error { return services.ErrMergeConflict }

// MessageBuilder accumulates the optional fields of a Message.
type MessageBuilder struct {
	Line          *int
	ID            *int
	SpeakerName   *string
	SpeakerTachie *string
	Content       *string
}

func (*MessageBuilder) Type() Type { return TypeMessage }

// WithLine returns a copy of b with the line number set.
func (b MessageBuilder) WithLine(line int) *MessageBuilder {
	b.Line = &line
	return &b
}

// WithID returns a copy of b with the message number set.
func (b MessageBuilder) WithID(id int) *MessageBuilder {
	b.ID = &id
	return &b
}

// WithSpeakerName returns a copy of b with the speaker name set.
func (b MessageBuilder) WithSpeakerName(name string) *MessageBuilder {
	b.SpeakerName = &name
	return &b
}

// WithSpeakerTachie returns a copy of b with the tachie reference set.
func (b MessageBuilder) WithSpeakerTachie(tachie string) *MessageBuilder {
	b.SpeakerTachie = &tachie
	return &b
}

// WithContent returns a copy of b with the dialogue text set.
func (b MessageBuilder) WithContent(content string) *MessageBuilder {
	b.Content = &content
	return &b
}

// Merge combines b and other without mutating either. A nil side carries no
// fields.
func (b *MessageBuilder) Merge(other Builder) (Builder, error) {
	if b == nil {
		b = &MessageBuilder{}
	}
	if isNil(other) {
		other = &MessageBuilder{}
	}
	o, ok := other.(*MessageBuilder)
	if !ok {
		return nil, mismatch(b, other)
	}
	merged := &MessageBuilder{}
	var err error
	if merged.Line, err = mergeField("line", b.Line, o.Line); err != nil {
		return nil, err
	}
	if merged.ID, err = mergeField("id", b.ID, o.ID); err != nil {
		return nil, err
	}
	if merged.SpeakerName, err = mergeField("speaker_name", b.SpeakerName, o.SpeakerName); err != nil {
		return nil, err
	}
	if merged.SpeakerTachie, err = mergeField("speaker_tachie", b.SpeakerTachie, o.SpeakerTachie); err != nil {
		return nil, err
	}
	if merged.Content, err = mergeField("content", b.Content, o.Content); err != nil {
		return nil, err
	}
	return merged, nil
}

// Build finalizes the message. Line, id, and content are mandatory; speaker
// fields default to empty strings.
func (b *MessageBuilder) Build() (Segment, error) {
	switch {
	case b.Line == nil:
		return nil, missing("message", "line")
	case b.ID == nil:
		return nil, missing("message", "id")
	case b.Content == nil:
		return nil, missing("message", "content")
	}
	msg := Message{Line: *b.Line, ID: *b.ID, Content: *b.Content}
	if b.SpeakerName != nil {
		msg.SpeakerName = *b.SpeakerName
	}
	if b.SpeakerTachie != nil {
		msg.SpeakerTachie = *b.SpeakerTachie
	}
	return msg, nil
}

// NonMessageBuilder accumulates the optional fields of a NonMessage.
type NonMessageBuilder struct {
	Line    *int
	Content *string
}

func (*NonMessageBuilder) Type() Type { return TypeNonMessage }

// WithLine returns a copy of b with the line number set.
func (b NonMessageBuilder) WithLine(line int) *NonMessageBuilder {
	b.Line = &line
	return &b
}

// WithContent returns a copy of b with the text set.
func (b NonMessageBuilder) WithContent(content string) *NonMessageBuilder {
	b.Content = &content
	return &b
}

// Merge combines b and other without mutating either. A nil side carries no
// fields.
func (b *NonMessageBuilder) Merge(other Builder) (Builder, error) {
	if b == nil {
		b = &NonMessageBuilder{}
	}
	if isNil(other) {
		other = &NonMessageBuilder{}
	}
	o, ok := other.(*NonMessageBuilder)
	if !ok {
		return nil, mismatch(b, other)
	}
	merged := &NonMessageBuilder{}
	var err error
	if merged.Line, err = mergeField("line", b.Line, o.Line); err != nil {
		return nil, err
	}
	if merged.Content, err = mergeField("content", b.Content, o.Content); err != nil {
		return nil, err
	}
	return merged, nil
}

// Build finalizes the non-message. Line and content are mandatory.
func (b *NonMessageBuilder) Build() (Segment, error) {
	switch {
	case b.Line == nil:
		return nil, missing("non_message", "line")
	case b.Content == nil:
		return nil, missing("non_message", "content")
	}
	return NonMessage{Line: *b.Line, Content: *b.Content}, nil
}

// Merge folds fragments left to right, skipping nil fragments. It returns nil
// when every fragment is nil.
func Merge(fragments ...Builder) (Builder, error) {
	var acc Builder
	for _, fragment := range fragments {
		if isNil(fragment) {
			continue
		}
		if acc == nil {
			acc = fragment
			continue
		}
		merged, err := acc.Merge(fragment)
		if err != nil {
			return nil, err
		}
		acc = merged
	}
	return acc, nil
}

func mergeField[T any](field string, left, right *T) (*T, error) {
	switch {
	case left != nil && right != nil:
		return nil, &MergeConflictError{Field: field}
	case left != nil:
		v := *left
		return &v, nil
	case right != nil:
		v := *right
		return &v, nil
	default:
		return nil, nil
	}
}

func isNil(b Builder) bool {
	switch v := b.(type) {
	case nil:
		return true
	case *MessageBuilder:
		return v == nil
	case *NonMessageBuilder:
		return v == nil
	default:
		return false
	}
}

func mismatch(left, right Builder) error {
	return services.Errorf(services.ErrTypeMismatch, "cannot merge %s builder with %s builder", left.Type(), right.Type())
}

func missing(variant, field string) error {
	return services.Errorf(services.ErrBuild, "%s is missing mandatory field %q", variant, field)
}
