package segment

import (
	"encoding/json"
	"fmt"

	"musica/internal/services"
)

// Type is the persisted discriminator for a segment variant.
type Type int

const (
	TypeMessage    Type = 0
	TypeNonMessage Type = 1
)

func (t Type) String() string {
	switch t {
	case TypeMessage:
		return "message"
	case TypeNonMessage:
		return "non_message"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// Segment is either a Message or a NonMessage.
type Segment interface {
	Type() Type
	LineNumber() int
	isSegment()
}

// Message is one line of dialogue.
type Message struct {
	Line          int    `json:"line"`
	ID            int    `json:"id"`
	SpeakerName   string `json:"speaker_name"`
	SpeakerTachie string `json:"speaker_tachie"`
	Content       string `json:"content"`
}

func (Message) Type() Type { return TypeMessage }
func (m Message) LineNumber() int { return m.Line }
func (Message) isSegment() {}

// NonMessage is any script text that is not dialogue.
type NonMessage struct {
	Line    int    `json:"line"`
	Content string `json:"content"`
}

func (NonMessage) Type() Type { return TypeNonMessage }
func (n NonMessage) LineNumber() int { return n.Line }
func (NonMessage) isSegment() {}

type taggedMessage struct {
	Kind string `json:"type"`
	Message
}

type taggedNonMessage struct {
	Kind string `json:"type"`
	NonMessage
}

// Encode returns the persisted discriminator and the tagged JSON content of seg.
func Encode(seg Segment) (Type, []byte, error) {
	var (
		payload any
		kind    Type
	)
	switch s := seg.(type) {
	case Message:
		kind, payload = TypeMessage, taggedMessage{Kind: TypeMessage.String(), Message: s}
	case *Message:
		kind, payload = TypeMessage, taggedMessage{Kind: TypeMessage.String(), Message: *s}
	case NonMessage:
		kind, payload = TypeNonMessage, taggedNonMessage{Kind: TypeNonMessage.String(), NonMessage: s}
	case *NonMessage:
		kind, payload = TypeNonMessage, taggedNonMessage{Kind: TypeNonMessage.String(), NonMessage: *s}
	default:
		return 0, nil, services.Errorf(services.ErrTypeMismatch, "unsupported segment %T", seg)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("encode segment: %w", err)
	}
	return kind, data, nil
}

// Decode reverses Encode. The JSON tag must agree with the discriminator.
func Decode(kind Type, content []byte) (Segment, error) {
	var probe struct {
		Kind string `json:"type"`
	}
	if err := json.Unmarshal(content, &probe); err != nil {
		return nil, fmt.Errorf("decode segment: %w", err)
	}
	if probe.Kind != kind.String() {
		return nil, services.Errorf(services.ErrTypeMismatch, "segment tag %q does not match type %s", probe.Kind, kind)
	}
	switch kind {
	case TypeMessage:
		var m taggedMessage
		if err := json.Unmarshal(content, &m); err != nil {
			return nil, fmt.Errorf("decode message: %w", err)
		}
		return m.Message, nil
	case TypeNonMessage:
		var n taggedNonMessage
		if err := json.Unmarshal(content, &n); err != nil {
			return nil, fmt.Errorf("decode non-message: %w", err)
		}
		return n.NonMessage, nil
	default:
		return nil, services.Errorf(services.ErrTypeMismatch, "unknown segment type %d", int(kind))
	}
}
