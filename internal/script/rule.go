package script

// Rule identifies the grammar production that produced a Node.
type Rule int

const (
	RuleEOI Rule = iota
	RuleASCIIPrintable
	RuleCJCharacters
	RuleCJPunctuation
	RuleCJHalfFullWidth
	RuleCJSeparator
	RuleCJLeftCornerBracket
	RuleCJRightCornerBracket
	RuleCJPunctuationWithoutCornerBracket
	RuleMusicaCommand
	RuleMusicaPreproc
	RuleMusicaComment
	RuleIMusicaScript
	RuleIComment
	RuleIInclude
	RuleIMessage
	RuleIMessageNamed
	RuleIMessageUnnamed
	RuleMessageNumber
	RuleMessageSpeakerName
	RuleMessageSpeakerTachie
	RuleMessageContentQuoted
	RuleMessageContentUnquoted
	RuleINonMessage
	RuleMusica

	ruleCount
)

var ruleNames = [ruleCount]string{
	RuleEOI:                               "EOI",
	RuleASCIIPrintable:                    "ASCII_PRINTABLE",
	RuleCJCharacters:                      "CJ_CHARACTERS",
	RuleCJPunctuation:                     "CJ_PUNCTUATION",
	RuleCJHalfFullWidth:                   "CJ_HALF_FULL_WIDTH",
	RuleCJSeparator:                       "CJ_SEPARATOR",
	RuleCJLeftCornerBracket:               "CJ_LEFT_CORNER_BRACKET",
	RuleCJRightCornerBracket:              "CJ_RIGHT_CORNER_BRACKET",
	RuleCJPunctuationWithoutCornerBracket: "CJ_PUNCTUATION_WITHOUT_CORNER_BRACKET",
	RuleMusicaCommand:                     "MUSICA_COMMAND",
	RuleMusicaPreproc:                     "MUSICA_PREPROC",
	RuleMusicaComment:                     "MUSICA_COMMENT",
	RuleIMusicaScript:                     "IMusicaScript",
	RuleIComment:                          "IComment",
	RuleIInclude:                          "IInclude",
	RuleIMessage:                          "IMessage",
	RuleIMessageNamed:                     "IMessageNamed",
	RuleIMessageUnnamed:                   "IMessageUnnamed",
	RuleMessageNumber:                     "MessageNumber",
	RuleMessageSpeakerName:                "MessageSpeakerName",
	RuleMessageSpeakerTachie:              "MessageSpeakerTachie",
	RuleMessageContentQuoted:              "MessageContentQuoted",
	RuleMessageContentUnquoted:            "MessageContentUnquoted",
	RuleINonMessage:                       "INonMessage",
	RuleMusica:                            "Musica",
}

func (r Rule) String() string {
	if r < 0 || r >= ruleCount {
		return "Rule(?)"
	}
	return ruleNames[r]
}

// Rules returns every rule kind the grammar defines.
func Rules() []Rule {
	out := make([]Rule, 0, ruleCount)
	for r := Rule(0); r < ruleCount; r++ {
		out = append(out, r)
	}
	return out
}
