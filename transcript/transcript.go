// Package transcript converts the widget's conversation into the role-tagged
// message sequence sent to a chat completion service.
//
// The conversion is a pure function: one system message carrying the
// instruction, followed by one message per turn in the original order.
//
//	msgs := transcript.Build(history, negotiation.Instruction())
package transcript

// Speaker identifies who authored a turn in the widget conversation.
type Speaker string

const (
	SpeakerUser Speaker = "user"
	SpeakerBot  Speaker = "bot"
)

// Turn is one message in the widget conversation.
type Turn struct {
	Sender Speaker `json:"sender"`
	Text   string  `json:"text"`
}

// Role is the role tag understood by chat completion APIs.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged entry of a transcript.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// RoleFor maps a speaker to its transcript role. Bot turns become assistant
// messages; every other speaker, including unrecognized values, becomes user.
func RoleFor(s Speaker) Role {
	if s == SpeakerBot {
		return RoleAssistant
	}
	return RoleUser
}

// Build returns the transcript for conversation, prefixed by a single system
// message holding instruction. The result always has len(conversation)+1
// entries and conversation is never modified.
func Build(conversation []Turn, instruction string) []Message {
	msgs := make([]Message, 0, len(conversation)+1)
	msgs = append(msgs, Message{Role: RoleSystem, Content: instruction})
	for _, turn := range conversation {
		msgs = append(msgs, Message{
			Role:    RoleFor(turn.Sender),
			Content: turn.Text,
		})
	}
	return msgs
}
