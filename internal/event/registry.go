package event

import (
	"bytes"
	"encoding/json"
)

// registry maps each event type to a constructor for its payload schema.
// Appends with an unregistered (category, type) tag are rejected.
var registry = map[Type]func() Payload{
	TypeChatUser:      func() Payload { return &ChatMessage{} },
	TypeChatAssistant: func() Payload { return &ChatMessage{} },
	TypeChatReset:     func() Payload { return &ChatReset{} },

	TypeCodeSnapshot: func() Payload { return &CodeSnapshot{} },
	TypeCodeTestRun:  func() Payload { return &TestRun{} },

	TypeTerminalCommand: func() Payload { return &TerminalCommand{} },
	TypeTerminalOutput:  func() Payload { return &TerminalOutput{} },

	TypeQuestionStarted:   func() Payload { return &QuestionStarted{} },
	TypeQuestionCompleted: func() Payload { return &QuestionCompleted{} },
	TypeQuestionSkipped:   func() Payload { return &QuestionSkipped{} },

	TypeEvaluationStarted:  func() Payload { return &EvaluationStarted{} },
	TypeEvaluationComplete: func() Payload { return &EvaluationComplete{} },

	TypeSystemError: func() Payload { return &SystemError{} },
}

// Registered reports whether the event type has a payload schema.
func Registered(t Type) bool {
	_, ok := registry[t]
	return ok
}

// Decode unmarshals raw payload bytes into the typed payload registered for
// the event type. Unknown fields are rejected so schema drift surfaces at
// the boundary instead of silently dropping data.
func Decode(t Type, raw json.RawMessage) (Payload, error) {
	ctor, ok := registry[t]
	if !ok {
		return nil, Invalid("type", "unregistered event type %q", t)
	}
	p := ctor()
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(p); err != nil {
		return nil, Invalid("payload", "decoding %s payload: %v", t, err)
	}
	return p, nil
}

// ValidateRaw checks that the tag is registered, the category matches the
// type's prefix, and the payload decodes and validates against its schema.
func ValidateRaw(c Category, t Type, raw json.RawMessage) error {
	if CategoryOf(t) != c {
		return Invalid("category", "category %q does not match type %q", c, t)
	}
	p, err := Decode(t, raw)
	if err != nil {
		return err
	}
	return p.Validate()
}

// Marshal encodes a typed payload for storage.
func Marshal(p Payload) (json.RawMessage, error) {
	return json.Marshal(p)
}
