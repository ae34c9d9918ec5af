// Package model defines the conversation records found in a chat export and
// the decoding rules that turn their loosely shaped JSON into typed values.
package model

import (
	"math"
	"sort"
	"time"
)

// Role is the author role attached to every message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
	RoleSystem    Role = "system"
)

// Conversation is one exported chat.
type Conversation struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	CreateTime *float64 `json:"create_time"`
	UpdateTime *float64 `json:"update_time"`
	Mapping    Mapping  `json:"mapping"`
}

// Node is one entry of a conversation mapping. Structural nodes (the root,
// folded branches) carry no message.
type Node struct {
	Key      string   `json:"-"`
	ID       string   `json:"id"`
	Parent   string   `json:"parent"`
	Children []string `json:"children"`
	Message  *Message `json:"message"`
}

// Author identifies who produced a message.
type Author struct {
	Role Role   `json:"role"`
	Name string `json:"name"`
}

// Message is a single turn in a conversation.
type Message struct {
	ID         string   `json:"id"`
	Author     Author   `json:"author"`
	CreateTime *float64 `json:"create_time"`
	Content    Content  `json:"content"`
}

// Timestamp returns the creation time of the message, if present.
func (m Message) Timestamp() (time.Time, bool) {
	return FromEpoch(m.CreateTime)
}

// sortKey orders untimed messages before every timed one.
func (m Message) sortKey() float64 {
	if m.CreateTime == nil {
		return math.Inf(-1)
	}
	return *m.CreateTime
}

// Linearize collects every message-bearing node of the conversation and
// orders the messages by ascending creation time. Messages without a time
// sort first; ties keep mapping order.
func Linearize(conv Conversation) []Message {
	messages := make([]Message, 0, len(conv.Mapping))
	for _, node := range conv.Mapping {
		if node.Message == nil {
			continue
		}
		messages = append(messages, *node.Message)
	}
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].sortKey() < messages[j].sortKey()
	})
	return messages
}

// FromEpoch converts an export timestamp (fractional Unix seconds) to a
// time.Time in the local zone.
func FromEpoch(seconds *float64) (time.Time, bool) {
	if seconds == nil {
		return time.Time{}, false
	}
	sec, frac := math.Modf(*seconds)
	return time.Unix(int64(sec), int64(frac*1e9)).Local(), true
}
