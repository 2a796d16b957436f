// Package entities contains core business entities.
// These are the enterprise business rules - pure domain objects with no external dependencies.
package entities

// Role identifies who authored a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// SourceType tells whether a knowledge-base entry came from a file or a URL.
type SourceType string

const (
	SourceFile SourceType = "file"
	SourceURL  SourceType = "url"
)

// Source is a citation attached to an assistant reply.
type Source struct {
	Text       string
	Title      string
	SourceType SourceType
	SourcePath string
}

// Message is one turn of the conversation.
// Only assistant messages carry sources.
type Message struct {
	Role    Role
	Content string
	Sources []Source
}

// Clone returns a copy that shares no slices with m.
func (m Message) Clone() Message {
	c := m
	if m.Sources != nil {
		c.Sources = append([]Source(nil), m.Sources...)
	}
	return c
}

// HistoryEntry is a message as the chat endpoint sees it: sources stripped.
type HistoryEntry struct {
	Role    Role
	Content string
}

// HistoryOf projects a transcript onto the chat history wire shape.
func HistoryOf(messages []Message) []HistoryEntry {
	history := make([]HistoryEntry, len(messages))
	for i, m := range messages {
		history[i] = HistoryEntry{Role: m.Role, Content: m.Content}
	}
	return history
}

// Document is the client-side mirror of a server-owned knowledge-base entry.
// This is a core entity - the server assigns ID and CreatedAt.
type Document struct {
	ID         string
	Title      string
	SourceType SourceType
	SourcePath string
	CreatedAt  string // as reported by the server, may be empty
}

// DisplayTitle is the label shown in document listings.
// File entries whose title differs from the file name also show the path.
func (d Document) DisplayTitle() string {
	if d.SourceType == SourceFile && d.SourcePath != "" && d.Title != d.SourcePath {
		return d.Title + " (" + d.SourcePath + ")"
	}
	return d.Title
}

// File is an upload payload picked by the user.
type File struct {
	Name string
	Data []byte
}

// ChatReply is the backend's answer to a chat turn.
type ChatReply struct {
	Response string
	Sources  []Source
}
