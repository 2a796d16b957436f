// Package ports defines interfaces for external dependencies.
// Clean Architecture: These are the boundaries - usecases depend on these abstractions,
// not concrete implementations. Adapters implement these interfaces.
package ports

import (
	"context"
	"errors"
	"fmt"

	"github.com/0xcro3dile/netbot-go/internal/domain/entities"
)

// Gateway is the single point of contact with the knowledge-base backend.
// Every method either returns its value or a *GatewayError.
type Gateway interface {
	// FetchDocuments lists every document in the knowledge base.
	FetchDocuments(ctx context.Context) ([]entities.Document, error)

	// UploadFile ingests a file. A blank title is omitted from the request.
	UploadFile(ctx context.Context, file entities.File, title string) (*entities.Document, error)

	// AddURL ingests a web page. A blank title is sent as null.
	AddURL(ctx context.Context, url, title string) (*entities.Document, error)

	// DeleteDocument removes a document by server-assigned ID.
	DeleteDocument(ctx context.Context, id string) error

	// SendChat asks a question with the prior conversation as context.
	SendChat(ctx context.Context, message string, history []entities.HistoryEntry) (*entities.ChatReply, error)
}

// GatewayError is the uniform failure shape of every Gateway call.
type GatewayError struct {
	Operation  string
	StatusCode int    // 0 when no response was received
	Detail     string // server-supplied explanation, if any
	Err        error
}

func (e *GatewayError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s failed with status %d", e.Operation, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %v", e.Operation, e.Err)
	}
	return e.Operation + " failed"
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// Prompter is the user-facing side channel for blocking questions and alerts.
type Prompter interface {
	// Confirm blocks until the user answers a yes/no question.
	Confirm(ctx context.Context, question string) bool

	// Alert shows a message the user must notice.
	Alert(message string)
}

// ErrEmptyFile is returned by a FileLoader for a file with no content.
var ErrEmptyFile = errors.New("file is empty")

// FileLoader reads local files into upload payloads.
type FileLoader interface {
	// Load reads the file at path.
	Load(ctx context.Context, path string) (*entities.File, error)

	// SupportedExtensions returns file extensions this loader accepts.
	SupportedExtensions() []string
}

// FileWatcher monitors a directory for changes.
type FileWatcher interface {
	// Watch starts monitoring the directory and emits events.
	Watch(ctx context.Context, dir string) (<-chan FileEvent, error)

	// Stop stops the watcher.
	Stop() error
}

// FileEvent represents a file system change.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
)

func (op FileOperation) String() string {
	switch op {
	case FileCreated:
		return "created"
	case FileModified:
		return "modified"
	case FileDeleted:
		return "deleted"
	}
	return "unknown"
}
