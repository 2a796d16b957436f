// Package usecases - ingestion.go drives the add-source modals and deletion.
package usecases

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/0xcro3dile/netbot-go/internal/domain/entities"
	"github.com/0xcro3dile/netbot-go/internal/domain/ports"
)

// UnknownDocumentTitle names a document whose title cannot be resolved.
const UnknownDocumentTitle = "Unknown document"

// ModalKind identifies which add-source modal a state refers to.
type ModalKind int

const (
	ModalFile ModalKind = iota + 1
	ModalURL
)

func (k ModalKind) String() string {
	switch k {
	case ModalFile:
		return "file"
	case ModalURL:
		return "url"
	}
	return "none"
}

// FileDraft is the user's in-progress file submission.
type FileDraft struct {
	File  *entities.File
	Title string
}

// URLDraft is the user's in-progress URL submission.
type URLDraft struct {
	URL   string
	Title string
}

// WorkflowState is one of Closed, FileModal, URLModal or Submitting.
type WorkflowState interface {
	workflowState()
}

// Closed means no modal is open and no drafts exist.
type Closed struct{}

// FileModal is the open file modal. LastError holds the previous failed attempt, if any.
type FileModal struct {
	Draft     FileDraft
	LastError string
}

// URLModal is the open URL modal.
type URLModal struct {
	Draft     URLDraft
	LastError string
}

// Submitting means a submission is awaiting the backend.
// The draft is carried so a failure can restore it.
type Submitting struct {
	Kind ModalKind
	File FileDraft
	URL  URLDraft
}

func (Closed) workflowState()     {}
func (FileModal) workflowState()  {}
func (URLModal) workflowState()   {}
func (Submitting) workflowState() {}

// IngestionController coordinates adding and removing knowledge-base sources.
// It writes through the KnowledgeBaseStore and reports outcomes in the conversation.
type IngestionController struct {
	kb       *KnowledgeBaseStore
	conv     *ConversationStore
	prompter ports.Prompter

	mu        sync.Mutex
	state     WorkflowState
	listeners []func()
}

// NewIngestionController creates a controller in the Closed state.
func NewIngestionController(kb *KnowledgeBaseStore, conv *ConversationStore, prompter ports.Prompter) *IngestionController {
	return &IngestionController{
		kb:       kb,
		conv:     conv,
		prompter: prompter,
		state:    Closed{},
	}
}

// OnChange registers fn to run after every state transition.
func (c *IngestionController) OnChange(fn func()) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// State returns the current workflow state.
func (c *IngestionController) State() WorkflowState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// transition applies fn to the current state under the lock.
// fn returns the next state, or nil to leave it unchanged.
func (c *IngestionController) transition(fn func(WorkflowState) WorkflowState) bool {
	c.mu.Lock()
	next := fn(c.state)
	if next != nil {
		c.state = next
	}
	listeners := append([]func(){}, c.listeners...)
	c.mu.Unlock()

	if next == nil {
		return false
	}
	for _, l := range listeners {
		l()
	}
	return true
}

// OpenFile shows the file modal, closing the URL modal if it was open.
func (c *IngestionController) OpenFile() bool {
	return c.transition(func(s WorkflowState) WorkflowState {
		switch s.(type) {
		case Submitting, FileModal:
			return nil
		}
		return FileModal{}
	})
}

// OpenURL shows the URL modal, closing the file modal if it was open.
func (c *IngestionController) OpenURL() bool {
	return c.transition(func(s WorkflowState) WorkflowState {
		switch s.(type) {
		case Submitting, URLModal:
			return nil
		}
		return URLModal{}
	})
}

// Close dismisses any open modal and discards its draft.
// It has no effect while a submission is pending.
func (c *IngestionController) Close() bool {
	return c.transition(func(s WorkflowState) WorkflowState {
		switch s.(type) {
		case Submitting, Closed:
			return nil
		}
		return Closed{}
	})
}

// SelectFile sets the file of an open file modal.
func (c *IngestionController) SelectFile(file entities.File) bool {
	return c.transition(func(s WorkflowState) WorkflowState {
		m, ok := s.(FileModal)
		if !ok {
			return nil
		}
		m.Draft.File = &file
		m.LastError = ""
		return m
	})
}

// SetFileTitle sets the optional title of an open file modal.
func (c *IngestionController) SetFileTitle(title string) bool {
	return c.transition(func(s WorkflowState) WorkflowState {
		m, ok := s.(FileModal)
		if !ok {
			return nil
		}
		m.Draft.Title = title
		return m
	})
}

// SetURL sets the URL of an open URL modal.
func (c *IngestionController) SetURL(url string) bool {
	return c.transition(func(s WorkflowState) WorkflowState {
		m, ok := s.(URLModal)
		if !ok {
			return nil
		}
		m.Draft.URL = url
		m.LastError = ""
		return m
	})
}

// SetURLTitle sets the optional title of an open URL modal.
func (c *IngestionController) SetURLTitle(title string) bool {
	return c.transition(func(s WorkflowState) WorkflowState {
		m, ok := s.(URLModal)
		if !ok {
			return nil
		}
		m.Draft.Title = title
		return m
	})
}

// SubmitFile uploads the selected file.
// It does nothing unless the file modal is open with a file selected.
// On failure the modal stays open with its draft and the user is alerted.
func (c *IngestionController) SubmitFile(ctx context.Context) error {
	var draft FileDraft
	started := c.transition(func(s WorkflowState) WorkflowState {
		m, ok := s.(FileModal)
		if !ok || m.Draft.File == nil {
			return nil
		}
		draft = m.Draft
		return Submitting{Kind: ModalFile, File: draft}
	})
	if !started {
		return nil
	}

	doc, err := c.kb.Upload(ctx, *draft.File, draft.Title)
	if err != nil {
		log.Error().Err(err).Str("file", draft.File.Name).Msg("upload failed")
		c.transition(func(WorkflowState) WorkflowState {
			return FileModal{Draft: draft, LastError: err.Error()}
		})
		c.prompter.Alert("Upload failed: " + err.Error())
		return err
	}

	c.transition(func(WorkflowState) WorkflowState { return Closed{} })
	c.conv.AppendSystemNotice(addedNotice(doc, draft.File.Name))
	return nil
}

// SubmitURL asks the backend to ingest the entered URL.
// It does nothing unless the URL modal is open with a non-blank URL.
func (c *IngestionController) SubmitURL(ctx context.Context) error {
	var draft URLDraft
	started := c.transition(func(s WorkflowState) WorkflowState {
		m, ok := s.(URLModal)
		if !ok || strings.TrimSpace(m.Draft.URL) == "" {
			return nil
		}
		draft = m.Draft
		return Submitting{Kind: ModalURL, URL: draft}
	})
	if !started {
		return nil
	}

	doc, err := c.kb.AddFromURL(ctx, draft.URL, draft.Title)
	if err != nil {
		log.Error().Err(err).Str("url", draft.URL).Msg("url submission failed")
		c.transition(func(WorkflowState) WorkflowState {
			return URLModal{Draft: draft, LastError: err.Error()}
		})
		c.prompter.Alert("URL submission failed: " + err.Error())
		return err
	}

	c.transition(func(WorkflowState) WorkflowState { return Closed{} })
	c.conv.AppendSystemNotice(addedNotice(doc, draft.URL))
	return nil
}

// ConfirmAndDelete asks the user to confirm, then removes the document.
// A blank title is looked up in the knowledge base. It reports whether a deletion happened.
func (c *IngestionController) ConfirmAndDelete(ctx context.Context, id, title string) (bool, error) {
	if strings.TrimSpace(title) == "" {
		if doc, ok := c.kb.Find(id); ok && doc.Title != "" {
			title = doc.Title
		} else {
			title = UnknownDocumentTitle
		}
	}

	if !c.prompter.Confirm(ctx, fmt.Sprintf("Are you sure you want to delete \"%s\"?", title)) {
		return false, nil
	}

	if err := c.kb.Remove(ctx, id); err != nil {
		log.Error().Err(err).Str("document_id", id).Msg("deletion failed")
		c.prompter.Alert("Deletion failed: " + err.Error())
		return false, err
	}

	c.conv.AppendSystemNotice(fmt.Sprintf("I've removed \"%s\" from my knowledge base.", title))
	return true, nil
}

func addedNotice(doc *entities.Document, fallback string) string {
	title := doc.Title
	if title == "" {
		title = fallback
	}
	return fmt.Sprintf("I've added \"%s\" to my knowledge base. You can now ask questions about it!", title)
}
