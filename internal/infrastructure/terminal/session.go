package terminal

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/0xcro3dile/netbot-go/internal/domain/entities"
	"github.com/0xcro3dile/netbot-go/internal/domain/ports"
	"github.com/0xcro3dile/netbot-go/internal/domain/usecases"
)

const helpText = `Type a question and press enter to ask it.
Commands:
  /docs                  list the knowledge base
  /refresh               reload the knowledge base
  /upload <path> [title] add a file (.pdf, .docx, .txt, .csv)
  /url <url> [title]     add a web page
  /retry                 resubmit a failed upload
  /cancel                discard a failed upload
  /rm <n|id>             remove a document (number from /docs, or its id)
  /help                  show this help
  /quit                  leave`

// Session is the interactive chat loop.
// Chat turns run in the background so the prompt stays responsive;
// knowledge-base commands run in the foreground.
type Session struct {
	console *Console
	conv    *usecases.ConversationStore
	kb      *usecases.KnowledgeBaseStore
	ctrl    *usecases.IngestionController
	loader  ports.FileLoader

	mu      sync.Mutex
	printed int
	wg      sync.WaitGroup
}

// NewSession wires a session; it subscribes to conversation changes.
func NewSession(
	console *Console,
	conv *usecases.ConversationStore,
	kb *usecases.KnowledgeBaseStore,
	ctrl *usecases.IngestionController,
	loader ports.FileLoader,
) *Session {
	s := &Session{console: console, conv: conv, kb: kb, ctrl: ctrl, loader: loader}
	conv.OnChange(s.renderNew)
	return s
}

// Run loads the knowledge base and reads input until /quit, EOF or ctx is done.
// It waits for any pending chat turn before returning.
func (s *Session) Run(ctx context.Context) error {
	defer s.wg.Wait()

	s.console.Printf("NetBot - ask questions about your documents. /help for commands.")
	if err := s.kb.Refresh(ctx); err != nil {
		s.console.Alert("Could not load the knowledge base: " + err.Error())
	} else {
		s.console.Mutedf("%d document(s) in the knowledge base.", len(s.kb.Documents()))
	}

	for ctx.Err() == nil {
		line, err := s.console.ReadLine(s.prompt())
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if s.Handle(ctx, line) {
			return nil
		}
	}
	return ctx.Err()
}

func (s *Session) prompt() string {
	switch st := s.ctrl.State().(type) {
	case usecases.FileModal:
		if st.LastError != "" {
			return "(upload failed: /retry or /cancel) > "
		}
	case usecases.URLModal:
		if st.LastError != "" {
			return "(url failed: /retry or /cancel) > "
		}
	}
	return "> "
}

// Handle processes one input line and reports whether the session should end.
func (s *Session) Handle(ctx context.Context, line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	if !strings.HasPrefix(trimmed, "/") {
		s.ask(ctx, line)
		return false
	}

	fields := strings.Fields(trimmed)
	cmd, args := fields[0], fields[1:]
	switch cmd {
	case "/quit", "/exit":
		return true
	case "/help":
		s.console.Printf(helpText)
	case "/docs":
		s.console.PrintDocuments(s.kb.Documents(), s.kb.Loading())
	case "/refresh":
		if err := s.kb.Refresh(ctx); err != nil {
			s.console.Alert("Refresh failed: " + err.Error())
			return false
		}
		s.console.PrintDocuments(s.kb.Documents(), s.kb.Loading())
	case "/upload":
		s.upload(ctx, args)
	case "/url":
		s.addURL(ctx, args)
	case "/retry":
		s.retry(ctx)
	case "/cancel":
		if s.ctrl.Close() {
			s.console.Mutedf("Discarded.")
		}
	case "/rm":
		s.remove(ctx, args)
	default:
		s.console.Alert("Unknown command " + cmd + ", try /help")
	}
	return false
}

// ask records line as a user turn right away and waits for the reply in the background.
// The draft is sent exactly as typed.
func (s *Session) ask(ctx context.Context, line string) {
	if s.conv.InFlight() {
		s.console.Alert("Still waiting for the previous answer.")
		return
	}
	s.conv.SetDraft(line)
	exchange, ok := s.conv.Begin()
	if !ok {
		s.console.Alert("Still waiting for the previous answer.")
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		exchange(ctx)
	}()
}

func (s *Session) upload(ctx context.Context, args []string) {
	if len(args) == 0 {
		s.console.Alert("Usage: /upload <path> [title]")
		return
	}
	file, err := s.loader.Load(ctx, args[0])
	if err != nil {
		s.console.Alert("Upload failed: " + err.Error())
		return
	}

	s.ctrl.OpenFile()
	s.ctrl.SelectFile(*file)
	s.ctrl.SetFileTitle(strings.Join(args[1:], " "))
	s.console.Mutedf("Uploading %s...", file.Name)
	s.submit(ctx)
}

func (s *Session) addURL(ctx context.Context, args []string) {
	if len(args) == 0 {
		s.console.Alert("Usage: /url <url> [title]")
		return
	}
	s.ctrl.OpenURL()
	s.ctrl.SetURL(args[0])
	s.ctrl.SetURLTitle(strings.Join(args[1:], " "))
	s.console.Mutedf("Fetching %s...", args[0])
	s.submit(ctx)
}

func (s *Session) retry(ctx context.Context) {
	switch s.ctrl.State().(type) {
	case usecases.FileModal, usecases.URLModal:
		s.submit(ctx)
	default:
		s.console.Alert("Nothing to retry.")
	}
}

// submit sends whichever modal is open. Failures are alerted by the controller.
func (s *Session) submit(ctx context.Context) {
	var err error
	switch s.ctrl.State().(type) {
	case usecases.FileModal:
		err = s.ctrl.SubmitFile(ctx)
	case usecases.URLModal:
		err = s.ctrl.SubmitURL(ctx)
	}
	if err != nil {
		log.Debug().Err(err).Msg("submission kept open for retry")
	}
}

func (s *Session) remove(ctx context.Context, args []string) {
	if len(args) != 1 {
		s.console.Alert("Usage: /rm <n|id>")
		return
	}
	id := s.resolveID(args[0])
	if _, err := s.ctrl.ConfirmAndDelete(ctx, id, ""); err != nil {
		log.Debug().Err(err).Str("document_id", id).Msg("delete failed")
	}
}

// resolveID maps a 1-based list position to a document ID.
// Anything that is not a valid position is taken as an ID.
func (s *Session) resolveID(arg string) string {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return arg
	}
	docs := s.kb.Documents()
	if n < 1 || n > len(docs) {
		return arg
	}
	return docs[n-1].ID
}

// renderNew prints transcript messages that have not been shown yet.
// The user's own lines are already on screen, so only a waiting hint is shown for them.
func (s *Session) renderNew() {
	msgs := s.conv.Messages()

	s.mu.Lock()
	defer s.mu.Unlock()
	for ; s.printed < len(msgs); s.printed++ {
		m := msgs[s.printed]
		if m.Role == entities.RoleUser {
			s.console.Mutedf("thinking...")
			continue
		}
		s.console.PrintMessage(m)
	}
}
