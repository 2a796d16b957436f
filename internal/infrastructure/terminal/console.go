// Package terminal provides the interactive terminal UI.
// Clean Architecture: Framework/driver layer - outermost circle.
package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/0xcro3dile/netbot-go/internal/domain/entities"
)

// Console renders store state and reads user input.
// It implements ports.Prompter.
type Console struct {
	in  *bufio.Reader
	out io.Writer
	mu  sync.Mutex

	assistant *color.Color
	source    *color.Color
	alert     *color.Color
	muted     *color.Color
	heading   *color.Color
}

// NewConsole creates a console over the given streams.
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{
		in:        bufio.NewReader(in),
		out:       out,
		assistant: color.New(color.FgCyan),
		source:    color.New(color.FgBlue),
		alert:     color.New(color.FgRed, color.Bold),
		muted:     color.New(color.Faint),
		heading:   color.New(color.Bold),
	}
}

// ReadLine prints prompt and returns the next input line without its newline.
// The last line of input is returned even if it is not newline-terminated.
func (c *Console) ReadLine(prompt string) (string, error) {
	c.mu.Lock()
	fmt.Fprint(c.out, prompt)
	c.mu.Unlock()

	line, err := c.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Confirm asks a yes/no question. Anything but y or yes is a no.
func (c *Console) Confirm(ctx context.Context, question string) bool {
	if ctx.Err() != nil {
		return false
	}
	answer, err := c.ReadLine(question + " [y/N] ")
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

// Alert prints a highlighted message.
func (c *Console) Alert(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alert.Fprintf(c.out, "! %s\n", message)
}

// Printf prints a plain line.
func (c *Console) Printf(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format+"\n", args...)
}

// Mutedf prints a de-emphasized line.
func (c *Console) Mutedf(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.muted.Fprintf(c.out, format+"\n", args...)
}

// PrintMessage renders one transcript message with its sources.
func (c *Console) PrintMessage(m entities.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if m.Role == entities.RoleUser {
		fmt.Fprintf(c.out, "you: %s\n", m.Content)
		return
	}

	c.assistant.Fprintf(c.out, "netbot: %s\n", m.Content)
	if len(m.Sources) == 0 {
		return
	}
	c.muted.Fprintln(c.out, "  sources:")
	for i, s := range m.Sources {
		c.source.Fprintf(c.out, "  [%d] %s", i+1, s.Title)
		if s.SourceType == entities.SourceURL && s.SourcePath != "" {
			c.muted.Fprintf(c.out, " <%s>", s.SourcePath)
		}
		fmt.Fprintln(c.out)
		if s.Text != "" {
			c.muted.Fprintf(c.out, "      %s\n", oneLine(s.Text))
		}
	}
}

// PrintDocuments renders the knowledge base as a numbered list.
func (c *Console) PrintDocuments(docs []entities.Document, loading bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.heading.Fprintf(c.out, "Knowledge base (%d)\n", len(docs))
	if loading {
		c.muted.Fprintln(c.out, "  adding a document...")
	}
	if len(docs) == 0 {
		c.muted.Fprintln(c.out, "  empty - add a file with /upload or a page with /url")
		return
	}
	for i, d := range docs {
		fmt.Fprintf(c.out, "  %2d. %s", i+1, d.DisplayTitle())
		c.muted.Fprintf(c.out, "  [%s] id=%s\n", d.SourceType, d.ID)
	}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
