package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/triage/pkg/domain"
)

// TextHandler implements the standard text-based interface.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer

	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader: bufio.NewReader(r),
		Writer: w,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

// pump reads lines in the background so Read can honour ctx.
func (h *TextHandler) pump() {
	for {
		text, err := h.Reader.ReadString('\n')
		if text != "" {
			h.inputChan <- inputResult{text: text}
		}
		if err != nil {
			if err == io.EOF {
				close(h.inputChan)
				return
			}
			h.inputChan <- inputResult{err: err}
			// Backoff for non-fatal errors to prevent CPU spikes on persistent failure
			time.Sleep(50 * time.Millisecond)
		}
	}
}

// Format renders a message as markdown.
func Format(msg domain.Message) string {
	var b strings.Builder
	switch msg.Kind {
	case domain.KindChoicePrompt:
		if msg.Title != "" {
			fmt.Fprintf(&b, "**%s**\n\n", msg.Title)
		}
		b.WriteString(msg.Text)
		b.WriteString("\n\n")
		for i, c := range msg.Choices {
			fmt.Fprintf(&b, "%d. %s\n", i+1, c.Label)
		}
		if msg.Multi {
			b.WriteString("\n_Select all that apply, separated by commas (e.g. 1,3)._\n")
		}
	case domain.KindFreeTextPrompt:
		b.WriteString(msg.Text)
		if msg.Placeholder != "" {
			fmt.Fprintf(&b, "\n\n_%s_", msg.Placeholder)
		}
	default:
		b.WriteString(msg.Text)
	}
	return b.String()
}

func (h *TextHandler) Output(ctx context.Context, msgs []domain.Message) error {
	for _, msg := range msgs {
		output := Format(msg)
		if h.Renderer != nil {
			if rendered, err := h.Renderer(output); err == nil {
				output = rendered
			}
		}
		if _, err := fmt.Fprintln(h.Writer, strings.TrimSpace(output)); err != nil {
			return err
		}
		if msg.IsPrompt() {
			fmt.Fprintln(h.Writer)
		}
	}
	return nil
}

func (h *TextHandler) Read(ctx context.Context, prompt domain.Message) (domain.Event, error) {
	h.initPump()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
		fmt.Fprint(h.Writer, "> ")
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res, ok := <-h.inputChan:
		if !ok {
			return nil, io.EOF
		}
		if res.err != nil {
			return nil, res.err
		}
		clean, err := SanitizeInput(strings.TrimSpace(res.text))
		if err != nil {
			return nil, &ReplyError{Reason: err.Error()}
		}
		if isQuit(clean) {
			return nil, io.EOF
		}
		return ParseReply(prompt, clean)
	}
}

func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	_, err := fmt.Fprintf(h.Writer, "[!] %s\n", msg)
	return err
}
