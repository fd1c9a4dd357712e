package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/triage/pkg/domain"
)

// JSONHandler implements IOHandler over JSON Lines.
//
// Every posted message is written as one JSON object. Replies are read one
// per line, either as an object:
//
//	{"choice_ids": ["nausea", "sweating"]}
//	{"choice_id": "today"}
//	{"text": "after climbing stairs"}
//
// or as a JSON string / bare text, parsed like a terminal reply.
type JSONHandler struct {
	Reader  *bufio.Reader
	Encoder *json.Encoder

	mu sync.Mutex
}

type jsonReply struct {
	QuestionID domain.QuestionID `json:"question_id"`
	ChoiceID   string            `json:"choice_id"`
	ChoiceIDs  []string          `json:"choice_ids"`
	Text       *string           `json:"text"`
}

// systemLine is the shape of SystemOutput lines.
type systemLine struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Encoder: json.NewEncoder(w),
	}
}

func (h *JSONHandler) Output(ctx context.Context, msgs []domain.Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, msg := range msgs {
		if err := h.Encoder.Encode(msg); err != nil {
			return err
		}
	}
	return nil
}

func (h *JSONHandler) Read(ctx context.Context, prompt domain.Message) (domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	line, err := h.Reader.ReadString('\n')
	if err != nil && (err != io.EOF || strings.TrimSpace(line) == "") {
		return nil, err
	}
	line = strings.TrimSpace(line)

	clean, err := SanitizeInput(line)
	if err != nil {
		return nil, &ReplyError{Reason: err.Error()}
	}

	if strings.HasPrefix(clean, "{") {
		var reply jsonReply
		if err := json.Unmarshal([]byte(clean), &reply); err != nil {
			return nil, invalid("malformed reply: %v", err)
		}
		return reply.event(prompt)
	}

	var str string
	if err := json.Unmarshal([]byte(clean), &str); err == nil {
		clean = str
	}
	if isQuit(clean) {
		return nil, io.EOF
	}
	return ParseReply(prompt, clean)
}

func (r jsonReply) event(prompt domain.Message) (domain.Event, error) {
	qid := r.QuestionID
	if qid == "" {
		qid = prompt.QuestionID
	}
	if r.Text != nil {
		if strings.TrimSpace(*r.Text) == "" {
			return nil, invalid("Please describe your answer in a few words.")
		}
		return domain.FreeTextSubmitted{QuestionID: qid, Text: *r.Text}, nil
	}
	ids := r.ChoiceIDs
	if r.ChoiceID != "" {
		ids = append([]string{r.ChoiceID}, ids...)
	}
	ids, err := SanitizeChoiceIDs(ids)
	if err != nil {
		return nil, &ReplyError{Reason: err.Error()}
	}
	if len(ids) == 0 {
		return nil, invalid("Please choose one of the options.")
	}
	return domain.ChoiceSelected{QuestionID: qid, ChoiceIDs: ids}, nil
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Encoder.Encode(systemLine{Kind: "system", Text: msg})
}
