package pipeline

import (
	"context"
	"fmt"
	"strings"

	"ai-tutor-be/internal/constant"
	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/pkg/chat"
	"ai-tutor-be/pkg/llm"
	"ai-tutor-be/pkg/vectorstore"
)

// Orchestrator runs the fixed stage sequences of the three study workflows:
// conversational Q&A (append -> retrieve -> generate), notes and MCQs
// (retrieve-all -> generate). It owns no state; callers pass the working
// chat.State in and persist it afterwards.
type Orchestrator struct {
	engine llm.LLMProvider
	index  vectorstore.Index
	log    logger.ILogger

	retrievalK    int
	historyWindow int
}

func New(engine llm.LLMProvider, index vectorstore.Index, log logger.ILogger, retrievalK, historyWindow int) *Orchestrator {
	if retrievalK <= 0 {
		retrievalK = 2
	}
	if historyWindow <= 0 {
		historyWindow = 20
	}
	return &Orchestrator{
		engine:        engine,
		index:         index,
		log:           log,
		retrievalK:    retrievalK,
		historyWindow: historyWindow,
	}
}

// retrieve fills state.Context for the current query. Retrieval problems
// degrade to an empty context and never fail the cycle.
func (o *Orchestrator) retrieve(ctx context.Context, scope vectorstore.Scope, state *chat.State) {
	if o.index == nil {
		o.log.Warn("Pipeline", "Vectorstore not initialized, answering without context", nil)
		state.Context = []string{}
		return
	}

	docs, err := o.index.Search(ctx, scope, state.Query, o.retrievalK)
	if err != nil {
		o.log.Warn("Pipeline", "Retrieval failed, answering without context", map[string]interface{}{
			"error": err.Error(),
		})
		state.Context = []string{}
		return
	}
	if docs == nil {
		docs = []string{}
	}
	state.Context = docs
}

// buildQAInput assembles the model input: the windowed transcript plus one
// synthetic human turn carrying the labeled context/question block. The
// synthetic turn is never stored in the transcript.
func (o *Orchestrator) buildQAInput(state *chat.State) []llm.Message {
	windowed := windowMessages(state.Messages, o.historyWindow)

	input := make([]llm.Message, 0, len(windowed)+1)
	for _, m := range windowed {
		input = append(input, toEngineMessage(m))
	}

	prompt := fmt.Sprintf(constant.QAPromptTemplate, strings.Join(state.Context, "\n\n"), state.Query)
	input = append(input, llm.Message{Role: "user", Content: prompt})
	return input
}

// Ask runs one whole-response Q&A cycle against state. On success the
// transcript gains a human and an assistant turn; on generation failure the
// human turn stays and the error propagates.
func (o *Orchestrator) Ask(ctx context.Context, scope vectorstore.Scope, state *chat.State, question string) (string, error) {
	state.Query = question
	state.Append(chat.RoleHuman, question)

	o.retrieve(ctx, scope, state)

	response, err := o.engine.Chat(ctx, o.buildQAInput(state))
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}

	state.Append(chat.RoleAssistant, response)
	state.Response = response
	return response, nil
}

// AskStream is Ask with incremental delivery: onDelta receives each text
// fragment in arrival order, synchronously, before the next one is read. The
// assistant turn is appended only after the stream completes, so an
// abandoned stream leaves no partial assistant content in state.
func (o *Orchestrator) AskStream(ctx context.Context, scope vectorstore.Scope, state *chat.State, question string, onDelta func(string) error) (string, error) {
	state.Query = question
	state.Append(chat.RoleHuman, question)

	o.retrieve(ctx, scope, state)

	response, err := o.engine.ChatStream(ctx, o.buildQAInput(state), onDelta)
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}

	state.Append(chat.RoleAssistant, response)
	state.Response = response
	return response, nil
}

// Notes generates study notes over the whole corpus. No transcript is
// involved; each invocation is independent.
func (o *Orchestrator) Notes(ctx context.Context, chunks []string) (string, error) {
	if len(chunks) == 0 {
		return "", ErrEmptyCorpus
	}
	prompt := fmt.Sprintf(constant.NotesPromptTemplate, strings.Join(chunks, "\n\n"))
	response, err := o.engine.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate notes: %w", err)
	}
	return response, nil
}

// MCQs generates a 10-question multiple-choice quiz over the whole corpus.
// The output structure is advisory; callers may run ValidateMCQ on it but
// the text is returned verbatim either way.
func (o *Orchestrator) MCQs(ctx context.Context, chunks []string) (string, error) {
	if len(chunks) == 0 {
		return "", ErrEmptyCorpus
	}
	prompt := fmt.Sprintf(constant.MCQPromptTemplate, strings.Join(chunks, "\n\n"))
	response, err := o.engine.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate mcqs: %w", err)
	}
	return response, nil
}

// windowMessages bounds the transcript resent to the engine: the leading
// system turn is always kept, plus the most recent window turns. Older turns
// stay in the durable transcript, they are just not resent.
func windowMessages(messages []chat.Message, window int) []chat.Message {
	if len(messages) == 0 {
		return messages
	}

	head := 0
	if messages[0].Role == chat.RoleSystem {
		head = 1
	}
	tail := messages[head:]
	if len(tail) <= window {
		return messages
	}

	out := make([]chat.Message, 0, head+window)
	out = append(out, messages[:head]...)
	out = append(out, tail[len(tail)-window:]...)
	return out
}

func toEngineMessage(m chat.Message) llm.Message {
	role := "user"
	switch m.Role {
	case chat.RoleSystem:
		role = "system"
	case chat.RoleAssistant:
		role = "assistant"
	}
	return llm.Message{Role: role, Content: m.Content}
}
