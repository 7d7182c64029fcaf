package usecase

import (
	"bytes"
	"fmt"
	"text/template"

	"youtube-ai-summary/internal/config"
)

// SummarySource tells the final call what it is reducing.
type SummarySource string

const (
	SourceTranscript SummarySource = "transcript"
	SourceSummaries  SummarySource = "summaries"
)

const (
	defaultSystemPrompt = "You summarize YouTube video transcripts. Answer in the language of the transcript. " +
		"Be faithful to the content and do not invent facts."

	defaultPartialPrompt = "The following is one section of a longer video transcript. " +
		"Summarize the key points of this section as concise bullet points.\n\n{{.Chunk}}"

	defaultFinalTranscriptPrompt = "Summarize the following video transcript. Start with a one-sentence overview, " +
		"then list the main points as bullet points.\n\n{{.Text}}"

	defaultFinalSummariesPrompt = "The following are summaries of consecutive sections of one video, in order. " +
		"Merge them into one coherent summary: a one-sentence overview followed by the main points as bullet points. " +
		"Remove repetition.\n\n{{.Summaries}}"
)

// PromptManager renders the user prompts for each kind of summary call.
type PromptManager struct {
	system          string
	partial         *template.Template
	finalTranscript *template.Template
	finalSummaries  *template.Template
}

func NewPromptManager(cfg config.SummaryConfig) (*PromptManager, error) {
	pick := func(v, def string) string {
		if v == "" {
			return def
		}
		return v
	}
	pm := &PromptManager{system: pick(cfg.SystemPrompt, defaultSystemPrompt)}

	var err error
	if pm.partial, err = template.New("partial").Parse(pick(cfg.PartialPrompt, defaultPartialPrompt)); err != nil {
		return nil, fmt.Errorf("parse partial prompt: %w", err)
	}
	if pm.finalTranscript, err = template.New("final_transcript").Parse(pick(cfg.FinalTranscriptPrompt, defaultFinalTranscriptPrompt)); err != nil {
		return nil, fmt.Errorf("parse final transcript prompt: %w", err)
	}
	if pm.finalSummaries, err = template.New("final_summaries").Parse(pick(cfg.FinalSummariesPrompt, defaultFinalSummariesPrompt)); err != nil {
		return nil, fmt.Errorf("parse final summaries prompt: %w", err)
	}
	return pm, nil
}

func (p *PromptManager) System() string { return p.system }

func (p *PromptManager) Partial(chunk string) (string, error) {
	return render(p.partial, map[string]string{"Chunk": chunk})
}

func (p *PromptManager) Final(content string, source SummarySource) (string, error) {
	if source == SourceSummaries {
		return render(p.finalSummaries, map[string]string{"Summaries": content})
	}
	return render(p.finalTranscript, map[string]string{"Text": content})
}

func render(t *template.Template, data map[string]string) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", t.Name(), err)
	}
	return buf.String(), nil
}
