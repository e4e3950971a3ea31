// Package report generates narrative system reports by forwarding
// aggregated statistics through a templated prompt to the OpenAI
// chat-completions API and parsing the JSON reply.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Report is the parsed narrative report.
type Report struct {
	ID              string    `json:"id"`
	GeneratedAt     time.Time `json:"generated_at"`
	Model           string    `json:"model"`
	Summary         string    `json:"summary"`
	Highlights      []string  `json:"highlights"`
	Concerns        []string  `json:"concerns"`
	Recommendations []string  `json:"recommendations"`
}

// Completer abstracts the chat client so handler tests can substitute a
// fake. *Client satisfies it.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Generator orchestrates prompt building, the upstream call, and reply
// parsing.
type Generator struct {
	client Completer
	model  string
	logger *slog.Logger
}

// NewGenerator creates a report generator. client may be nil when report
// generation is disabled; Generate then returns ErrNotConfigured.
func NewGenerator(client Completer, model string, logger *slog.Logger) *Generator {
	return &Generator{client: client, model: model, logger: logger}
}

// Generate produces a narrative report from the statistics payload. No
// retry and no fallback path: upstream failures propagate classified.
// When no client is configured the error is ErrNotConfigured.
func (g *Generator) Generate(ctx context.Context, stats map[string]interface{}) (*Report, error) {
	prompt, err := BuildPrompt(stats)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	reply, err := g.client.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return nil, err
	}
	g.logger.Info("Report generated",
		"model", g.model, "duration", time.Since(start).Round(time.Millisecond))

	rep, err := parseReply(reply)
	if err != nil {
		return nil, err
	}

	rep.ID = uuid.NewString()
	rep.GeneratedAt = time.Now().UTC()
	rep.Model = g.model
	return rep, nil
}

// parseReply extracts the JSON report from the assistant reply. Models
// occasionally wrap JSON in a markdown code fence; strip it before parsing.
func parseReply(reply string) (*Report, error) {
	body := strings.TrimSpace(reply)
	if strings.HasPrefix(body, "```") {
		body = strings.TrimPrefix(body, "```json")
		body = strings.TrimPrefix(body, "```")
		if idx := strings.LastIndex(body, "```"); idx != -1 {
			body = body[:idx]
		}
		body = strings.TrimSpace(body)
	}

	var rep Report
	if err := json.Unmarshal([]byte(body), &rep); err != nil {
		return nil, fmt.Errorf("parse report reply: %w", err)
	}
	if rep.Summary == "" {
		return nil, fmt.Errorf("parse report reply: missing summary")
	}
	return &rep, nil
}
