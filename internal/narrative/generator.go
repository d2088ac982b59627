// Rift Rewind - Quarterly League Journey Pipeline
// Copyright 2026 Rewind Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rewindlab/riftrewind

// Package narrative generates the lore and reflection text of the
// journey package. Generation is best-effort: any model failure falls
// back to deterministic text and marks the output degraded, so the
// pipeline never blocks on the model.
package narrative

import (
	"context"
	"fmt"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/rewindlab/riftrewind/internal/config"
	"github.com/rewindlab/riftrewind/internal/logging"
	"github.com/rewindlab/riftrewind/internal/metrics"
)

// maxReflections caps the finale takeaway list.
const maxReflections = 4

// TextClient is the model seam. Implemented by SDKClient in production
// and by fakes in tests.
type TextClient interface {
	Generate(ctx context.Context, prompt string, maxTokens int64, temperature float64) (string, error)
}

// SDKClient implements TextClient against the Anthropic Messages API.
type SDKClient struct {
	client sdk.Client
	model  string
}

// NewSDKClient builds the production model client.
func NewSDKClient(cfg *config.NarrativeConfig) *SDKClient {
	return &SDKClient{
		client: sdk.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:  cfg.Model,
	}
}

// Generate sends one single-turn prompt and concatenates the text
// blocks of the response.
func (c *SDKClient) Generate(ctx context.Context, prompt string, maxTokens int64, temperature float64) (string, error) {
	msg, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:       sdk.Model(c.model),
		MaxTokens:   maxTokens,
		Temperature: sdk.Float(temperature),
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("create message: %w", err)
	}

	var out strings.Builder
	for _, block := range msg.Content {
		out.WriteString(block.Text)
	}
	text := strings.TrimSpace(out.String())
	if text == "" {
		return "", fmt.Errorf("empty model response")
	}
	return text, nil
}

// QuarterNarrative is the text of one quarter chapter.
type QuarterNarrative struct {
	Lore       string
	Reflection string
	Degraded   bool
}

// FinaleNarrative is the text of the season finale.
type FinaleNarrative struct {
	Lore        string
	Reflections []string
	Degraded    bool
}

// Generator produces narrative text with per-call timeouts and
// deterministic fallbacks. A nil client (narrative disabled) always
// yields the fallback text without a degraded flag.
type Generator struct {
	client  TextClient
	timeout time.Duration
}

// New builds a generator from configuration.
func New(cfg *config.NarrativeConfig) *Generator {
	g := &Generator{timeout: cfg.Timeout}
	if cfg.Enabled {
		g.client = NewSDKClient(cfg)
	}
	return g
}

// NewWithClient builds a generator around an explicit client, for
// tests.
func NewWithClient(client TextClient, timeout time.Duration) *Generator {
	return &Generator{client: client, timeout: timeout}
}

// Quarter generates the lore and reflection of one quarter.
func (g *Generator) Quarter(ctx context.Context, req *QuarterRequest) QuarterNarrative {
	out := QuarterNarrative{
		Lore:       fallbackQuarterLore(req.Quarter, req.Region),
		Reflection: fallbackQuarterReflection,
	}
	if g.client == nil {
		return out
	}

	lore, err := g.generate(ctx, buildQuarterLorePrompt(req), 200, 0.7)
	if err != nil {
		g.degrade(&out.Degraded, req.Quarter, "lore", err)
	} else {
		out.Lore = lore
	}

	reflection, err := g.generate(ctx, buildQuarterReflectionPrompt(req), 100, 0.5)
	if err != nil {
		g.degrade(&out.Degraded, req.Quarter, "reflection", err)
	} else {
		out.Reflection = reflection
	}

	if !out.Degraded {
		metrics.NarrativeRequests.WithLabelValues("ok").Inc()
	}
	return out
}

// Finale generates the closing lore and season takeaways.
func (g *Generator) Finale(ctx context.Context, req *FinaleRequest) FinaleNarrative {
	out := FinaleNarrative{
		Lore:        fallbackFinaleLore(req.PlayerName, req.TotalGames),
		Reflections: fallbackFinaleReflections(),
	}
	if g.client == nil {
		return out
	}

	lore, err := g.generate(ctx, buildFinaleLorePrompt(req), 300, 0.8)
	if err != nil {
		g.degrade(&out.Degraded, "finale", "lore", err)
	} else {
		out.Lore = lore
	}

	text, err := g.generate(ctx, buildFinaleReflectionPrompt(req), 250, 0.6)
	if err != nil {
		g.degrade(&out.Degraded, "finale", "reflection", err)
	} else {
		out.Reflections = splitReflections(text)
	}

	if !out.Degraded {
		metrics.NarrativeRequests.WithLabelValues("ok").Inc()
	}
	return out
}

func (g *Generator) generate(ctx context.Context, prompt string, maxTokens int64, temperature float64) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return g.client.Generate(ctx, prompt, maxTokens, temperature)
}

func (g *Generator) degrade(flag *bool, chapter, kind string, err error) {
	if !*flag {
		metrics.NarrativeRequests.WithLabelValues("fallback").Inc()
		metrics.NarrativeFallbacks.Inc()
	}
	*flag = true
	logging.Warn().
		Err(err).
		Str("chapter", chapter).
		Str("kind", kind).
		Msg("Narrative generation failed, using fallback text")
}

// splitReflections turns the model's line-per-takeaway response into a
// bounded list.
func splitReflections(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
		if len(out) == maxReflections {
			break
		}
	}
	if len(out) == 0 {
		return fallbackFinaleReflections()
	}
	return out
}

const fallbackQuarterReflection = "Continue improving your macro play and map awareness."

func fallbackQuarterLore(quarter, region string) string {
	return fmt.Sprintf("%s: Your journey through %s has shaped your path. The Rift remembers.", quarter, region)
}

func fallbackFinaleLore(playerName string, totalGames int) string {
	return fmt.Sprintf("Across four quarters and %d battles, %s has proven their worth on the Rift. The journey continues...", totalGames, playerName)
}

func fallbackFinaleReflections() []string {
	return []string{
		"Consistent gameplay across all quarters shows strong fundamentals",
		"Focus on improving vision control in the mid-late game",
		"Target 3.0+ vision score per minute next season",
	}
}
