// Package narrator streams short assistant narration ahead of tool
// results. The canned narrator classifies the message by keyword and
// plays a fixed chunk set; the OpenAI narrator streams real model
// output. Both honor the same chunk callback contract.
package narrator

import (
	"context"
	"strings"
	"time"
)

// CannedConfig is read from the environment with the NARRATOR prefix.
type CannedConfig struct {
	ChunkDelay time.Duration `envconfig:"CHUNK_DELAY" split_words:"true" default:"40ms"`
}

var cannedChunks = map[string][]string{
	"search": {
		"Let me ", "search the catalog ", "for that... ",
		"here is what I found.",
	},
	"details": {
		"Pulling up ", "the details ", "for you now.",
	},
	"cart": {
		"Let me ", "check your cart.",
	},
	"recommendations": {
		"Based on ", "what you have been looking at, ",
		"you might like these.",
	},
	"default": {
		"Working on ", "that for you now.",
	},
}

// WelcomeChunks is the greeting streamed once per session, before the
// first user message is handled.
var WelcomeChunks = []string{
	"Hi! ", "I can help you browse the catalog, ",
	"compare products ", "and manage your cart. ",
	"What are you looking for today?",
}

// Canned is the deterministic narrator used without an LLM backend.
type Canned struct {
	chunkDelay time.Duration
}

func NewCanned(cfg CannedConfig) *Canned {
	return &Canned{chunkDelay: cfg.ChunkDelay}
}

func (c *Canned) Narrate(ctx context.Context, message string, fn func(chunk string) error) error {
	chunks := cannedChunks[classify(message)]
	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(chunk); err != nil {
			return err
		}
		if c.chunkDelay > 0 {
			select {
			case <-time.After(c.chunkDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}

func classify(message string) string {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "search") || strings.Contains(lower, "find"):
		return "search"
	case strings.Contains(lower, "detail"):
		return "details"
	case strings.Contains(lower, "recommend"):
		return "recommendations"
	case strings.Contains(lower, "cart"):
		return "cart"
	default:
		return "default"
	}
}
