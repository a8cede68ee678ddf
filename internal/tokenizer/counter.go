package tokenizer

import (
	"strings"

	"github.com/tooniez/openrouter-relay/internal/types"
)

// Message token overhead varies by model family.
// These values are based on OpenAI's documentation.
const (
	// Per-message overhead tokens
	messageOverheadGPT4  = 3 // <|start|>role<|end|>
	messageOverheadGPT35 = 4 // Slightly different format

	// Reply priming tokens (assistant response start)
	replyPrimingTokens = 3

	// Name field overhead (if present)
	nameOverhead = 1

	// Image token constants (OpenAI rules)
	imageBaseTokens     = 85  // Base cost for any image
	imageTileTokens     = 170 // Cost per 512x512 tile
	imageLowDetailTiles = 1   // Low detail uses 1 tile
	imageHighDetailMax  = 4   // High detail max tiles (simplified)
)

// CountMessages counts tokens for a slice of messages.
func (t *TiktokenTokenizer) CountMessages(messages []types.Message, model string) (int, error) {
	total := 0
	overhead := t.getMessageOverhead(model)

	for _, msg := range messages {
		tokens, err := t.countMessage(msg, model)
		if err != nil {
			return 0, err
		}
		total += tokens + overhead
	}

	// Add reply priming tokens
	total += replyPrimingTokens

	return total, nil
}

// CountRequest counts total prompt tokens for a full request. Fields the
// relay does not type (tools and the like) ride through untyped and are
// not estimated; upstream usage figures supersede this estimate anyway.
func (t *TiktokenTokenizer) CountRequest(req *types.ChatCompletionRequest) (int, error) {
	return t.CountMessages(req.Messages, req.Model)
}

// countMessage counts tokens for a single message.
func (t *TiktokenTokenizer) countMessage(msg types.Message, model string) (int, error) {
	total := 0

	// Count role tokens
	roleTokens, err := t.CountTokens(msg.Role, model)
	if err != nil {
		return 0, err
	}
	total += roleTokens

	// Count content tokens
	contentTokens, err := t.countContent(msg.Content, model)
	if err != nil {
		return 0, err
	}
	total += contentTokens

	// Count name tokens if present
	if msg.Name != "" {
		nameTokens, err := t.CountTokens(msg.Name, model)
		if err != nil {
			return 0, err
		}
		total += nameTokens + nameOverhead
	}

	return total, nil
}

// countContent counts tokens for message content (text or multimodal).
func (t *TiktokenTokenizer) countContent(content types.Content, model string) (int, error) {
	// Simple text content
	if content.Text != "" {
		return t.CountTokens(content.Text, model)
	}

	// Multimodal content
	total := 0
	for _, part := range content.Parts {
		switch part.Type {
		case types.ContentTypeText:
			tokens, err := t.CountTokens(part.Text, model)
			if err != nil {
				return 0, err
			}
			total += tokens

		case types.ContentTypeImageURL:
			total += t.countImageTokens(part.ImageURL)
		}
	}

	return total, nil
}

// countImageTokens calculates token cost for an image based on OpenAI's rules.
func (t *TiktokenTokenizer) countImageTokens(img *types.ImageURL) int {
	if img == nil {
		return 0
	}

	detail := strings.ToLower(img.Detail)
	switch detail {
	case "low":
		// Low detail: fixed cost
		return imageBaseTokens + (imageLowDetailTiles * imageTileTokens)
	case "high":
		// High detail: base + tiles (simplified without actual image dimensions)
		// In practice, you'd need image dimensions to calculate exactly.
		// Using a reasonable estimate of 4 tiles for high detail.
		return imageBaseTokens + (imageHighDetailMax * imageTileTokens)
	default:
		// "auto" or unspecified: assume high detail
		return imageBaseTokens + (imageHighDetailMax * imageTileTokens)
	}
}

// getMessageOverhead returns the per-message token overhead for a model.
func (t *TiktokenTokenizer) getMessageOverhead(model string) int {
	modelLower := strings.ToLower(model)
	if strings.HasPrefix(modelLower, "gpt-3.5") {
		return messageOverheadGPT35
	}
	return messageOverheadGPT4
}
