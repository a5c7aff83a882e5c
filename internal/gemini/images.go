// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gemini wraps the Google GenAI SDK for the fan-out orchestrator.
package gemini

import (
	"context"
	"strings"

	"google.golang.org/genai"

	"github.com/jeranaias/fanout-tui/internal/model"
)

// =============================================================================
// IMAGE GENERATION
// =============================================================================

// ImageRequest configures one image generation call.
type ImageRequest struct {
	Prompt string
	// Count is the number of images to generate (1-4). Defaults to 1.
	Count int
	// OutputMIMEType selects the image format (default image/png).
	OutputMIMEType string
}

// GeneratedImage is one produced image.
type GeneratedImage struct {
	MIMEType string
	Data     []byte
}

// GenerateImages produces images for a prompt via the one-shot image model.
func (c *Client) GenerateImages(ctx context.Context, req ImageRequest) ([]GeneratedImage, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, ErrEmptyPrompt
	}
	count := req.Count
	if count < 1 {
		count = 1
	}
	if count > 4 {
		count = 4
	}
	mimeType := req.OutputMIMEType
	if mimeType == "" {
		mimeType = "image/png"
	}

	resp, err := c.genai.Models.GenerateImages(ctx, c.config.ImageModel, req.Prompt, &genai.GenerateImagesConfig{
		NumberOfImages: int32(count),
		OutputMIMEType: mimeType,
	})
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "image generation failed", Cause: err}
	}
	if len(resp.GeneratedImages) == 0 {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "no images returned"}
	}

	out := make([]GeneratedImage, 0, len(resp.GeneratedImages))
	for _, gi := range resp.GeneratedImages {
		if gi.Image == nil || len(gi.Image.ImageBytes) == 0 {
			continue
		}
		out = append(out, GeneratedImage{
			MIMEType: gi.Image.MIMEType,
			Data:     gi.Image.ImageBytes,
		})
	}
	return out, nil
}

// =============================================================================
// ONE-SHOT TEXT GENERATION
// =============================================================================

// describeInstruction asks the chat model for a prompt-ready description of
// a reference image before image generation.
const describeInstruction = "Describe this image in one detailed paragraph " +
	"suitable as an image generation prompt. Describe subject, composition, " +
	"style, and lighting. Respond with the description only."

// GenerateText performs a one-shot, non-conversational text generation.
func (c *Client) GenerateText(ctx context.Context, modelID string, parts []model.Part) (string, error) {
	if modelID == "" {
		modelID = c.config.ChatModel
	}
	converted := convertParts(parts)
	contents := []*genai.Content{{Role: genai.RoleUser, Parts: make([]*genai.Part, 0, len(converted))}}
	for i := range converted {
		contents[0].Parts = append(contents[0].Parts, &converted[i])
	}

	resp, err := c.genai.Models.GenerateContent(ctx, modelID, contents, nil)
	if err != nil {
		return "", &ClientError{Type: ErrTypeConnection, Message: "generation failed", Cause: err}
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", &ClientError{Type: ErrTypeInvalidResponse, Message: "no candidates returned"}
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

// DescribeImage auto-describes a reference image, returning text usable as
// an image-generation prompt.
func (c *Client) DescribeImage(ctx context.Context, mimeType string, data []byte) (string, error) {
	return c.GenerateText(ctx, c.config.ChatModel, []model.Part{
		model.BlobPart(mimeType, data),
		model.TextPart(describeInstruction),
	})
}
