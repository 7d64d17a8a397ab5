// Package vlm wraps the remote vision-language chat-completion endpoint used
// for OCR at EP stage 4 (spec.md §4.2).
package vlm

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/SkyAerope/Brainpile/pkg/config"
	"github.com/SkyAerope/Brainpile/pkg/core"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ocrInstruction is the fixed prompt sent with every frame: return only the
// text visible in the image, nothing else.
const ocrInstruction = "请识别图片中的所有文字内容，只返回识别到的文字，不要添加任何解释或描述。如果图片中没有文字，请返回：空"

// noTextSentinel is the VLM's own "nothing to transcribe" answer.
const noTextSentinel = "空"

// Client talks to an OpenAI-compatible chat-completions endpoint configured
// with a vision-capable model.
type Client struct {
	raw   openai.Client
	model string
}

// NewClient builds a Client targeting the configured VLM endpoint.
func NewClient(cfg config.VLMConfig) *Client {
	raw := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.APIBase),
	)
	return &Client{raw: raw, model: cfg.Model}
}

// Recognize sends a JPEG frame to the VLM and returns the trimmed recognized
// text, or "" if the VLM reports no text (EP stage 4: "Trim; treat an empty
// response or the sentinel '空' as no text").
func (c *Client) Recognize(ctx context.Context, jpegData []byte) (string, error) {
	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpegData)

	message := openai.ChatCompletionMessageParamUnion{
		OfUser: &openai.ChatCompletionUserMessageParam{
			Content: openai.ChatCompletionUserMessageParamContentUnion{
				OfArrayOfContentParts: []openai.ChatCompletionContentPartUnionParam{
					{OfText: &openai.ChatCompletionContentPartTextParam{Text: ocrInstruction}},
					{OfImageURL: &openai.ChatCompletionContentPartImageParam{
						ImageURL: openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL},
					}},
				},
			},
		},
	}

	completion, err := c.raw.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{message},
	})
	if err != nil {
		return "", &core.TransportError{Op: "vlm.Recognize", Err: err}
	}
	if len(completion.Choices) == 0 {
		return "", &core.TransportError{Op: "vlm.Recognize", Err: fmt.Errorf("no choices returned")}
	}

	text := strings.TrimSpace(completion.Choices[0].Message.Content)
	if text == "" || text == noTextSentinel {
		return "", nil
	}
	return text, nil
}
