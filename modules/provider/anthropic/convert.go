package anthropic

import (
	sdkanthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/witxhhaven/fig-design-assistant/internal/convo"
	"github.com/witxhhaven/fig-design-assistant/internal/provider"
)

// convertRequest transforms an assistant request into Anthropic SDK
// parameters. The instruction block and the serialized document context
// become separate entries of the System parameter.
func convertRequest(req provider.Request, cfg *Config) sdkanthropic.MessageNewParams {
	model := cfg.Model
	if req.Model != "" {
		model = req.Model
	}

	maxTokens := int64(cfg.MaxTokens)
	if req.MaxTokens > 0 {
		maxTokens = int64(req.MaxTokens)
	}

	system := []sdkanthropic.TextBlockParam{{Text: req.System}}
	if req.Context != "" {
		system = append(system, sdkanthropic.TextBlockParam{
			Text: "Current document context:\n" + req.Context,
		})
	}

	return sdkanthropic.MessageNewParams{
		Model:     sdkanthropic.Model(model),
		System:    system,
		Messages:  convertTurns(req.History),
		MaxTokens: maxTokens,
	}
}

// convertTurns transforms conversation turns into SDK message params.
// Unknown block types are dropped.
func convertTurns(turns []convo.Turn) []sdkanthropic.MessageParam {
	result := make([]sdkanthropic.MessageParam, 0, len(turns))
	for _, turn := range turns {
		blocks := convertBlocks(turn.Blocks)
		if len(blocks) == 0 {
			continue
		}

		role := sdkanthropic.MessageParamRoleUser
		if turn.Role == convo.RoleAssistant {
			role = sdkanthropic.MessageParamRoleAssistant
		}
		result = append(result, sdkanthropic.MessageParam{Role: role, Content: blocks})
	}
	return result
}

func convertBlocks(blocks []convo.ContentBlock) []sdkanthropic.ContentBlockParamUnion {
	var result []sdkanthropic.ContentBlockParamUnion
	for _, b := range blocks {
		switch b.Type {
		case convo.BlockText:
			if b.Text != "" {
				result = append(result, sdkanthropic.NewTextBlock(b.Text))
			}
		case convo.BlockImage:
			if b.Data != "" {
				result = append(result, sdkanthropic.NewImageBlockBase64(b.MIMEType, b.Data))
			}
		}
	}
	return result
}
