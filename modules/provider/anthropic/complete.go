package anthropic

import (
	"context"

	sdkanthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/witxhhaven/fig-design-assistant/internal/provider"
)

// Complete implements provider.Provider against the Anthropic Messages API.
func (a *Anthropic) Complete(ctx context.Context, req provider.Request) (string, error) {
	key, err := a.credential(ctx)
	if err != nil {
		return "", err
	}

	msg, err := a.client(key).Messages.New(ctx, convertRequest(req, &a.config))
	if err != nil {
		return "", mapError(err)
	}

	return responseText(msg), nil
}

// responseText concatenates all text blocks of a response.
func responseText(msg *sdkanthropic.Message) string {
	var text string
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(sdkanthropic.TextBlock); ok {
			if text != "" {
				text += "\n"
			}
			text += tb.Text
		}
	}
	return text
}
