package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/wolfman30/smilecare-dental/internal/chat"
	appconfig "github.com/wolfman30/smilecare-dental/internal/config"
	"github.com/wolfman30/smilecare-dental/pkg/logging"
)

var errChatDisabled = errors.New("bootstrap: no chat provider configured")

// offlineRelay answers every turn with an error so the widget shows the
// fallback message.
type offlineRelay struct{}

func (offlineRelay) GenerateReply(context.Context, []chat.Message, string) (string, error) {
	return "", errChatDisabled
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// BuildChatRelay wires Gemini as the primary provider and Bedrock as the
// fallback. bedrock may be nil; it is only used when BEDROCK_MODEL_ID is set.
// The returned closer releases the Gemini client.
func BuildChatRelay(ctx context.Context, cfg *appconfig.Config, bedrock chat.ConverseAPI, latency chat.LatencyRecorder, logger *logging.Logger) (chat.Relay, io.Closer, error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	persona, err := chat.LoadPersona(cfg.ChatPersonaPath)
	if err != nil {
		return nil, nil, err
	}

	var (
		primary, fallback chat.LLMClient
		closer            io.Closer = nopCloser{}
		providers         []string
	)
	if strings.TrimSpace(cfg.GeminiAPIKey) != "" {
		gemini, err := chat.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			return nil, nil, err
		}
		primary, closer = gemini, gemini
		providers = append(providers, chat.ProviderGemini)
	}
	if strings.TrimSpace(cfg.BedrockModelID) != "" && bedrock != nil {
		fallback = chat.NewBedrockClient(bedrock, cfg.BedrockModelID)
		providers = append(providers, chat.ProviderBedrock)
	}
	if primary == nil {
		primary, fallback = fallback, nil
	}
	if primary == nil {
		logger.Warn("no chat provider configured; chat replies will use the fallback message")
		return offlineRelay{}, closer, nil
	}

	client := chat.LLMClient(primary)
	if fallback != nil {
		client = chat.NewFallbackClient(primary, fallback, logger)
	}
	logger.Info("chat relay configured", "providers", strings.Join(providers, ","), "timeout", cfg.ChatTimeout.String())
	return chat.NewLLMRelay(client,
		chat.WithPersona(persona),
		chat.WithTimeout(cfg.ChatTimeout),
		chat.WithProvider(strings.Join(providers, "+")),
		chat.WithLatencyRecorder(latency),
		chat.WithRelayLogger(logger),
	), closer, nil
}
