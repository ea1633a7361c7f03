package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/sylvieyl/heartlog/backend/internal/config"
	"github.com/sylvieyl/heartlog/backend/internal/model/chat"
)

// Request is the completion-style request the gateway sends upstream.
type Request struct {
	System  string
	History []chat.Message
	Query   string
}

// RemoteClient abstracts the hosted completion service. Implementations
// must translate every failure into a *RemoteError so the gateway can
// classify it without inspecting message text.
type RemoteClient interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Streamer is the optional streaming surface of a remote client.
type Streamer interface {
	Stream(ctx context.Context, req Request) (*schema.StreamReader[*schema.Message], error)
}

// historyLimit caps how many prior turns accompany a remote request.
const historyLimit = 10

type arkClient struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewArkClient compiles the prompt → chat-model chain against the
// configured Ark endpoint.
func NewArkClient(ctx context.Context, cfg config.AIConfig) (*arkClient, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &arkClient{chain: runnable}, nil
}

func (c *arkClient) Complete(ctx context.Context, req Request) (string, error) {
	response, err := c.chain.Invoke(ctx, chainInput(req))
	if err != nil {
		return "", classifyRemoteError(err)
	}
	if response == nil || strings.TrimSpace(response.Content) == "" {
		return "", &RemoteError{Kind: FailureGeneric, Err: fmt.Errorf("empty completion payload")}
	}
	return response.Content, nil
}

func (c *arkClient) Stream(ctx context.Context, req Request) (*schema.StreamReader[*schema.Message], error) {
	stream, err := c.chain.Stream(ctx, chainInput(req))
	if err != nil {
		return nil, classifyRemoteError(err)
	}
	return stream, nil
}

func chainInput(req Request) map[string]any {
	return map[string]any{
		"system":  req.System,
		"history": historyMessages(req.History),
		"query":   req.Query,
	}
}

func historyMessages(messages []chat.Message) []*schema.Message {
	if len(messages) == 0 {
		return nil
	}

	startIdx := 0
	if len(messages) > historyLimit {
		startIdx = len(messages) - historyLimit
	}

	history := make([]*schema.Message, 0, len(messages)-startIdx)
	for _, msg := range messages[startIdx:] {
		switch msg.Sender {
		case chat.SenderUser:
			history = append(history, schema.UserMessage(msg.Content))
		case chat.SenderCompanion:
			history = append(history, schema.AssistantMessage(msg.Content, nil))
		}
	}
	return history
}

// classifyRemoteError translates provider failures into the typed taxonomy
// at the client boundary. Ark reports allowance exhaustion through its API
// error code; everything else is generic.
func classifyRemoteError(err error) *RemoteError {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "quota") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "ratelimit") ||
		strings.Contains(msg, "insufficient balance") ||
		strings.Contains(msg, "429") {
		return &RemoteError{Kind: FailureQuotaExceeded, Err: err}
	}
	return &RemoteError{Kind: FailureGeneric, Err: err}
}
