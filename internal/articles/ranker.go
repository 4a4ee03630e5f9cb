package articles

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/Backland-Labs/waitlist/internal/logger"
)

// Ranker picks the candidates most relevant to a free-text care situation.
// It returns article ids, best first.
type Ranker interface {
	Rank(ctx context.Context, situation string, candidates []Article) ([]string, error)
}

const (
	rankerListPrompt = "The following is a list of article titles, each with an ID preceding it."
	rankerAskPrompt  = "Return the IDs of the two articles with the titles that seem most relevant for a person described in the care situation below. " +
		"Separate the IDs with a comma. Do not include any text besides the IDs. " +
		"For example you might return 'bqLJyxhu,PCEiUdUj'. The care situation is: "
)

// OpenAIRanker ranks articles with a chat completion
type OpenAIRanker struct {
	client openai.Client
	model  string
}

// NewOpenAIRanker creates a ranker calling the chat completions endpoint
// under baseURL. apiKey may be empty when the endpoint is a proxy that holds
// its own credentials.
func NewOpenAIRanker(baseURL, apiKey, model string, opts ...option.RequestOption) (*OpenAIRanker, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("ranker base URL is required")
	}
	if model == "" {
		return nil, fmt.Errorf("ranker model is required")
	}

	clientOpts := []option.RequestOption{option.WithBaseURL(baseURL)}
	if apiKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(apiKey))
	}
	clientOpts = append(clientOpts, opts...)

	return &OpenAIRanker{
		client: openai.NewClient(clientOpts...),
		model:  model,
	}, nil
}

// Rank implements Ranker
func (r *OpenAIRanker) Rank(ctx context.Context, situation string, candidates []Article) ([]string, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no candidate articles")
	}

	timer := logger.Timed("rank articles")

	completion, err := r.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(r.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(rankerListPrompt),
			openai.SystemMessage(titleList(candidates)),
			openai.UserMessage(rankerAskPrompt + situation),
		},
	})
	if err != nil {
		timer.DoneWithError(err)
		return nil, fmt.Errorf("failed to rank articles: %w", err)
	}
	if len(completion.Choices) == 0 {
		err := fmt.Errorf("failed to rank articles: completion has no choices")
		timer.DoneWithError(err)
		return nil, err
	}

	ids := ParseIDs(completion.Choices[0].Message.Content)
	timer.Done()
	logger.WithField("ids", strings.Join(ids, ",")).Debug("Recommended articles")
	return ids, nil
}

// titleList renders one "id: title" line per candidate
func titleList(candidates []Article) string {
	lines := make([]string, len(candidates))
	for i, a := range candidates {
		lines[i] = a.ID + ": " + a.Title
	}
	return strings.Join(lines, "\n")
}

// ParseIDs splits a comma separated reply into ids, dropping blanks and the
// quotes a model sometimes echoes from the example
func ParseIDs(reply string) []string {
	var ids []string
	for _, part := range strings.Split(reply, ",") {
		id := strings.Trim(strings.TrimSpace(part), `'"`+"`")
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
