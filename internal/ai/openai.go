package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	altai "github.com/sashabaranov/go-openai"

	"bkmview/internal/util"
)

// MaxSampleRows bounds how many rows of a cluster are sent for explanation.
const MaxSampleRows = 20

type OpenAIClient struct {
	apiKey  string
	baseURL string
	model   string
	timeout time.Duration
}

func NewOpenAIClient(apiKey, baseURL, model string, timeout time.Duration) *OpenAIClient {
	return &OpenAIClient{apiKey: apiKey, baseURL: baseURL, model: model, timeout: timeout}
}

// Explanation describes what the rows of one cluster have in common.
type Explanation struct {
	Label   string   `json:"label"`
	Summary string   `json:"summary"`
	Signals []string `json:"signals"`
}

// Lines renders the explanation for a text popup.
func (e Explanation) Lines() []string {
	out := []string{"label: " + e.Label, "", e.Summary}
	if len(e.Signals) > 0 {
		out = append(out, "", "signals:")
		for _, s := range e.Signals {
			out = append(out, "  - "+s)
		}
	}
	return out
}

func (c *OpenAIClient) ExplainCluster(ctx context.Context, clusterID int, headers []string, rows [][]string) (Explanation, error) {
	if c == nil || c.apiKey == "" {
		return Explanation{}, errors.New("openai disabled")
	}
	if len(rows) == 0 {
		return Explanation{}, errors.New("cluster has no rows to explain")
	}
	prompt := buildClusterPrompt(clusterID, headers, rows)
	ctx2, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	resp, err := c.callAlt(ctx2, prompt)
	if err != nil {
		return Explanation{}, err
	}
	var out Explanation
	if err := json.Unmarshal([]byte(resp), &out); err != nil {
		return Explanation{}, fmt.Errorf("decode explanation: %w", err)
	}
	return out, nil
}

func (c *OpenAIClient) callAlt(ctx context.Context, prompt string) (string, error) {
	cfg := altai.DefaultConfig(c.apiKey)
	if c.baseURL != "" {
		cfg.BaseURL = c.baseURL
	}
	cli := altai.NewClientWithConfig(cfg)
	resp, err := cli.CreateChatCompletion(ctx, altai.ChatCompletionRequest{
		Model: c.model,
		Messages: []altai.ChatCompletionMessage{
			{Role: altai.ChatMessageRoleSystem, Content: "You label clusters of web server log rows and return ONLY strict JSON following the specified contract. No prose, no code fences."},
			{Role: altai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature:    0.2,
		ResponseFormat: &altai.ChatCompletionResponseFormat{Type: altai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func buildClusterPrompt(clusterID int, headers []string, rows [][]string) string {
	max := MaxSampleRows
	if len(rows) < max {
		max = len(rows)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "The rows below belong to cluster %d of an unsupervised clustering of access logs. ", clusterID)
	b.WriteString("Return ONLY strict JSON matching this contract: {label, summary, signals:[string]}. ")
	b.WriteString("label is a short name, summary two sentences, signals the field values that characterize the cluster.\n")
	b.WriteString(strings.Join(headers, "\t"))
	b.WriteByte('\n')
	for i := 0; i < max; i++ {
		b.WriteString(util.RedactPII(strings.Join(rows[i], "\t")))
		b.WriteByte('\n')
	}
	return b.String()
}
