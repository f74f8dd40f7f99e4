package validation

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/retracehq/returns-service/pkg/config"
)

const analysisPrompt = `You are a product return fraud detection system.

Analyze the provided product image and the user's return description.

Determine whether the description accurately matches the visible product condition or damage.

Return response in JSON format only:

{
"match": true or false,
"confidence": number between 0 and 1,
"reason": "short explanation"
}

Confidence represents how strongly the image and description match.

If mismatch confidence exceeds 0.30, mark match as false.`

// VisionOracle calls an OpenAI-compatible vision endpoint to compare
// evidence images against return descriptions.
type VisionOracle struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// Ensure the concrete oracle satisfies the service's requirements.
var _ Oracle = (*VisionOracle)(nil)

// NewVisionOracle creates a vision oracle from configuration
func NewVisionOracle(cfg *config.VisionConfig) *VisionOracle {
	return &VisionOracle{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		client:  &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageRef `json:"image_url,omitempty"`
}

type imageRef struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Analyze sends the image and description to the matching service and
// parses its JSON verdict.
func (o *VisionOracle) Analyze(ctx context.Context, imageURL, description, reasonCode string) (*OracleVerdict, error) {
	imageData, mimeType, err := o.fetchImage(ctx, imageURL)
	if err != nil {
		return nil, err
	}

	prompt := analysisPrompt + fmt.Sprintf("\n\nUser description: %q", description)
	if reasonCode != "" {
		prompt += fmt.Sprintf("\nDeclared return reason: %q", reasonCode)
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(imageData))
	payload := chatRequest{
		Model: o.model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: prompt},
				{Type: "image_url", ImageURL: &imageRef{URL: dataURL}},
			},
		}},
		MaxTokens: 300,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal oracle request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build oracle request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call matching service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("matching service returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode oracle response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("matching service returned no choices")
	}

	return parseVerdict(parsed.Choices[0].Message.Content)
}

// fetchImage downloads the evidence image so the oracle receives bytes
// rather than a URL it may not be able to reach.
func (o *VisionOracle) fetchImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build image request: %w", err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch evidence image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch evidence image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, "", fmt.Errorf("read evidence image: %w", err)
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return data, mimeType, nil
}

// parseVerdict extracts the JSON fragment between the first and last brace
// and validates it. Model output often wraps the JSON in prose or fences.
func parseVerdict(text string) (*OracleVerdict, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in oracle output")
	}

	var verdict OracleVerdict
	if err := json.Unmarshal([]byte(text[start:end+1]), &verdict); err != nil {
		return nil, fmt.Errorf("parse oracle verdict: %w", err)
	}

	if verdict.Confidence < 0 {
		verdict.Confidence = 0
	}
	if verdict.Confidence > 1 {
		verdict.Confidence = 1
	}

	return &verdict, nil
}
