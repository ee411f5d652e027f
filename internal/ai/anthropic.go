package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/CJang10/my-style-ai/internal/config"
	"github.com/CJang10/my-style-ai/internal/models"
)

// IStyleAI defines the stylist operations backed by the Anthropic Messages
// API. Every call is a single attempt with a request timeout; failures are
// surfaced as UpstreamUnavailableError and never retried here — the farthest
// extent of resilience is the user pressing the button again.
type IStyleAI interface {
	IdentifyItem(ctx context.Context, imageBase64, mediaType string) (*IdentifiedItem, error)
	DailyOutfit(ctx context.Context, req OutfitRequest) (json.RawMessage, error)
	ShoppingRecommendations(ctx context.Context, profile, closet interface{}) (json.RawMessage, error)
}

// IdentifiedItem is the structured result of garment identification.
type IdentifiedItem struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Color    string `json:"color"`
	Season   string `json:"season"`
	Error    string `json:"error,omitempty"` // "not a clothing item"
}

// OutfitRequest carries everything the daily-outfit prompt needs.
type OutfitRequest struct {
	Profile     interface{} `json:"profile"`
	ClosetItems interface{} `json:"closet_items"`
	Weather     interface{} `json:"weather,omitempty"`
	Occasion    string      `json:"occasion"`
	WearHistory interface{} `json:"wear_history,omitempty"`
}

const (
	anthropicVersion = "2023-06-01"
	messagesPath     = "/v1/messages"
)

type anthropicClient struct {
	cfg        *config.Config
	httpClient *http.Client
}

// NewAnthropicClient creates the stylist client.
func NewAnthropicClient(cfg *config.Config) IStyleAI {
	return &anthropicClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.AITimeout},
	}
}

// apiRequest/apiResponse mirror the slice of the Messages API we use.
type apiMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	System    string       `json:"system,omitempty"`
	Messages  []apiMessage `json:"messages"`
}

type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (c *anthropicClient) complete(ctx context.Context, req apiRequest) (string, error) {
	if c.cfg.AnthropicAPIKey == "" {
		return "", &models.UpstreamUnavailableError{Upstream: "anthropic", Err: fmt.Errorf("API key not configured")}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal AI request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimSuffix(c.cfg.AnthropicBaseURL, "/")+messagesPath, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create AI request: %w", err)
	}
	httpReq.Header.Set("x-api-key", c.cfg.AnthropicAPIKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)
	httpReq.Header.Set("content-type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &models.UpstreamUnavailableError{Upstream: "anthropic", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &models.UpstreamUnavailableError{Upstream: "anthropic", Err: err}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", &models.UpstreamUnavailableError{Upstream: "anthropic", Err: fmt.Errorf("rate limit exceeded")}
	}
	if resp.StatusCode != http.StatusOK {
		log.Printf("Anthropic API error: %d - %s", resp.StatusCode, string(body))
		return "", &models.UpstreamUnavailableError{Upstream: "anthropic", Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", &models.UpstreamUnavailableError{Upstream: "anthropic", Err: fmt.Errorf("malformed response: %w", err)}
	}
	if len(apiResp.Content) == 0 {
		return "", &models.UpstreamUnavailableError{Upstream: "anthropic", Err: fmt.Errorf("empty response")}
	}
	return apiResp.Content[0].Text, nil
}

// ExtractJSON pulls the first {...} block out of a model reply. Models
// sometimes wrap JSON in prose or code fences; the outermost brace pair is
// the payload.
func ExtractJSON(text string) (json.RawMessage, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in reply")
	}
	candidate := text[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return nil, fmt.Errorf("reply JSON did not parse")
	}
	return json.RawMessage(candidate), nil
}

const identifyPrompt = `You are a fashion expert. Identify this clothing item from the photo.
Return ONLY valid JSON with exactly these fields:
{
  "name": "specific descriptive item name (e.g. 'Slim Fit White Oxford Shirt', 'Black Leather Chelsea Boots')",
  "category": "one of: Tops, Bottoms, Outerwear, Shoes, Accessories, Dresses",
  "color": "hex color code of the primary color (e.g. '#FFFFFF', '#1A1A1A')",
  "season": "one of: Spring, Summer, Fall, Winter, All-Season"
}
If the image does not contain a clothing item, return: {"error": "not a clothing item"}
Return only the JSON object, nothing else.`

// IdentifyItem sends a photo through the vision model and parses the result.
func (c *anthropicClient) IdentifyItem(ctx context.Context, imageBase64, mediaType string) (*IdentifiedItem, error) {
	if imageBase64 == "" {
		return nil, models.NewValidationError("no image data provided")
	}
	if mediaType == "" {
		mediaType = "image/jpeg"
	}

	content := []map[string]interface{}{
		{
			"type": "image",
			"source": map[string]string{
				"type":       "base64",
				"media_type": mediaType,
				"data":       imageBase64,
			},
		},
		{"type": "text", "text": identifyPrompt},
	}

	text, err := c.complete(ctx, apiRequest{
		Model:     c.cfg.AnthropicModel,
		MaxTokens: 300,
		Messages:  []apiMessage{{Role: "user", Content: content}},
	})
	if err != nil {
		return nil, err
	}

	raw, err := ExtractJSON(text)
	if err != nil {
		return nil, &models.UpstreamUnavailableError{Upstream: "anthropic", Err: err}
	}
	var item IdentifiedItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, &models.UpstreamUnavailableError{Upstream: "anthropic", Err: err}
	}
	return &item, nil
}

const outfitSystemPrompt = `You are StyleVault, an elite personal stylist AI. You create outfits from the user's actual closet items based on weather, occasion, their style preferences, occupation, and age. Avoid repeating recent outfit combinations. Be specific, fashion-forward, and practical. Return a JSON object with: { "outfit": [{ "item": "item name from closet", "category": "category", "styling_tip": "brief tip" }], "style_note": "overall outfit commentary", "weather_tip": "weather-specific advice" }`

// DailyOutfit generates today's outfit recommendation from the user's closet,
// the weather and their recent wear history.
func (c *anthropicClient) DailyOutfit(ctx context.Context, req OutfitRequest) (json.RawMessage, error) {
	occasion := req.Occasion
	if occasion == "" {
		occasion = "casual"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Profile: %s\n", mustJSON(req.Profile))
	fmt.Fprintf(&sb, "Weather: %s\n", mustJSON(req.Weather))
	fmt.Fprintf(&sb, "Occasion: %s\n", occasion)
	fmt.Fprintf(&sb, "Closet items: %s", mustJSON(req.ClosetItems))
	if req.WearHistory != nil {
		fmt.Fprintf(&sb, "\n\nRecent outfits worn (avoid repeating the same combinations): %s", mustJSON(req.WearHistory))
	}
	fmt.Fprintf(&sb, "\n\nCreate today's %s outfit recommendation.", occasion)

	text, err := c.complete(ctx, apiRequest{
		Model:     c.cfg.AnthropicModel,
		MaxTokens: 1024,
		System:    outfitSystemPrompt,
		Messages:  []apiMessage{{Role: "user", Content: sb.String()}},
	})
	if err != nil {
		return nil, err
	}

	raw, err := ExtractJSON(text)
	if err != nil {
		return nil, &models.UpstreamUnavailableError{Upstream: "anthropic", Err: err}
	}
	return raw, nil
}

const shoppingSystemPrompt = `You are StyleVault, a personal shopping assistant. Analyze the user's closet, style, budget, and lifestyle to recommend specific items they should buy. Focus on filling gaps, upgrading basics, and matching their aesthetic. Return JSON: { "recommendations": [{ "name": "item name", "brand": "brand", "price": number, "reason": "why they need this", "match_score": number (0-100), "tags": ["tag1", "tag2"] }] }`

// ShoppingRecommendations suggests items to buy based on closet gaps.
func (c *anthropicClient) ShoppingRecommendations(ctx context.Context, profile, closet interface{}) (json.RawMessage, error) {
	prompt := fmt.Sprintf("Profile: %s\nCurrent closet: %s\n\nRecommend 6 items to buy.", mustJSON(profile), mustJSON(closet))

	text, err := c.complete(ctx, apiRequest{
		Model:     c.cfg.AnthropicModel,
		MaxTokens: 1024,
		System:    shoppingSystemPrompt,
		Messages:  []apiMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, err
	}

	raw, err := ExtractJSON(text)
	if err != nil {
		return nil, &models.UpstreamUnavailableError{Upstream: "anthropic", Err: err}
	}
	return raw, nil
}

func mustJSON(v interface{}) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}
