package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/menuvision/backend/internal/types"
)

// MenuParser turns raw menu input into an ordered list of candidates.
type MenuParser interface {
	Parse(ctx context.Context, input types.MenuInput) ([]types.MenuCandidate, error)
}

// Parser extracts dishes with the AI capability and falls back to a
// deterministic line-based heuristic when the capability cannot help.
type Parser struct {
	llm CapabilityClient
}

// NewParser returns a Parser backed by llm.
func NewParser(llm CapabilityClient) *Parser {
	return &Parser{llm: llm}
}

const textParsePrompt = `Parse this menu text and extract only valid food items. For each food item, provide:
1. A clean name (title case)
2. A brief, appetizing description (if not provided, create one based on the dish name)

Return a JSON array of objects with "name" and "description" fields. Ignore any non-food items like prices, restaurant info, or categories. Only include actual food dishes.

Menu text:
%s

Return only the JSON array, no other text.`

const imageParsePrompt = `Look at this menu image and extract only valid food items. For each food item, provide:
1. A clean name (title case)
2. A brief, appetizing description (if not provided, create one based on the dish name)

Return a JSON array of objects with "name" and "description" fields. Ignore any non-food items like prices, restaurant info, or categories. Only include actual food dishes.

Return only the JSON array, no other text.`

// Parse dispatches on the input kind. The text path never fails on
// capability errors other than a missing credential: it degrades to the
// heuristic parser instead. The image path has no fallback.
func (p *Parser) Parse(ctx context.Context, input types.MenuInput) ([]types.MenuCandidate, error) {
	if input.IsImage() {
		return p.parseImage(ctx, input.ImageData, input.MimeType)
	}
	return p.parseText(ctx, input.Text)
}

func (p *Parser) parseText(ctx context.Context, menuText string) ([]types.MenuCandidate, error) {
	response, err := p.llm.UnderstandText(ctx, fmt.Sprintf(textParsePrompt, menuText))
	if err != nil {
		if errors.Is(err, ErrMissingAPIKey) {
			return nil, err
		}
		log.Printf("[Parser] capability call failed, using fallback parser: %v", err)
		return fallbackParse(menuText), nil
	}

	candidates, err := extractCandidates(response)
	if err != nil {
		log.Printf("[Parser] could not extract items from capability response, using fallback parser: %v", err)
		return fallbackParse(menuText), nil
	}

	return candidates, nil
}

func (p *Parser) parseImage(ctx context.Context, image []byte, mimeType string) ([]types.MenuCandidate, error) {
	response, err := p.llm.UnderstandImage(ctx, image, mimeType, imageParsePrompt)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze menu image: %w", err)
	}

	candidates, err := extractCandidates(response)
	if err != nil {
		return nil, fmt.Errorf("failed to parse menu image response: %w", err)
	}

	return candidates, nil
}

// extractCandidates locates the first JSON array in the model's reply
// (first "[" through the last "]"), parses it, and drops any element
// without a non-empty name and description.
func extractCandidates(response string) ([]types.MenuCandidate, error) {
	start := strings.Index(response, "[")
	end := strings.LastIndex(response, "]")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("no JSON array in response")
	}

	var raw []types.MenuCandidate
	if err := json.Unmarshal([]byte(response[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON array in response: %w", err)
	}

	candidates := make([]types.MenuCandidate, 0, len(raw))
	for _, c := range raw {
		c.Name = strings.TrimSpace(c.Name)
		c.Description = strings.TrimSpace(c.Description)
		if c.Name == "" || c.Description == "" {
			continue
		}
		candidates = append(candidates, c)
	}

	return candidates, nil
}

const maxFallbackItems = 10

var (
	nonFoodLine   = regexp.MustCompile(`(?i)^\$|^price|restaurant|menu|category|appetizer|dessert|drinks`)
	ordinalPrefix = regexp.MustCompile(`^\d+\.\s*`)
)

// fallbackParse is the deterministic heuristic: one dish per plausible
// line, skipping price and metadata lines, capped at ten items.
func fallbackParse(menuText string) []types.MenuCandidate {
	var candidates []types.MenuCandidate

	for _, line := range strings.Split(menuText, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || nonFoodLine.MatchString(trimmed) {
			continue
		}
		if len(trimmed) <= 3 || len(trimmed) >= 100 {
			continue
		}

		name := strings.TrimSpace(ordinalPrefix.ReplaceAllString(trimmed, ""))
		if name == "" {
			continue
		}

		candidates = append(candidates, types.MenuCandidate{
			Name:        name,
			Description: fmt.Sprintf("Delicious %s prepared fresh", strings.ToLower(trimmed)),
		})
		if len(candidates) == maxFallbackItems {
			break
		}
	}

	return candidates
}
