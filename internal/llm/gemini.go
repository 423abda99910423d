package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/genai"

	"github.com/EunoiaC/Verify/internal/model"
	"github.com/EunoiaC/Verify/internal/util"
)

// GeminiExtractor implements Extractor with Gemini structured output
type GeminiExtractor struct {
	cli    *genai.Client
	config Config
}

// NewGeminiExtractor creates a new Gemini extractor
func NewGeminiExtractor(ctx context.Context, config Config) (*GeminiExtractor, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPClient: &http.Client{
			Timeout:   config.timeout(60*time.Second),
			Transport: util.NewTransport(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
		},
	}
	if config.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}

	cli, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}

	return &GeminiExtractor{cli: cli, config: config}, nil
}

// Name returns the provider name
func (g *GeminiExtractor) Name() string {
	return "gemini"
}

// claimSchema constrains Gemini output to a claim array
var claimSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"claim":        {Type: genai.TypeString, Description: "The extracted claim in a concise form, written as if it came from an article about the subject."},
			"span":         {Type: genai.TypeString, Description: "The exact span within the original text that expresses the claim."},
			"subject":      {Type: genai.TypeString, Description: "The subject of the claim."},
			"predicate":    {Type: genai.TypeString, Description: "The relationship or action connecting the subject and object."},
			"object":       {Type: genai.TypeString, Description: "The object or result related to the subject in the claim."},
			"search_query": {Type: genai.TypeString},
		},
		Required: []string{"claim", "span", "subject", "predicate", "object", "search_query"},
	},
}

// ExtractClaims asks Gemini for a schema-constrained claim array
func (g *GeminiExtractor) ExtractClaims(ctx context.Context, text string) ([]model.Claim, error) {
	modelName := g.config.Model
	if modelName == "" {
		modelName = "gemini-2.5-flash-lite"
	}

	resp, err := g.cli.Models.GenerateContent(ctx, modelName,
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: BuildPrompt(text)}}}},
		&genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: SystemPrompt}}},
			ResponseMIMEType:  "application/json",
			ResponseSchema:    claimSchema,
			Temperature:       genai.Ptr[float32](0),
			MaxOutputTokens:   int32(g.config.maxTokens()),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("Gemini API error: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: no content in Gemini response", ErrMalformedClaims)
	}

	return ParseClaims(resp.Candidates[0].Content.Parts[0].Text)
}
