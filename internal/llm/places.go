package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
	"github.com/jonathan/cv-job-matcher/internal/prompts"
	"github.com/jonathan/cv-job-matcher/internal/types"
)

// DefaultMaxPromptChars bounds how much resume text is sent to the model
const DefaultMaxPromptChars = 6000

// placesResponse is the JSON shape requested by the extract-places prompt
type placesResponse struct {
	Places []struct {
		Text string `json:"text"`
		Type string `json:"type"` // "country", "city", "region"
	} `json:"places"`
}

// placesSchema constrains model output to placesResponse
var placesSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"places": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"text": {Type: genai.TypeString},
					"type": {Type: genai.TypeString, Format: "enum", Enum: []string{"country", "city", "region"}},
				},
				Required: []string{"text", "type"},
			},
		},
	},
	Required: []string{"places"},
}

// PlaceRecognizer tags geopolitical and location names in resume text
type PlaceRecognizer struct {
	gen      Generator
	maxChars int
}

// NewPlaceRecognizer creates a recognizer over gen
func NewPlaceRecognizer(gen Generator) *PlaceRecognizer {
	return &PlaceRecognizer{gen: gen, maxChars: DefaultMaxPromptChars}
}

// Recognize returns the place names the model finds in text. Mentions are
// in first-occurrence order, deduplicated case-insensitively, and limited to
// names that actually occur in the text.
func (r *PlaceRecognizer) Recognize(ctx context.Context, text string) ([]types.PlaceMention, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if len(text) > r.maxChars {
		cut := r.maxChars
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}

	resp, err := r.ask(ctx, "extract-places", text)
	if err != nil {
		var parseErr *responseParseError
		if !errors.As(err, &parseErr) {
			return nil, err
		}
		// one retry with the stricter prompt
		resp, err = r.ask(ctx, "extract-places-retry", text)
		if err != nil {
			return nil, err
		}
	}

	return mentionsFromResponse(text, resp), nil
}

type responseParseError struct {
	cause error
}

func (e *responseParseError) Error() string {
	return fmt.Sprintf("failed to parse place recognition response: %v", e.cause)
}

func (e *responseParseError) Unwrap() error { return e.cause }

func (r *PlaceRecognizer) ask(ctx context.Context, key, text string) (placesResponse, error) {
	var resp placesResponse

	prompt, err := prompts.Render("places.json", key, map[string]string{"Text": text})
	if err != nil {
		return resp, err
	}

	raw, err := r.gen.GenerateJSON(ctx, Request{Prompt: prompt, Schema: placesSchema})
	if err != nil {
		return resp, fmt.Errorf("place recognition failed: %w", err)
	}
	if err := json.Unmarshal([]byte(ExtractJSON(raw)), &resp); err != nil {
		return resp, &responseParseError{cause: err}
	}
	return resp, nil
}

func mentionsFromResponse(text string, resp placesResponse) []types.PlaceMention {
	lower := strings.ToLower(text)

	type found struct {
		mention types.PlaceMention
		offset  int
	}
	var hits []found
	seen := make(map[string]bool)
	for _, p := range resp.Places {
		name := strings.TrimSpace(p.Text)
		key := strings.ToLower(name)
		if key == "" || seen[key] {
			continue
		}
		offset := strings.Index(lower, key)
		if offset < 0 {
			continue
		}
		seen[key] = true

		class := types.PlaceCity
		if strings.EqualFold(p.Type, "country") {
			class = types.PlaceCountry
		}
		hits = append(hits, found{
			mention: types.PlaceMention{Text: name, Class: class, Origin: types.OriginEntity},
			offset:  offset,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].offset < hits[j].offset })

	mentions := make([]types.PlaceMention, len(hits))
	for i, h := range hits {
		mentions[i] = h.mention
	}
	return mentions
}
