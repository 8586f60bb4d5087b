package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/jonathan/cv-job-matcher/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient returns canned responses in order
type fakeClient struct {
	responses []string
	err       error
	prompts   []string
	schemas   []*genai.Schema
}

func (f *fakeClient) GenerateJSON(_ context.Context, req Request) (string, error) {
	f.prompts = append(f.prompts, req.Prompt)
	f.schemas = append(f.schemas, req.Schema)
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", errors.New("no more responses")
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

const resumeText = "Jane Doe\nColombo, Sri Lanka\nPreviously at Acme, Western Province"

func TestRecognize(t *testing.T) {
	client := &fakeClient{responses: []string{"```json\n" + `{"places": [
		{"text": "Sri Lanka", "type": "country"},
		{"text": "Colombo", "type": "city"},
		{"text": "colombo", "type": "city"},
		{"text": "Western Province", "type": "region"},
		{"text": "Atlantis", "type": "city"}
	]}` + "\n```"}}

	mentions, err := NewPlaceRecognizer(client).Recognize(context.Background(), resumeText)
	require.NoError(t, err)

	assert.Equal(t, []types.PlaceMention{
		{Text: "Colombo", Class: types.PlaceCity, Origin: types.OriginEntity},
		{Text: "Sri Lanka", Class: types.PlaceCountry, Origin: types.OriginEntity},
		{Text: "Western Province", Class: types.PlaceCity, Origin: types.OriginEntity},
	}, mentions)

	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], resumeText)
	assert.NotContains(t, client.prompts[0], "{{.Text}}")
	assert.Same(t, placesSchema, client.schemas[0])
}

func TestRecognize_RetriesOnInvalidJSON(t *testing.T) {
	client := &fakeClient{responses: []string{
		"Sorry, I cannot help with that",
		`{"places": [{"text": "Colombo", "type": "city"}]}`,
	}}

	mentions, err := NewPlaceRecognizer(client).Recognize(context.Background(), resumeText)
	require.NoError(t, err)
	require.Len(t, mentions, 1)
	assert.Len(t, client.prompts, 2)
	assert.Contains(t, client.prompts[1], "not valid JSON")
}

func TestRecognize_ClientError(t *testing.T) {
	client := &fakeClient{err: errors.New("quota exceeded")}

	_, err := NewPlaceRecognizer(client).Recognize(context.Background(), resumeText)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Len(t, client.prompts, 1, "transport errors are not retried")
}

func TestRecognize_EmptyText(t *testing.T) {
	client := &fakeClient{}
	mentions, err := NewPlaceRecognizer(client).Recognize(context.Background(), "  ")
	require.NoError(t, err)
	assert.Nil(t, mentions)
	assert.Empty(t, client.prompts)
}

func TestRecognize_TruncatesLongText(t *testing.T) {
	client := &fakeClient{responses: []string{`{"places": []}`}}
	r := NewPlaceRecognizer(client)
	r.maxChars = 100

	_, err := r.Recognize(context.Background(), strings.Repeat("é", 200))
	require.NoError(t, err)
	assert.NotContains(t, client.prompts[0], strings.Repeat("é", 51))
	assert.Contains(t, client.prompts[0], strings.Repeat("é", 50))
}
