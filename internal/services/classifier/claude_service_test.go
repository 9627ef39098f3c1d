package classifier

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voclabs/vocero/internal/models"
)

func TestClassificationParsesPromptShape(t *testing.T) {
	// A response in exactly the shape the classify prompt asks for must
	// land in every Classification field.
	raw := `{"sentiment":"Positive","emotion":"Delight","score":0.8,` +
		`"topics":[{"dimension":"Service","sentiment":"Positive","quote":"staff were great"}]}`

	var result models.Classification
	require.NoError(t, json.Unmarshal([]byte(raw), &result))

	assert.Equal(t, "Positive", result.Sentiment)
	assert.Equal(t, "Delight", result.Emotion)
	assert.Equal(t, 0.8, result.Score)
	require.Len(t, result.Topics, 1)
	assert.Equal(t, "Service", result.Topics[0].Dimension)
	assert.Equal(t, "staff were great", result.Topics[0].Quote)

	// The prompt names the same fields the struct tags expect.
	for _, field := range []string{`"score"`, `"quote"`, `"sentiment"`, `"emotion"`, `"topics"`} {
		assert.Contains(t, classifySystemPrompt, field)
	}
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain json", `{"sentiment":"Positive"}`, `{"sentiment":"Positive"}`},
		{"fenced", "```\n{\"sentiment\":\"Positive\"}\n```", `{"sentiment":"Positive"}`},
		{"fenced with language", "```json\n{\"sentiment\":\"Positive\"}\n```", `{"sentiment":"Positive"}`},
		{"surrounding whitespace", "  {\"a\":1}  ", `{"a":1}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, stripCodeFences(tc.in))
		})
	}
}
