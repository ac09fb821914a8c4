package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSONFromCodeBlock(t *testing.T) {
	content := "Here is the intent:\n```json\n{\"polarity\": \"easy\"}\n```\nDone."
	assert.Equal(t, `{"polarity": "easy"}`, extractJSON(content))
}

func TestExtractJSONBareObject(t *testing.T) {
	content := `Sure! {"polarity": "hard", "recent": true} hope that helps`
	assert.Equal(t, `{"polarity": "hard", "recent": true}`, extractJSON(content))
}

func TestExtractJSONStripsTrailingCommas(t *testing.T) {
	content := `{"keywords": ["ml",], "recent": false,}`
	assert.Equal(t, `{"keywords": ["ml"], "recent": false}`, extractJSON(content))
}

func TestExtractJSONNoObject(t *testing.T) {
	assert.Empty(t, extractJSON("I cannot parse that query."))
	assert.Empty(t, extractJSON(""))
}
