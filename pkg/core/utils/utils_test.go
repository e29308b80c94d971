package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type enrichment struct {
	EBITDA float64 `json:"ebitda"`
	Notes  string  `json:"notes"`
}

func TestDecodeLLMJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"plain json", `{"ebitda": 120.5, "notes": "ok"}`},
		{"code fence", "```json\n{\"ebitda\": 120.5, \"notes\": \"ok\"}\n```"},
		{"chatter around object", `Sure! Here is the data: {"ebitda": 120.5, "notes": "ok"} Let me know.`},
		{"trailing comma", `{"ebitda": 120.5, "notes": "ok",}`},
		{"single quotes", `{'ebitda': 120.5, 'notes': 'ok'}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out enrichment
			_, err := DecodeLLMJSON(tt.input, &out)
			require.NoError(t, err)
			assert.Equal(t, 120.5, out.EBITDA)
			assert.Equal(t, "ok", out.Notes)
		})
	}
}

func TestDecodeLLMJSON_Empty(t *testing.T) {
	var out enrichment
	_, err := DecodeLLMJSON("   ", &out)
	assert.ErrorIs(t, err, ErrNoJSON)
}

func TestDecodeLLMJSON_Garbage(t *testing.T) {
	var out enrichment
	_, err := DecodeLLMJSON("not json at all", &out)
	assert.ErrorIs(t, err, ErrNoJSON)
}

func TestCleanMarkdown(t *testing.T) {
	assert.Equal(t, `{"a":1}`, CleanMarkdown("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, CleanMarkdown("```{\"a\":1}```"))
	assert.Equal(t, "no fences", CleanMarkdown("  no fences \n"))
}

func TestPlainText(t *testing.T) {
	md := "# Q1 Call\n\nDemand was **strong** across [BFSI](http://x).\n\n- attrition fell\n- deals ramped\n"
	got := PlainText([]byte(md))

	assert.Contains(t, got, "Q1 Call")
	assert.Contains(t, got, "Demand was strong across BFSI.")
	assert.Contains(t, got, "attrition fell")
	assert.Contains(t, got, "deals ramped")
	assert.NotContains(t, got, "**")
	assert.NotContains(t, got, "http://x")
}
