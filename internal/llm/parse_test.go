package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProductArray(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		valid bool
		count int
	}{
		{"plain array", `[{"name":"Widget","price":12.5},{"name":"Bolt","sku":null}]`, true, 2},
		{"empty array", `[]`, true, 0},
		{"fenced json", "```json\n[{\"name\":\"Widget\"}]\n```", true, 1},
		{"bare fence", "```\n[{\"name\":\"Widget\"}]\n```", true, 1},
		{"object instead of array", `{"products":[{"name":"Widget"}]}`, false, 0},
		{"array of scalars", `["Widget", "Bolt"]`, false, 0},
		{"mixed items", `[{"name":"Widget"}, 3]`, false, 0},
		{"prose", `Here are the products: Widget, Bolt`, false, 0},
		{"trailing prose", `[{"name":"Widget"}] hope this helps`, false, 0},
		{"truncated", `[{"name":"Widget"},{"name":"Bo`, false, 0},
		{"empty", "   ", false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseProductArray(tt.text)
			assert.Equal(t, tt.valid, got.Valid())
			assert.Len(t, got.Items, tt.count)
			if !tt.valid {
				assert.NotEmpty(t, got.Reason)
				assert.Equal(t, ResponseInvalid, got.Kind)
			}
		})
	}
}

func TestParseProductArrayKeepsLooseValues(t *testing.T) {
	got := ParseProductArray(`[{"name":"Widget","price":"12.50","minimum_order_quantity":100,"material":{"x":1}}]`)
	require.True(t, got.Valid())
	item := got.Items[0]
	assert.Equal(t, "12.50", item["price"])
	assert.Equal(t, float64(100), item["minimum_order_quantity"])
	assert.IsType(t, map[string]any{}, item["material"])
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, "[1]", StripCodeFence("```json [1]```"))
	assert.Equal(t, "[1]", StripCodeFence("  [1]  "))
	assert.Equal(t, "[1]", StripCodeFence("```JSON\n[1]\n```"))
}

func TestResponseKindString(t *testing.T) {
	assert.Equal(t, "array", ResponseArray.String())
	assert.Equal(t, "invalid", ResponseInvalid.String())
}
