package header

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectUnit(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Price (USD/m2)", "m2", true},
		{"FOB price / m²", "m2", true},
		{"单价(元/平方米)", "m2", true},
		{"Price per CBM", "m3", true},
		{"Unit Price (USD/PCS)", "pc", true},
		{"FOB USD/Set", "set", true},
		{"Price per pair", "pair", true},
		{"USD/KG", "kg", true},
		{"Price USD/MT", "ton", true},
		{"Price per meter", "m", true},
		{"单价/米", "m", true},
		{"Price (USD/m)", "m", true},
		{"USD/m per roll", "m", true},
		{"Price/MOQ", "", false},
		{"USD/mm", "", false},
		{"Price per mm", "", false},
		{"Cost/mm, USD/m", "m", true},
		{"Price", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, ok := DetectUnit(tt.header)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
