package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate_BasicASCII(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello World", "hello-world"},
		{"Pressed Flower Frame", "pressed-flower-frame"},
		{"ALL UPPER CASE", "all-upper-case"},
		{"Hello   World!", "hello-world"},
		{"  --Gift Box--  ", "gift-box"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Generate(tt.input))
		})
	}
}

func TestGenerate_FoldsAccents(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Crème Brûlée Candle", "creme-brulee-candle"},
		{"Hand-Painted Diyā Set", "hand-painted-diya-set"},
		{"Kadın Giyim", "kadin-giyim"},
		{"Çocuk Ürünleri", "cocuk-urunleri"},
		{"Straße", "strasse"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Generate(tt.input))
		})
	}
}

func TestGenerate_Empty(t *testing.T) {
	assert.Equal(t, "", Generate(""))
	assert.Equal(t, "", Generate("!!!"))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "rose-gold-locket", Normalize("Rose-Gold-Locket"))
	assert.Equal(t, "rose-gold-locket", Normalize("rose-gold-locket/"))
	assert.Equal(t, "rose-gold-locket", Normalize("rose-gold-locket"))
}
