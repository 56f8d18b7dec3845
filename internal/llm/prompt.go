package llm

import (
	"fmt"
	"strings"
)

// ProductFields is the agreed field set every returned object carries.
var ProductFields = []string{"sku", "name", "description", "price", "minimum_order_quantity", "dimensions", "material"}

// CatalogSystemPrompt frames the model as a catalog row extractor.
func CatalogSystemPrompt() string {
	return "You extract product listings from supplier catalogs. " +
		"Catalogs may mix English with other languages; keep product text in its original language. " +
		"Reply with a JSON array only."
}

func outputContract() string {
	return strings.Join([]string{
		"Return a JSON array. Each element is one product, an object with exactly these keys: " + strings.Join(ProductFields, ", ") + ".",
		"Use null for any value that is unknown or not shown. Never invent values.",
		"price is a number without currency symbols; minimum_order_quantity is an integer.",
		"Skip section titles, totals and notes that are not products.",
		"Output nothing except the JSON array: no prose, no markdown fences.",
	}, "\n")
}

// BuildRowsPrompt serialises a sample of raw sheet rows whose header could not be recognised.
func BuildRowsPrompt(source string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Source: %s\n", source)
	b.WriteString("The rows below come from a spreadsheet whose column layout is unknown. ")
	b.WriteString("Cells are separated by \" | \"; the first rows may be titles or a header.\n\n")
	for i, row := range rows {
		fmt.Fprintf(&b, "row %d: %s\n", i+1, strings.Join(row, " | "))
	}
	b.WriteString("\n")
	b.WriteString(outputContract())
	return b.String()
}

// PageText is the extractable text layer of one document page.
type PageText struct {
	Number int
	Text   string
}

// BuildPagesPrompt covers a bounded set of document pages. Rendered pages travel as attachments;
// any text layer is inlined to help with small print.
func BuildPagesPrompt(source string, pages []PageText, maxTextRunes int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Source: %s\n", source)
	b.WriteString("The attached images are pages of a supplier catalog.\n")
	for _, p := range pages {
		text := strings.TrimSpace(p.Text)
		if text == "" {
			continue
		}
		if r := []rune(text); maxTextRunes > 0 && len(r) > maxTextRunes {
			text = string(r[:maxTextRunes]) + "\n…(truncated)"
		}
		fmt.Fprintf(&b, "\nText layer of page %d:\n%s\n", p.Number, text)
	}
	b.WriteString("\n")
	b.WriteString(outputContract())
	return b.String()
}

// BuildImagePrompt asks for the products visible in a single photo or scan.
func BuildImagePrompt(source string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Source: %s\n", source)
	b.WriteString("The attached image is a product photo, label or price sheet from a supplier. ")
	b.WriteString("List every distinct product you can read.\n\n")
	b.WriteString(outputContract())
	return b.String()
}
