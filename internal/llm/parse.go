package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ResponseKind tags a parsed provider reply.
type ResponseKind int

const (
	ResponseInvalid ResponseKind = iota
	ResponseArray
)

func (k ResponseKind) String() string {
	if k == ResponseArray {
		return "array"
	}
	return "invalid"
}

// ParsedResponse is the variant produced from untrusted model output.
// Items is only populated when Kind is ResponseArray; Reason explains an invalid reply.
type ParsedResponse struct {
	Kind   ResponseKind
	Items  []map[string]any
	Reason string
}

// Valid reports whether the reply was a well-formed array of objects.
func (p ParsedResponse) Valid() bool {
	return p.Kind == ResponseArray
}

func invalid(format string, args ...any) ParsedResponse {
	return ParsedResponse{Kind: ResponseInvalid, Reason: fmt.Sprintf(format, args...)}
}

// ParseProductArray accepts a JSON array of objects, optionally wrapped in a markdown fence.
// Anything else is invalid as a whole; no partial salvage is attempted.
func ParseProductArray(text string) ParsedResponse {
	body := StripCodeFence(text)
	if body == "" {
		return invalid("empty response")
	}

	var doc any
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return invalid("response is not valid JSON: %v", err)
	}

	schema, err := compiledProductArraySchema()
	if err != nil {
		return invalid("schema unavailable: %v", err)
	}
	if err := schema.Validate(doc); err != nil {
		return invalid("response is not an array of objects: %v", err)
	}

	arr := doc.([]any)
	items := make([]map[string]any, 0, len(arr))
	for _, el := range arr {
		items = append(items, el.(map[string]any))
	}
	return ParsedResponse{Kind: ResponseArray, Items: items}
}

// StripCodeFence removes a surrounding ``` or ```json fence and trims whitespace.
func StripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(strings.TrimSpace(s), "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
