package advisor

import (
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
)

const adviceDescription = `Ask a second, different AI for help with the problem at hand. It might have an original idea or approach that you did not think about so far. Provide your question in the prompt field and always include relevant code files as context.

Be specific about what you want: architecture advice, code implementation, document review, bug research, or anything else.

IMPORTANT: Ask neutral, open-ended questions. Avoid suggesting specific solutions or alternatives in your prompt as this can bias the analysis. Instead of "Should I use X or Y approach?", ask "What's the best approach for this problem?" Let the consultant LLM provide unbiased recommendations.`

const consultSuffix = "\n\nThe response is prefixed with a timing line showing start, end, duration and the model used."

// ToolDefinition describes a tool as listed to clients.
type ToolDefinition struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	InputSchema *jsonschema.Schema `json:"inputSchema"`
}

func newReflector() *jsonschema.Reflector {
	return &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  true,
		DoNotReference:             true,
		Anonymous:                  true,
	}
}

// InputSchema reflects the Args schema and narrows "model" to the enabled identifiers.
func InputSchema(enabled []string, defaultModel string) *jsonschema.Schema {
	s := newReflector().Reflect(&Args{})
	s.Version = ""
	if prop, ok := s.Properties.Get("model"); ok && prop != nil {
		enum := make([]any, 0, len(enabled))
		for _, id := range enabled {
			enum = append(enum, id)
		}
		prop.Enum = enum
		if defaultModel != "" {
			prop.Default = defaultModel
		}
		prop.Description = modelDescription(enabled)
	}
	return s
}

func modelDescription(enabled []string) string {
	quoted := make([]string, 0, len(enabled))
	for _, id := range enabled {
		quoted = append(quoted, fmt.Sprintf("%q", id))
	}
	return fmt.Sprintf("LLM model to use. One of %s as per user preference.", strings.Join(quoted, ", "))
}

// Definitions lists both tools.
func Definitions(enabled []string, defaultModel string) []ToolDefinition {
	return []ToolDefinition{
		{Name: ToolConsult, Description: adviceDescription + consultSuffix, InputSchema: InputSchema(enabled, defaultModel)},
		{Name: ToolGetAdvice, Description: adviceDescription, InputSchema: InputSchema(enabled, defaultModel)},
	}
}
