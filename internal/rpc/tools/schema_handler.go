package tools

import (
	"encoding/json"
	"net/http"

	"github.com/jerzydziewierz/second-opinion/internal/advisor"
)

// DefinitionSource lists tool definitions. *advisor.Advisor implements it.
type DefinitionSource interface {
	Definitions() []advisor.ToolDefinition
}

// SchemaHandler serves tool definitions as JSON.
type SchemaHandler struct {
	Source DefinitionSource
}

// ServeHTTP renders definitions.
func (h SchemaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(h.Source.Definitions())
}
