package handler

import (
	"net/http"

	"github.com/invopop/jsonschema"

	"polyglotshift/internal/task"
)

// HandleSchemas lists the output schema of every task.
func (h *ProcessHandler) HandleSchemas(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]*jsonschema.Schema{
		task.Summarize.Name():        task.Summarize.Schema(),
		task.Translate.Name():        task.Translate.Schema(),
		task.AnalyzeStructure.Name(): task.AnalyzeStructure.Schema(),
		task.GenerateDiagrams.Name(): task.GenerateDiagrams.Schema(),
	})
}
