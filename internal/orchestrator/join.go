package orchestrator

import (
	"fmt"
	"strings"

	"polyglotshift/internal/executor"
	"polyglotshift/internal/llm"
	"polyglotshift/internal/task"
	"polyglotshift/internal/types"
)

type taskFailure struct {
	task    string
	failure *executor.Failure
}

func (o *Orchestrator) join(
	req types.Request,
	summary executor.Result[task.SummaryOutput],
	python executor.Result[task.TranslationOutput],
	structure executor.Result[task.StructureOutput],
	diagrams executor.Result[task.DiagramsOutput],
) types.Response {
	var failures []taskFailure
	for _, f := range []taskFailure{
		{task.NameSummarize, summary.Failure},
		{task.NameTranslate, python.Failure},
		{task.NameAnalyzeStructure, structure.Failure},
		{task.NameGenerateDiagrams, diagrams.Failure},
	} {
		if f.failure != nil {
			failures = append(failures, f)
		}
	}

	var resp types.Response
	if len(failures) == 0 || o.opts.Policy == Partial {
		if summary.OK() {
			resp.Summary = summary.Output.Summary
		}
		if python.OK() {
			resp.TranslatedCode = python.Output.PythonCode
			resp.SuggestedFileName = types.SuggestedFileName(req.FileName)
		}
		if structure.OK() {
			resp.StructureAnalysis = structure.Output.StructureAnalysis
		}
		if diagrams.OK() {
			resp.Diagrams = diagrams.Output.Diagrams()
		}
	}
	if len(failures) == 0 {
		return resp
	}

	resp.Error, resp.ErrorKind = describe(failures)
	if o.opts.Policy == Partial {
		resp.TaskErrors = make(map[string]string, len(failures))
		for _, f := range failures {
			resp.TaskErrors[f.task] = f.failure.Reason
		}
	}
	return resp
}

// describe builds the user-visible error. A rejected Gemini key wins over
// every other failure because it is the one the user can fix.
func describe(failures []taskFailure) (string, types.ErrorKind) {
	for _, f := range failures {
		if f.failure.Kind == executor.CredentialError && f.failure.Provider == llm.ProviderGemini {
			reason := strings.TrimRight(f.failure.Reason, ". ")
			return fmt.Sprintf("Gemini API Key Error: %s. Please check your API key.", reason), types.ErrorKindCredential
		}
	}
	parts := make([]string, 0, len(failures))
	for _, f := range failures {
		parts = append(parts, fmt.Sprintf("%s: %s", f.task, f.failure.Reason))
	}
	return strings.Join(parts, "; "), errorKind(failures[0].failure.Kind)
}

func errorKind(k executor.FailureKind) types.ErrorKind {
	switch k {
	case executor.CredentialError:
		return types.ErrorKindCredential
	case executor.InvalidOutput:
		return types.ErrorKindInvalidOutput
	default:
		return types.ErrorKindBackendUnavailable
	}
}
