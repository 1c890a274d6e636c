package task

import (
	"fmt"

	"polyglotshift/internal/types"
)

const (
	NameSummarize        = "summarize"
	NameTranslate        = "translate"
	NameAnalyzeStructure = "analyze_structure"
	NameGenerateDiagrams = "generate_diagrams"
)

// Names lists the tasks in the order the orchestrator reports them.
var Names = []string{NameSummarize, NameTranslate, NameAnalyzeStructure, NameGenerateDiagrams}

// CodeInput is the input shared by summarize, analyze and diagram tasks.
type CodeInput struct {
	Code     string        `json:"code"`
	Language types.Dialect `json:"language"`
}

// TranslateInput also carries the backend chosen by the caller.
type TranslateInput struct {
	Code           string        `json:"code"`
	SourceLanguage types.Dialect `json:"sourceLanguage"`
	Backend        types.Backend `json:"-"`
}

type SummaryOutput struct {
	Summary string `json:"summary" jsonschema:"description=Detailed hierarchical summary of the code in Markdown"`
}

type TranslationOutput struct {
	PythonCode string `json:"pythonCode" jsonschema:"description=Complete Python translation of the input program"`
}

type StructureOutput struct {
	StructureAnalysis string `json:"structureAnalysis" jsonschema:"description=Markdown analysis of functions and control flow and data structures"`
}

type DiagramsOutput struct {
	DiagramSyntax string `json:"diagramSyntax" jsonschema:"description=One or more Mermaid diagrams joined by the diagram separator"`
}

// Diagrams splits the blob into individual Mermaid diagrams.
func (d DiagramsOutput) Diagrams() []string { return SplitDiagrams(d.DiagramSyntax) }

var (
	Summarize        Contract[CodeInput, SummaryOutput]          = newContract[CodeInput, SummaryOutput](NameSummarize, summarizePrompt, nil)
	Translate        Contract[TranslateInput, TranslationOutput] = newContract[TranslateInput, TranslationOutput](NameTranslate, translatePrompt, nil)
	AnalyzeStructure Contract[CodeInput, StructureOutput]        = newContract[CodeInput, StructureOutput](NameAnalyzeStructure, analyzePrompt, nil)
	GenerateDiagrams Contract[CodeInput, DiagramsOutput]         = newContract[CodeInput, DiagramsOutput](NameGenerateDiagrams, diagramsPrompt, checkDiagrams)
)

const jsonOnly = "Return a single JSON object with exactly the fields listed in [OUTPUT]. No prose outside the JSON."

func summarizePrompt(in CodeInput) PromptSpec {
	return PromptSpec{
		Purpose:    fmt.Sprintf("You are an expert software engineer who explains legacy code. Produce a detailed hierarchical summary of this %s program.", in.Language),
		Background: "The reader is about to migrate the program and needs to understand what it does before reading the translation.",
		Language:   in.Language,
		Code:       in.Code,
		Rules: []string{
			"Start with the overall purpose of the program.",
			"Then describe each major component and how the components interact.",
			"Use Markdown headings and bullet lists.",
		},
		OutputFormat: jsonOnly,
	}
}

func translatePrompt(in TranslateInput) PromptSpec {
	return PromptSpec{
		Purpose:  fmt.Sprintf("You are a code conversion expert. Convert the following %s code to Python 3.", in.SourceLanguage),
		Language: in.SourceLanguage,
		Code:     in.Code,
		Rules: []string{
			"Preserve the observable behavior of the original program.",
			"Produce valid and runnable Python 3 code.",
			"Keep the original names where they remain readable in Python.",
			"Return only code in pythonCode. Comments are allowed but no Markdown fences.",
		},
		OutputFormat: jsonOnly,
	}
}

func analyzePrompt(in CodeInput) PromptSpec {
	return PromptSpec{
		Purpose:  fmt.Sprintf("Analyze the structure of the following %s program.", in.Language),
		Language: in.Language,
		Code:     in.Code,
		Rules: []string{
			"List the main functions or procedures with a one-line purpose for each.",
			"Describe the key control flow structures such as loops and branches.",
			"Describe the important data structures and records.",
			"Format the analysis as Markdown.",
		},
		OutputFormat: jsonOnly,
	}
}

func diagramsPrompt(in CodeInput) PromptSpec {
	return PromptSpec{
		Purpose:  fmt.Sprintf("Draw Mermaid diagrams that explain the control flow of the following %s program.", in.Language),
		Language: in.Language,
		Code:     in.Code,
		Rules: []string{
			"Use Mermaid flowchart syntax (graph TD).",
			"Produce one diagram per major function or paragraph when the program has several.",
			"Separate consecutive diagrams with a blank line then the three lines `%%`, `%% --- Next Diagram ---`, `%%` then a blank line.",
			"Do not wrap diagrams in Markdown code fences.",
		},
		OutputFormat: jsonOnly,
	}
}

func checkDiagrams(out DiagramsOutput) error {
	if len(out.Diagrams()) == 0 {
		return fmt.Errorf("no diagram in diagramSyntax")
	}
	return nil
}
