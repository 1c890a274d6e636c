package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"polyglotshift/internal/config"
	"polyglotshift/internal/gateway/app"
	"polyglotshift/internal/task"
	"polyglotshift/internal/types"
	"polyglotshift/internal/util/jsonutil"
)

func main() {
	file := flag.String("file", "", "path to the C or COBOL source file")
	lang := flag.String("lang", "", "source language: C or COBOL (inferred from the extension when empty)")
	model := flag.String("model", "gemini", "model backend: gemini or deepseek")
	apiKey := flag.String("api-key", "", "Gemini API key for this run (defaults to GEMINI_API_KEY)")
	outDir := flag.String("out", "", "write the translation and diagrams here instead of printing JSON only")
	verbose := flag.Bool("v", false, "log backend calls to stderr")
	flag.Parse()
	if *file == "" {
		log.Fatal("--file is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger := log.New(io.Discard, "", 0)
	if *verbose {
		logger = log.New(os.Stderr, "shift: ", log.LstdFlags)
	}

	code, err := os.ReadFile(*file)
	if err != nil {
		log.Fatal(err)
	}

	orch := app.NewOrchestrator(cfg, logger)
	resp := orch.Process(context.Background(), types.RawRequest{
		Code:           string(code),
		SourceLanguage: *lang,
		ModelType:      *model,
		APIKey:         *apiKey,
		FileName:       filepath.Base(*file),
	})

	b, err := jsonutil.MarshalNoEscape(resp)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(b))

	if resp.Failed() {
		os.Exit(1)
	}
	if *outDir != "" {
		if err := writeArtifacts(*outDir, resp); err != nil {
			log.Fatal(err)
		}
	}
}

func writeArtifacts(dir string, resp types.Response) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	files := map[string]string{
		resp.SuggestedFileName: resp.TranslatedCode,
		"summary.md":           resp.Summary,
		"structure.md":         resp.StructureAnalysis,
		"diagrams.mmd":         task.JoinDiagrams(resp.Diagrams),
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			return err
		}
		log.Printf("wrote %s", filepath.Join(dir, name))
	}
	return nil
}
