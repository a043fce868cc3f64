package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	tipotest "github.com/xusob2/TipoTest"
)

func main() {
	var (
		moduleName     = flag.String("module", "", "Module name (required)")
		numQuestions   = flag.Int("questions", 10, "Number of questions to generate")
		sourceMaterial = flag.String("source", "", "Source material to base questions on")
		difficulty     = flag.String("difficulty", "medium", "Difficulty level (easy, medium, hard)")
		outputFile     = flag.String("output", "", "Output file for the question JSON (default: stdout)")
		apiKey         = flag.String("api-key", "", "OpenAI API key (or set OPENAI_API_KEY env var)")
		verbose        = flag.Bool("verbose", false, "Enable verbose debugging output")
	)
	flag.Parse()

	tipotest.SetVerbose(*verbose)

	if *moduleName == "" {
		log.Fatal("Module name is required. Use -module flag.")
	}

	if *apiKey == "" {
		*apiKey = os.Getenv("OPENAI_API_KEY")
		if *apiKey == "" {
			log.Fatal("OpenAI API key is required. Use -api-key flag or set OPENAI_API_KEY environment variable.")
		}
	}

	generator := tipotest.NewModuleGenerator(*apiKey)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	questions, err := generator.GenerateModule(ctx, tipotest.GenerationRequest{
		ModuleName:     *moduleName,
		NumQuestions:   *numQuestions,
		SourceMaterial: *sourceMaterial,
		Difficulty:     *difficulty,
	})
	if err != nil {
		log.Fatalf("Failed to generate module: %v", err)
	}

	// The output is ready for POST /api/admin/create-module.
	output, err := json.MarshalIndent(questions, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal questions: %v", err)
	}

	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, output, 0644); err != nil {
			log.Fatalf("Failed to write output file: %v", err)
		}
		log.Printf("Module saved to: %s", *outputFile)
	} else {
		fmt.Println(string(output))
	}
}
