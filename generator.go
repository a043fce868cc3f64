package tipotest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// GenerationRequest describes a module to draft questions for.
type GenerationRequest struct {
	ModuleName     string `json:"module_name"`
	NumQuestions   int    `json:"num_questions"`
	SourceMaterial string `json:"source_material,omitempty"`
	Difficulty     string `json:"difficulty,omitempty"`
}

// ModuleGenerator drafts question modules with GPT-4o. The output is the
// same JSON array shape the create-module endpoint accepts, so a generated
// module can be uploaded without editing.
type ModuleGenerator struct {
	client *openai.Client
}

// NewModuleGenerator creates a generator with an OpenAI client.
func NewModuleGenerator(apiKey string) *ModuleGenerator {
	return &ModuleGenerator{
		client: openai.NewClient(apiKey),
	}
}

// GenerateModule keeps requesting batches until enough questions pass the
// data-model validation, then returns exactly req.NumQuestions of them.
func (g *ModuleGenerator) GenerateModule(ctx context.Context, req GenerationRequest) ([]Question, error) {
	if req.ModuleName == "" {
		return nil, Validationf("module name is required")
	}
	if req.NumQuestions <= 0 {
		req.NumQuestions = 10
	}

	accepted := make([]Question, 0, req.NumQuestions)
	batchSize := 5
	emptyBatches := 0

	for len(accepted) < req.NumQuestions {
		batch, err := g.generateBatch(ctx, req, batchSize)
		if err != nil {
			return nil, fmt.Errorf("failed to generate questions: %w", err)
		}

		kept := 0
		for _, q := range batch {
			if err := q.Validate(); err != nil {
				VerboseLog("Dropping generated question: %v", err)
				continue
			}
			accepted = append(accepted, q)
			kept++
			if len(accepted) == req.NumQuestions {
				break
			}
		}

		if kept == 0 {
			emptyBatches++
			if emptyBatches >= 3 {
				return nil, fmt.Errorf("no valid questions after %d empty batches", emptyBatches)
			}
			batchSize = min(batchSize+2, 10)
			VerboseLog("No questions kept, increasing batch size to %d", batchSize)
		}
	}

	return accepted, nil
}

func (g *ModuleGenerator) generateBatch(ctx context.Context, req GenerationRequest, batchSize int) ([]Question, error) {
	resp, err := g.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: openai.GPT4o,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: "You are an expert quiz question generator. Generate high-quality multiple choice questions with exactly 4 options each.",
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: g.buildPrompt(req, batchSize),
				},
			},
			Tools: []openai.Tool{
				{
					Type: openai.ToolTypeFunction,
					Function: &openai.FunctionDefinition{
						Name:        "submit_questions",
						Description: "Submit generated quiz questions",
						Parameters: map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"questions": map[string]interface{}{
									"type": "array",
									"items": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"question": map[string]interface{}{
												"type":        "string",
												"description": "The question text",
											},
											"options": map[string]interface{}{
												"type": "array",
												"items": map[string]interface{}{
													"type": "string",
												},
												"description": "Array of 4 multiple choice options",
											},
											"correct": map[string]interface{}{
												"type":        "integer",
												"description": "0-based index of the correct answer",
											},
											"explanation": map[string]interface{}{
												"type":        "string",
												"description": "Brief explanation of why the answer is correct",
											},
										},
										"required": []string{"question", "options", "correct", "explanation"},
									},
								},
							},
							"required": []string{"questions"},
						},
					},
				},
			},
			ToolChoice: openai.ToolChoice{
				Type: openai.ToolTypeFunction,
				Function: openai.ToolFunction{
					Name: "submit_questions",
				},
			},
		},
	)
	if err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from model")
	}
	choice := resp.Choices[0]
	if len(choice.Message.ToolCalls) == 0 {
		return nil, fmt.Errorf("no tool calls in response")
	}
	toolCall := choice.Message.ToolCalls[0]
	if toolCall.Function.Name != "submit_questions" {
		return nil, fmt.Errorf("unexpected tool call: %s", toolCall.Function.Name)
	}

	var toolArgs struct {
		Questions []struct {
			Question    string   `json:"question"`
			Options     []string `json:"options"`
			Correct     int      `json:"correct"`
			Explanation string   `json:"explanation"`
		} `json:"questions"`
	}
	if err := json.Unmarshal([]byte(toolCall.Function.Arguments), &toolArgs); err != nil {
		return nil, fmt.Errorf("failed to parse tool arguments: %w", err)
	}

	questions := make([]Question, 0, len(toolArgs.Questions))
	for _, q := range toolArgs.Questions {
		questions = append(questions, Question{
			ModuleName:  req.ModuleName,
			Question:    q.Question,
			Options:     q.Options,
			Correct:     q.Correct,
			Explanation: q.Explanation,
		})
	}
	return questions, nil
}

func (g *ModuleGenerator) buildPrompt(req GenerationRequest, batchSize int) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Generate %d multiple choice questions for a quiz module named: %s\n\n", batchSize, req.ModuleName))

	if req.SourceMaterial != "" {
		sb.WriteString("Use the following source material as reference:\n")
		sb.WriteString(req.SourceMaterial)
		sb.WriteString("\n\n")
	}

	if req.Difficulty != "" {
		sb.WriteString(fmt.Sprintf("Difficulty level: %s\n\n", req.Difficulty))
	}

	sb.WriteString("Requirements:\n")
	sb.WriteString("- Each question must have exactly 4 multiple choice options\n")
	sb.WriteString("- The correct answer should be non-obvious but clearly correct\n")
	sb.WriteString("- Incorrect options should be plausible but clearly wrong\n")
	sb.WriteString("- Questions should test understanding, not just memorization\n")
	sb.WriteString("- Provide a brief explanation for why the correct answer is right\n")
	sb.WriteString("- Use the submit_questions tool to return your questions\n")

	return sb.String()
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
