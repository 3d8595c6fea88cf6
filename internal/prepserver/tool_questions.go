package prepserver

import (
	"context"
	"errors"

	"github.com/dkorolev/go_prep/internal/tracker"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerQuestionBankAdd(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "question_bank_add",
		Description: "Save an interview question to the question bank, with optional topic, model answer, and source (e.g. the company or round where it was asked).",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input tracker.QuestionAddInput) (*mcp.CallToolResult, *tracker.ApplicationResult, error) {
		tracker.IncrToolCalls()
		if input.Question == "" {
			return nil, nil, errors.New("question is required")
		}
		result, err := tracker.AddBankQuestion(ctx, input)
		if err != nil {
			return nil, nil, err
		}
		return nil, result, nil
	})
}

func registerQuestionBankList(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "question_bank_list",
		Description: "List question bank entries, optionally filtered by topic. Returns newest first.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input tracker.QuestionListInput) (*mcp.CallToolResult, *tracker.QuestionListResult, error) {
		tracker.IncrToolCalls()
		result, err := tracker.ListBankQuestions(ctx, input)
		if err != nil {
			return nil, nil, err
		}
		return nil, result, nil
	})
}
