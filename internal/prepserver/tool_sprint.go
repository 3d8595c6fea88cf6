package prepserver

import (
	"context"
	"errors"

	"github.com/dkorolev/go_prep/internal/tracker"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerStudySprintGenerate(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "study_sprint_generate",
		Description: "Generate a day-by-day study sprint for an upcoming interview. Provide the target role, optionally company, focus area (dsa, system design, behavioral, balanced), duration in days, and free-text context (weak areas, JD excerpt). The sprint is persisted and returned.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input tracker.SprintInput) (*mcp.CallToolResult, *tracker.Sprint, error) {
		tracker.IncrToolCalls()
		if input.Role == "" {
			return nil, nil, errors.New("role is required")
		}
		sprint, err := tracker.GenerateStudySprint(ctx, input)
		if err != nil {
			return nil, nil, err
		}
		return nil, sprint, nil
	})
}

func registerStudySprintList(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "study_sprint_list",
		Description: "List previously generated study sprints, newest first.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input tracker.SprintListInput) (*mcp.CallToolResult, *tracker.SprintListResult, error) {
		tracker.IncrToolCalls()
		result, err := tracker.ListStudySprints(ctx, input)
		if err != nil {
			return nil, nil, err
		}
		return nil, result, nil
	})
}
