package prepserver

import (
	"context"
	"errors"

	"github.com/dkorolev/go_prep/internal/tracker"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerApplicationAdd(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "application_add",
		Description: "Track a new job application. Status options: applied (default), shortlisted, interview, offer, rejected. Role is optional; a placeholder is stored until the real role is known. Returns the assigned ID for future updates.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input tracker.ApplicationAddInput) (*mcp.CallToolResult, *tracker.ApplicationResult, error) {
		tracker.IncrToolCalls()
		if input.Company == "" {
			return nil, nil, errors.New("company is required")
		}
		result, err := tracker.AddApplication(ctx, input)
		if err != nil {
			return nil, nil, err
		}
		return nil, result, nil
	})
}

func registerApplicationList(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "application_list",
		Description: "List tracked job applications with their interview rounds. Optionally filter by status: applied, shortlisted, interview, offer, rejected. Returns applications sorted by most recently updated.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input tracker.ApplicationListInput) (*mcp.CallToolResult, *tracker.ApplicationListResult, error) {
		tracker.IncrToolCalls()
		result, err := tracker.ListApplications(ctx, input)
		if err != nil {
			return nil, nil, err
		}
		return nil, result, nil
	})
}

func registerApplicationUpdate(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "application_update",
		Description: "Update status, role or notes for a tracked application by ID. Get IDs from application_list. To record interview rounds, prefer interview_rounds_set.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input tracker.ApplicationUpdateInput) (*mcp.CallToolResult, *tracker.ApplicationResult, error) {
		tracker.IncrToolCalls()
		if input.ID == "" {
			return nil, nil, errors.New("id is required")
		}
		result, err := tracker.UpdateApplicationFields(ctx, input)
		if err != nil {
			return nil, nil, err
		}
		return nil, result, nil
	})
}
