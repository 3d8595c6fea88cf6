package prepserver

import (
	"context"
	"errors"

	"github.com/dkorolev/go_prep/internal/tracker"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerInterviewRoundsSet(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name: "interview_rounds_set",
		Description: "Set or update interview rounds from loosely specified instructions. Each update needs a scheduled_date (ISO, 'tomorrow', 'next friday', 'in 3 days', '14th feb', ...) and identifies the application by id, company and/or role; follow-up updates in the same batch may omit all three to target the application just touched. Round type is free text ('tech 2', 'sys design', 'hiring manager', 'take home'); notes merge instead of overwriting. Returns per-update results; failures never abort the batch.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input tracker.RoundsBatchInput) (*mcp.CallToolResult, *tracker.BatchResult, error) {
		tracker.IncrToolCalls()
		if len(input.Updates) == 0 {
			return nil, nil, errors.New("updates must contain at least one entry")
		}
		result, err := tracker.SetInterviewRounds(ctx, input)
		if err != nil {
			return nil, nil, err
		}
		return nil, result, nil
	})
}
