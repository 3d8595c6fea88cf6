package prepserver

import (
	"context"
	"errors"

	"github.com/dkorolev/go_prep/internal/tracker"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerSnapshotExport(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "snapshot_export",
		Description: "Export the full tracker dataset (applications, rounds, sprints, question bank) as a versioned backup snapshot.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, *tracker.Snapshot, error) {
		tracker.IncrToolCalls()
		snap, err := tracker.ExportSnapshot(ctx)
		if err != nil {
			return nil, nil, err
		}
		return nil, snap, nil
	})
}

func registerSnapshotImport(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "snapshot_import",
		Description: "Import a backup snapshot produced by snapshot_export, replacing the entire dataset. The snapshot is validated strictly (version, unknown fields, round uniqueness) before anything is written.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input tracker.SnapshotImportInput) (*mcp.CallToolResult, *tracker.SnapshotImportResult, error) {
		tracker.IncrToolCalls()
		if input.Data == "" {
			return nil, nil, errors.New("data is required")
		}
		result, err := tracker.ImportSnapshot(ctx, input)
		if err != nil {
			return nil, nil, err
		}
		return nil, result, nil
	})
}
