// Package prepserver registers the interview-prep tracker's MCP tools.
// One file per tool group, in the pattern tool_<name>.go.
package prepserver

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterTools registers all tracker tools on the given MCP server:
// applications, interview rounds, study sprints, question bank, snapshots.
func RegisterTools(server *mcp.Server) {
	registerApplicationAdd(server)
	registerApplicationList(server)
	registerApplicationUpdate(server)
	registerInterviewRoundsSet(server)
	registerStudySprintGenerate(server)
	registerStudySprintList(server)
	registerQuestionBankAdd(server)
	registerQuestionBankList(server)
	registerSnapshotExport(server)
	registerSnapshotImport(server)
}
