package tools

import (
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/asynkron/liveview/internal/metrics"
	"github.com/asynkron/liveview/internal/store"
)

// storeErrorResult maps store sentinel errors onto tool error results so
// callers see the failure kind instead of a crashed session. Internal faults
// are returned as Go errors and surface as protocol-level errors.
func storeErrorResult(err error) (*mcp.CallToolResult, error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("not found: %v", err)), nil
	case errors.Is(err, store.ErrConflict):
		return mcp.NewToolResultError(fmt.Sprintf("conflict: %v", err)), nil
	case errors.Is(err, store.ErrEmptyContent):
		return mcp.NewToolResultError(fmt.Sprintf("invalid params: %v", err)), nil
	default:
		return nil, err
	}
}

// count records one call of the named tool.
func count(tool string) {
	metrics.ToolCalls.WithLabelValues(tool).Inc()
}
