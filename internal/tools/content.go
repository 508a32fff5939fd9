package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/asynkron/liveview/internal/store"
)

// ShowContentTool handles the show_content MCP tool: create a new markdown
// entry that appears in the live view.
type ShowContentTool struct {
	store *store.Store
}

// NewShowContentTool creates a ShowContentTool backed by the store.
func NewShowContentTool(st *store.Store) *ShowContentTool {
	return &ShowContentTool{store: st}
}

// Definition returns the MCP tool definition for registration.
func (t *ShowContentTool) Definition() mcp.Tool {
	return mcp.NewTool("show_content",
		mcp.WithDescription("Create new markdown content that appears in the live view"),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Markdown content to create"),
		),
		mcp.WithString("title",
			mcp.Description("Optional descriptive title included in responses"),
		),
	)
}

// Handle processes the show_content tool call.
func (t *ShowContentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	count("show_content")

	content := req.GetString("content", "")
	title := req.GetString("title", "")
	if content == "" {
		return mcp.NewToolResultError("invalid params: 'content' is required"), nil
	}

	doc, err := t.store.Create(content)
	if err != nil {
		return storeErrorResult(err)
	}

	displayTitle := ""
	if title != "" {
		displayTitle = fmt.Sprintf(" '%s'", title)
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Created new markdown%s entry.\nFile Id: %s", displayTitle, doc.ID,
	)), nil
}

// ListContentTool handles the list_content MCP tool.
type ListContentTool struct {
	store *store.Store
}

// NewListContentTool creates a ListContentTool backed by the store.
func NewListContentTool(st *store.Store) *ListContentTool {
	return &ListContentTool{store: st}
}

// Definition returns the MCP tool definition for registration.
func (t *ListContentTool) Definition() mcp.Tool {
	return mcp.NewTool("list_content",
		mcp.WithDescription("List every markdown entry managed by the server"),
	)
}

// Handle processes the list_content tool call.
func (t *ListContentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	count("list_content")

	docs := t.store.Snapshot()
	if len(docs) == 0 {
		return mcp.NewToolResultText("No markdown entries found."), nil
	}

	lines := make([]string, len(docs))
	for i, doc := range docs {
		lines[i] = fmt.Sprintf("%s (%d bytes, revision %d, modified: %s)",
			doc.ID, doc.Size(), doc.Revision, doc.UpdatedAt.Format(time.DateTime))
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Found %d markdown entries:\n\n%s", len(docs), strings.Join(lines, "\n"),
	)), nil
}

// ViewContentTool handles the view_content MCP tool.
type ViewContentTool struct {
	store *store.Store
}

// NewViewContentTool creates a ViewContentTool backed by the store.
func NewViewContentTool(st *store.Store) *ViewContentTool {
	return &ViewContentTool{store: st}
}

// Definition returns the MCP tool definition for registration.
func (t *ViewContentTool) Definition() mcp.Tool {
	return mcp.NewTool("view_content",
		mcp.WithDescription("Read markdown content using a File Id"),
		mcp.WithString("fileId",
			mcp.Required(),
			mcp.Description("The File Id that was returned when the content was created"),
		),
	)
}

// Handle processes the view_content tool call.
func (t *ViewContentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	count("view_content")

	fileID := req.GetString("fileId", "")
	if fileID == "" {
		return mcp.NewToolResultError("invalid params: 'fileId' is required"), nil
	}

	doc, err := t.store.Get(fileID)
	if err != nil {
		return storeErrorResult(err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("Content of '%s':\n\n%s", doc.ID, doc.Content)), nil
}

// UpdateContentTool handles the update_content MCP tool.
type UpdateContentTool struct {
	store *store.Store
}

// NewUpdateContentTool creates an UpdateContentTool backed by the store.
func NewUpdateContentTool(st *store.Store) *UpdateContentTool {
	return &UpdateContentTool{store: st}
}

// Definition returns the MCP tool definition for registration.
func (t *UpdateContentTool) Definition() mcp.Tool {
	return mcp.NewTool("update_content",
		mcp.WithDescription("Append to or replace existing markdown content"),
		mcp.WithString("fileId",
			mcp.Required(),
			mcp.Description("The File Id returned from show_content"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Markdown content to append or use when replacing"),
		),
		mcp.WithString("mode",
			mcp.Description("Whether to append to or replace the file content"),
			mcp.DefaultString("append"),
			mcp.Enum("append", "replace"),
		),
	)
}

// Handle processes the update_content tool call.
func (t *UpdateContentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	count("update_content")

	fileID := req.GetString("fileId", "")
	content := req.GetString("content", "")
	mode := req.GetString("mode", "append")

	if fileID == "" {
		return mcp.NewToolResultError("invalid params: 'fileId' is required"), nil
	}
	if content == "" {
		return mcp.NewToolResultError("invalid params: 'content' is required"), nil
	}
	if mode != "append" && mode != "replace" {
		return mcp.NewToolResultError("invalid params: 'mode' must be 'append' or 'replace'"), nil
	}

	var err error
	action := "appended to"
	if mode == "replace" {
		_, err = t.store.Update(fileID, content, nil)
		action = "replaced"
	} else {
		_, err = t.store.Append(fileID, content, nil)
	}
	if err != nil {
		return storeErrorResult(err)
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Successfully %s file '%s'.", action, store.SanitizeID(fileID),
	)), nil
}

// RemoveContentTool handles the remove_content MCP tool.
type RemoveContentTool struct {
	store *store.Store
}

// NewRemoveContentTool creates a RemoveContentTool backed by the store.
func NewRemoveContentTool(st *store.Store) *RemoveContentTool {
	return &RemoveContentTool{store: st}
}

// Definition returns the MCP tool definition for registration.
func (t *RemoveContentTool) Definition() mcp.Tool {
	return mcp.NewTool("remove_content",
		mcp.WithDescription("Delete markdown content using its File Id"),
		mcp.WithString("fileId",
			mcp.Required(),
			mcp.Description("The File Id returned from show_content"),
		),
	)
}

// Handle processes the remove_content tool call.
func (t *RemoveContentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	count("remove_content")

	fileID := req.GetString("fileId", "")
	if fileID == "" {
		return mcp.NewToolResultError("invalid params: 'fileId' is required"), nil
	}

	if err := t.store.Delete(fileID); err != nil {
		return storeErrorResult(err)
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Successfully deleted file '%s'.", store.SanitizeID(fileID),
	)), nil
}
