package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/asynkron/liveview/internal/chat"
)

// ChatStreamInfoTool handles the get_chat_stream_info MCP tool: describe the
// streaming endpoints a client can attach to.
type ChatStreamInfoTool struct {
	baseURL string
}

// NewChatStreamInfoTool creates a ChatStreamInfoTool advertising baseURL.
func NewChatStreamInfoTool(baseURL string) *ChatStreamInfoTool {
	return &ChatStreamInfoTool{baseURL: baseURL}
}

// Definition returns the MCP tool definition for registration.
func (t *ChatStreamInfoTool) Definition() mcp.Tool {
	return mcp.NewTool("get_chat_stream_info",
		mcp.WithDescription("Get the streaming endpoints for receiving chat messages in real time"),
	)
}

// Handle processes the get_chat_stream_info tool call.
func (t *ChatStreamInfoTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	count("get_chat_stream_info")

	return mcp.NewToolResultText(fmt.Sprintf(
		"Chat streaming endpoints:\n"+
			"- SSE (GET): %s/mcp/chat/subscribe — event-stream with heartbeat comments\n"+
			"- NDJSON (POST): %s/mcp/stream/chat — one JSON record per line, chunked\n"+
			"Both replay the buffered chat history before live messages resume.",
		t.baseURL, t.baseURL,
	)), nil
}

// SubscribeChatStreamTool handles the subscribe_chat_stream MCP tool.
type SubscribeChatStreamTool struct {
	baseURL string
}

// NewSubscribeChatStreamTool creates a SubscribeChatStreamTool advertising baseURL.
func NewSubscribeChatStreamTool(baseURL string) *SubscribeChatStreamTool {
	return &SubscribeChatStreamTool{baseURL: baseURL}
}

// Definition returns the MCP tool definition for registration.
func (t *SubscribeChatStreamTool) Definition() mcp.Tool {
	return mcp.NewTool("subscribe_chat_stream",
		mcp.WithDescription("Subscribe to receive chat messages from the UI. "+
			"After subscribing, use get_chat_messages to poll for new messages."),
	)
}

// Handle processes the subscribe_chat_stream tool call.
func (t *SubscribeChatStreamTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	count("subscribe_chat_stream")

	return mcp.NewToolResultText(
		"Successfully subscribed to chat messages. Use the 'get_chat_messages' tool to poll " +
			"for new messages from the UI, or attach to " + t.baseURL + "/mcp/chat/subscribe " +
			"for push delivery. Messages carry sequence numbers, so you can track which ones " +
			"you've already processed.",
	), nil
}

// GetChatMessagesTool handles the get_chat_messages MCP tool: bounded pull
// of the buffered chat history.
type GetChatMessagesTool struct {
	chat *chat.Log
}

// NewGetChatMessagesTool creates a GetChatMessagesTool backed by the chat log.
func NewGetChatMessagesTool(log *chat.Log) *GetChatMessagesTool {
	return &GetChatMessagesTool{chat: log}
}

// Definition returns the MCP tool definition for registration.
func (t *GetChatMessagesTool) Definition() mcp.Tool {
	return mcp.NewTool("get_chat_messages",
		mcp.WithDescription("Get recent chat messages from the UI. Returns messages after a given sequence number."),
		mcp.WithNumber("since",
			mcp.Description("Only return messages with a sequence number greater than this. If not provided, returns all buffered messages."),
		),
	)
}

// Handle processes the get_chat_messages tool call.
func (t *GetChatMessagesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	count("get_chat_messages")

	since := req.GetFloat("since", 0)
	if since < 0 {
		return mcp.NewToolResultError("invalid params: 'since' must not be negative"), nil
	}

	msgs := t.chat.Since(uint64(since))
	if len(msgs) == 0 {
		return mcp.NewToolResultText("No new chat messages."), nil
	}

	lines := make([]string, len(msgs))
	for i, msg := range msgs {
		ts := time.UnixMilli(msg.Timestamp).Format(time.DateTime)
		lines[i] = fmt.Sprintf("[%s] (seq %d) %s", ts, msg.Seq, msg.Text)
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Found %d chat message(s):\n\n%s", len(msgs), strings.Join(lines, "\n"),
	)), nil
}
