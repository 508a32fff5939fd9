// Package server wires the MCP command processor: it builds the server
// instance and registers the static tool table. No business logic lives
// here, only wiring.
package server

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/asynkron/liveview/internal/chat"
	"github.com/asynkron/liveview/internal/store"
	"github.com/asynkron/liveview/internal/tools"
	"github.com/asynkron/liveview/internal/version"
)

// New creates the MCP server with every tool registered. The registration
// table is built once at startup; dispatch afterwards is by name lookup,
// no reflection.
func New(st *store.Store, chatLog *chat.Log, baseURL string) *server.MCPServer {
	s := server.NewMCPServer(
		"liveview",
		version.Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	showTool := tools.NewShowContentTool(st)
	s.AddTool(showTool.Definition(), showTool.Handle)

	listTool := tools.NewListContentTool(st)
	s.AddTool(listTool.Definition(), listTool.Handle)

	viewTool := tools.NewViewContentTool(st)
	s.AddTool(viewTool.Definition(), viewTool.Handle)

	updateTool := tools.NewUpdateContentTool(st)
	s.AddTool(updateTool.Definition(), updateTool.Handle)

	removeTool := tools.NewRemoveContentTool(st)
	s.AddTool(removeTool.Definition(), removeTool.Handle)

	infoTool := tools.NewChatStreamInfoTool(baseURL)
	s.AddTool(infoTool.Definition(), infoTool.Handle)

	subscribeTool := tools.NewSubscribeChatStreamTool(baseURL)
	s.AddTool(subscribeTool.Definition(), subscribeTool.Handle)

	messagesTool := tools.NewGetChatMessagesTool(chatLog)
	s.AddTool(messagesTool.Definition(), messagesTool.Handle)

	return s
}

func serverInstructions() string {
	return "This server manages a live markdown view. Use show_content to create " +
		"entries, update_content to change them, and remove_content to delete them. " +
		"Chat messages from the viewer UI can be read with get_chat_messages or " +
		"streamed via the endpoints reported by get_chat_stream_info."
}
