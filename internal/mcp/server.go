package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/lattice-kb/lattice/internal/ops"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"note_create": {
		def:     noteCreateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleNoteCreate },
	},
	"link_create": {
		def:     linkCreateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleLinkCreate },
	},
	"tag_create": {
		def:     tagCreateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTagCreate },
	},
	"card_create": {
		def:     cardCreateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCardCreate },
	},
	"card_generate": {
		def:     cardGenerateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCardGenerate },
	},
	"node_get": {
		def:     nodeGetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleNodeGet },
	},
	"node_list": {
		def:     nodeListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleNodeList },
	},
	"node_update": {
		def:     nodeUpdateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleNodeUpdate },
	},
	"node_delete": {
		def:     nodeDeleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleNodeDelete },
	},
	"node_link": {
		def:     nodeLinkToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleNodeLink },
	},
	"search": {
		def:     searchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSearch },
	},
	"card_due": {
		def:     cardDueToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCardDue },
	},
	"card_review": {
		def:     cardReviewToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCardReview },
	},
	"card_grade": {
		def:     cardGradeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCardGrade },
	},
	"site_publish": {
		def:     sitePublishToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSitePublish },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates a new MCP server with Lattice tools registered.
// Tools listed in the config's DisabledTools are excluded from registration.
func NewServer(env *ops.Env, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"lattice",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(env)

	disabled := make(map[string]bool)
	for _, name := range env.Cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(env *ops.Env, version string) error {
	s := NewServer(env, version)
	return server.ServeStdio(s)
}

// ToolHandlerFunc is the signature for tool handlers.
type ToolHandlerFunc func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
