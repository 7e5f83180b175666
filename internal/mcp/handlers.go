package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/lattice-kb/lattice/internal/errors"
	"github.com/lattice-kb/lattice/internal/node"
	"github.com/lattice-kb/lattice/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	env *ops.Env
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(env *ops.Env) *Handlers {
	return &Handlers{env: env}
}

// Request types for each tool

// NoteCreateRequest represents the arguments for note_create.
type NoteCreateRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content,omitempty"`
	IsPublic bool   `json:"is_public,omitempty"`
}

// LinkCreateRequest represents the arguments for link_create.
type LinkCreateRequest struct {
	URL      string `json:"url"`
	Title    string `json:"title,omitempty"`
	Crawl    bool   `json:"crawl,omitempty"`
	IsPublic bool   `json:"is_public,omitempty"`
}

// TagCreateRequest represents the arguments for tag_create.
type TagCreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsPublic    bool   `json:"is_public,omitempty"`
}

// CardCreateRequest represents the arguments for card_create.
type CardCreateRequest struct {
	Front    string `json:"front"`
	Back     string `json:"back"`
	SourceID string `json:"source_id,omitempty"`
}

// CardGenerateRequest represents the arguments for card_generate.
type CardGenerateRequest struct {
	SourceID string `json:"source_id,omitempty"`
	Text     string `json:"text,omitempty"`
}

// NodeGetRequest represents the arguments for node_get.
type NodeGetRequest struct {
	ID              string `json:"id"`
	ExpandRelations bool   `json:"expand_relations,omitempty"`
}

// NodeListRequest represents the arguments for node_list.
type NodeListRequest struct {
	Kind       *node.Kind `json:"kind,omitempty"`
	PublicOnly bool       `json:"public_only,omitempty"`
}

// NodeUpdateRequest represents the arguments for node_update.
type NodeUpdateRequest struct {
	ID          string  `json:"id"`
	Title       *string `json:"title,omitempty"`
	IsPublic    *bool   `json:"is_public,omitempty"`
	Content     *string `json:"content,omitempty"`
	URL         *string `json:"url,omitempty"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Front       *string `json:"front,omitempty"`
	Back        *string `json:"back,omitempty"`
}

// NodeDeleteRequest represents the arguments for node_delete.
type NodeDeleteRequest struct {
	ID string `json:"id"`
}

// NodeLinkRequest represents the arguments for node_link.
type NodeLinkRequest struct {
	FromID        string        `json:"from_id"`
	ToID          string        `json:"to_id"`
	Type          *node.RelType `json:"type,omitempty"`
	Bidirectional *bool         `json:"is_bidirectional,omitempty"`
}

// SearchRequest represents the arguments for search.
type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// CardDueRequest represents the arguments for card_due.
type CardDueRequest struct {
	AsOf  string `json:"as_of,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

// CardReviewRequest represents the arguments for card_review.
type CardReviewRequest struct {
	ID      string `json:"id"`
	Quality int    `json:"quality"`
}

// CardGradeRequest represents the arguments for card_grade.
type CardGradeRequest struct {
	ID     string `json:"id"`
	Answer string `json:"answer"`
}

// SitePublishRequest represents the arguments for site_publish.
type SitePublishRequest struct {
	Dir string `json:"dir,omitempty"`
}

// Handler implementations

// HandleNoteCreate handles the note_create tool call.
func (h *Handlers) HandleNoteCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[NoteCreateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.CreateNote(h.env, ops.CreateNoteInput{
		Title:    input.Title,
		Content:  input.Content,
		IsPublic: input.IsPublic,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleLinkCreate handles the link_create tool call.
func (h *Handlers) HandleLinkCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[LinkCreateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.CreateLink(ctx, h.env, ops.CreateLinkInput{
		Title:    input.Title,
		URL:      input.URL,
		Crawl:    input.Crawl,
		IsPublic: input.IsPublic,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleTagCreate handles the tag_create tool call.
func (h *Handlers) HandleTagCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TagCreateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.CreateTag(h.env, ops.CreateTagInput{
		Name:        input.Name,
		Description: input.Description,
		IsPublic:    input.IsPublic,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleCardCreate handles the card_create tool call.
func (h *Handlers) HandleCardCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CardCreateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.CreateCard(h.env, ops.CreateCardInput{
		Front:    input.Front,
		Back:     input.Back,
		SourceID: input.SourceID,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleCardGenerate handles the card_generate tool call.
func (h *Handlers) HandleCardGenerate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CardGenerateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.GenerateCards(ctx, h.env, ops.GenerateCardsInput{
		SourceID: input.SourceID,
		Text:     input.Text,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleNodeGet handles the node_get tool call.
func (h *Handlers) HandleNodeGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[NodeGetRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.GetNode(h.env, ops.GetNodeInput{
		ID:              input.ID,
		ExpandRelations: input.ExpandRelations,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleNodeList handles the node_list tool call.
func (h *Handlers) HandleNodeList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[NodeListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ListNodes(h.env, ops.ListNodesInput{
		Kind:       input.Kind,
		PublicOnly: input.PublicOnly,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleNodeUpdate handles the node_update tool call.
func (h *Handlers) HandleNodeUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[NodeUpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.UpdateNode(h.env, ops.UpdateNodeInput{
		ID:          input.ID,
		Title:       input.Title,
		IsPublic:    input.IsPublic,
		Content:     input.Content,
		URL:         input.URL,
		Name:        input.Name,
		Description: input.Description,
		Front:       input.Front,
		Back:        input.Back,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleNodeDelete handles the node_delete tool call.
func (h *Handlers) HandleNodeDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[NodeDeleteRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.DeleteNode(h.env, ops.DeleteNodeInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleNodeLink handles the node_link tool call.
func (h *Handlers) HandleNodeLink(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[NodeLinkRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.LinkNodes(h.env, ops.LinkNodesInput{
		FromID:        input.FromID,
		ToID:          input.ToID,
		Type:          input.Type,
		Bidirectional: input.Bidirectional,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSearch handles the search tool call.
func (h *Handlers) HandleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SearchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.SearchNodes(h.env, ops.SearchNodesInput{
		Query: input.Query,
		Limit: input.Limit,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleCardDue handles the card_due tool call.
func (h *Handlers) HandleCardDue(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CardDueRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	var asOf *time.Time
	if input.AsOf != "" {
		t, err := time.Parse(time.RFC3339, input.AsOf)
		if err != nil {
			return errorResult(errors.NewInvalidRequest(fmt.Sprintf("as_of must be RFC 3339: %v", err))), nil
		}
		asOf = &t
	}

	result, err := ops.DueCards(h.env, ops.DueCardsInput{
		AsOf:  asOf,
		Limit: input.Limit,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleCardReview handles the card_review tool call.
func (h *Handlers) HandleCardReview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CardReviewRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ReviewCard(h.env, ops.ReviewCardInput{
		ID:      input.ID,
		Quality: input.Quality,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleCardGrade handles the card_grade tool call.
func (h *Handlers) HandleCardGrade(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CardGradeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.GradeAnswer(ctx, h.env, ops.GradeAnswerInput{
		ID:     input.ID,
		Answer: input.Answer,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSitePublish handles the site_publish tool call.
func (h *Handlers) HandleSitePublish(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SitePublishRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.PublishSite(h.env, ops.PublishSiteInput{Dir: input.Dir})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if lerr, ok := err.(*errors.LatticeError); ok {
		errorObj := map[string]any{
			"code":    lerr.Code,
			"message": lerr.Message,
			"status":  lerr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if lerr.Code != errors.ErrInternal && lerr.Details != nil {
			errorObj["details"] = lerr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
