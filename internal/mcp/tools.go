package mcp

import "github.com/mark3labs/mcp-go/mcp"

// Tool definitions. Names follow the pattern "type_action" so whole types can
// be disabled at once from config.

var noteCreateToolDef = mcp.NewTool("note_create",
	mcp.WithDescription("Create a markdown note"),
	mcp.WithString("title", mcp.Required(), mcp.Description("Note title")),
	mcp.WithString("content", mcp.Description("Markdown body")),
	mcp.WithBoolean("is_public", mcp.Description("Include the note in the published site")),
)

var linkCreateToolDef = mcp.NewTool("link_create",
	mcp.WithDescription("Create a bookmarked link, optionally crawling the page for searchable text"),
	mcp.WithString("url", mcp.Required(), mcp.Description("Target URL")),
	mcp.WithString("title", mcp.Description("Explicit title; falls back to the crawled page title, then the URL")),
	mcp.WithBoolean("crawl", mcp.Description("Fetch the page and store its extracted text")),
	mcp.WithBoolean("is_public", mcp.Description("Include the link in the published site")),
)

var tagCreateToolDef = mcp.NewTool("tag_create",
	mcp.WithDescription("Create a tag"),
	mcp.WithString("name", mcp.Required(), mcp.Description("Tag name, unique")),
	mcp.WithString("description", mcp.Description("What the tag covers")),
	mcp.WithBoolean("is_public", mcp.Description("Include the tag in the published site")),
)

var cardCreateToolDef = mcp.NewTool("card_create",
	mcp.WithDescription("Create a flashcard, optionally linked to its source node"),
	mcp.WithString("front", mcp.Required(), mcp.Description("Question side")),
	mcp.WithString("back", mcp.Required(), mcp.Description("Answer side")),
	mcp.WithString("source_id", mcp.Description("Node the card was derived from")),
)

var cardGenerateToolDef = mcp.NewTool("card_generate",
	mcp.WithDescription("Generate flashcards from a node's content or from raw text"),
	mcp.WithString("source_id", mcp.Description("Node to generate cards from; cards are linked back to it")),
	mcp.WithString("text", mcp.Description("Raw text to generate cards from instead of a node")),
)

var nodeGetToolDef = mcp.NewTool("node_get",
	mcp.WithDescription("Fetch one node by id"),
	mcp.WithString("id", mcp.Required(), mcp.Description("Node id")),
	mcp.WithBoolean("expand_relations", mcp.Description("Include the node's neighbors")),
)

var nodeListToolDef = mcp.NewTool("node_list",
	mcp.WithDescription("List nodes, optionally filtered by kind"),
	mcp.WithString("kind", mcp.Description("One of: note, link, tag, flashcard")),
	mcp.WithBoolean("public_only", mcp.Description("Keep only nodes marked public")),
)

var nodeUpdateToolDef = mcp.NewTool("node_update",
	mcp.WithDescription("Patch a node; only supplied fields change and the version is bumped"),
	mcp.WithString("id", mcp.Required(), mcp.Description("Node id")),
	mcp.WithString("title", mcp.Description("New explicit title")),
	mcp.WithBoolean("is_public", mcp.Description("New visibility")),
	mcp.WithString("content", mcp.Description("Note body")),
	mcp.WithString("url", mcp.Description("Link URL")),
	mcp.WithString("name", mcp.Description("Tag name")),
	mcp.WithString("description", mcp.Description("Tag description")),
	mcp.WithString("front", mcp.Description("Flashcard front")),
	mcp.WithString("back", mcp.Description("Flashcard back")),
)

var nodeDeleteToolDef = mcp.NewTool("node_delete",
	mcp.WithDescription("Delete a node, its index entry, and any edges touching it"),
	mcp.WithString("id", mcp.Required(), mcp.Description("Node id")),
)

var nodeLinkToolDef = mcp.NewTool("node_link",
	mcp.WithDescription("Create an edge between two nodes"),
	mcp.WithString("from_id", mcp.Required(), mcp.Description("Source node id")),
	mcp.WithString("to_id", mcp.Required(), mcp.Description("Target node id")),
	mcp.WithString("type", mcp.Description("One of: related_to, contains, tagged_with, derived_from; defaults by endpoint kinds")),
	mcp.WithBoolean("is_bidirectional", mcp.Description("Whether the edge reads both ways")),
)

var searchToolDef = mcp.NewTool("search",
	mcp.WithDescription("Full-text search across all nodes, title matches ranked first"),
	mcp.WithString("query", mcp.Required(), mcp.Description("Search terms; empty returns nothing")),
	mcp.WithNumber("limit", mcp.Description("Maximum hits, capped by config")),
)

var cardDueToolDef = mcp.NewTool("card_due",
	mcp.WithDescription("List flashcards due for review, most overdue first"),
	mcp.WithString("as_of", mcp.Description("RFC 3339 instant; defaults to now")),
	mcp.WithNumber("limit", mcp.Description("Maximum cards to return")),
)

var cardReviewToolDef = mcp.NewTool("card_review",
	mcp.WithDescription("Record a review of a flashcard and reschedule it"),
	mcp.WithString("id", mcp.Required(), mcp.Description("Flashcard id")),
	mcp.WithNumber("quality", mcp.Required(), mcp.Description("Recall quality from 0 (blackout) to 5 (perfect)")),
)

var cardGradeToolDef = mcp.NewTool("card_grade",
	mcp.WithDescription("Grade a free-form answer against a flashcard and record the review"),
	mcp.WithString("id", mcp.Required(), mcp.Description("Flashcard id")),
	mcp.WithString("answer", mcp.Required(), mcp.Description("The answer to grade")),
)

var sitePublishToolDef = mcp.NewTool("site_publish",
	mcp.WithDescription("Render every public node into a static site on disk"),
	mcp.WithString("dir", mcp.Description("Output directory; defaults to config")),
)
