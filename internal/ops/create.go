package ops

import (
	"context"

	"github.com/lattice-kb/lattice/internal/node"
)

// CreateNoteInput contains parameters for the CreateNote operation.
type CreateNoteInput struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	IsPublic bool   `json:"is_public,omitempty"`
}

// CreateNote persists a new note and indexes it.
func CreateNote(env *Env, input CreateNoteInput) (*node.Node, error) {
	n, err := node.NewNote(input.Title, input.Content)
	if err != nil {
		return nil, err
	}
	n.IsPublic = input.IsPublic
	return saveAndIndex(env, n)
}

// CreateLinkInput contains parameters for the CreateLink operation.
type CreateLinkInput struct {
	Title    string `json:"title,omitempty"`
	URL      string `json:"url"`
	IsPublic bool   `json:"is_public,omitempty"`

	// Crawl asks the configured crawler to populate the crawled block before
	// saving. Ignored when no crawler is wired; a crawl failure is ignored
	// and the link saved bare.
	Crawl bool `json:"crawl,omitempty"`
}

// CreateLink persists a new link, optionally crawling its URL first, and
// indexes it.
func CreateLink(ctx context.Context, env *Env, input CreateLinkInput) (*node.Node, error) {
	var crawled node.CrawledPage
	if input.Crawl && env.Crawler != nil {
		if page, err := env.Crawler.Crawl(ctx, input.URL); err == nil {
			crawled = page
		}
	}

	n, err := node.NewLink(input.Title, input.URL, crawled)
	if err != nil {
		return nil, err
	}
	n.IsPublic = input.IsPublic
	return saveAndIndex(env, n)
}

// CreateTagInput contains parameters for the CreateTag operation.
type CreateTagInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsPublic    bool   `json:"is_public,omitempty"`
}

// CreateTag persists a new tag and indexes it.
func CreateTag(env *Env, input CreateTagInput) (*node.Node, error) {
	n, err := node.NewTag(input.Name, input.Description)
	if err != nil {
		return nil, err
	}
	n.IsPublic = input.IsPublic
	return saveAndIndex(env, n)
}

// CreateCardInput contains parameters for the CreateCard operation.
type CreateCardInput struct {
	Front string `json:"front"`
	Back  string `json:"back"`

	// SourceID optionally links the new card derived_from its source node.
	SourceID string `json:"source_id,omitempty"`
}

// CreateCard persists a new flashcard, indexes it, and links it to its
// source when one is given.
func CreateCard(env *Env, input CreateCardInput) (*node.Node, error) {
	n, err := node.NewFlashcard(input.Front, input.Back)
	if err != nil {
		return nil, err
	}
	n, err = saveAndIndex(env, n)
	if err != nil {
		return nil, err
	}

	if input.SourceID != "" {
		// Cards point at their source, not vice versa.
		if _, err := env.Graph.Link(n.ID, input.SourceID, node.RelDerivedFrom, false); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// saveAndIndex persists a freshly built node and pushes it into the search
// index. Indexing after every create is a caller obligation of the core.
func saveAndIndex(env *Env, n *node.Node) (*node.Node, error) {
	if err := env.Store.Save(n); err != nil {
		return nil, err
	}
	if err := env.Index.IndexNode(n); err != nil {
		return nil, err
	}
	return n, nil
}
