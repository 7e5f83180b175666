package node

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/lattice-kb/lattice/internal/errors"
)

// Kind is the fixed variant discriminator of a node. A node keeps the same
// kind for its entire lifetime.
type Kind string

const (
	KindNote      Kind = "note"
	KindLink      Kind = "link"
	KindTag       Kind = "tag"
	KindFlashcard Kind = "flashcard"
)

// Kinds returns the closed set of node kinds. The store verifies its dispatch
// mapping against this at construction time.
func Kinds() []Kind {
	return []Kind{KindNote, KindLink, KindTag, KindFlashcard}
}

// RelType is the closed enumeration of edge types.
type RelType string

const (
	RelRelatedTo   RelType = "related_to"
	RelContains    RelType = "contains"
	RelTaggedWith  RelType = "tagged_with"
	RelDerivedFrom RelType = "derived_from"
)

// RelTypes returns the closed set of relation types.
func RelTypes() []RelType {
	return []RelType{RelRelatedTo, RelContains, RelTaggedWith, RelDerivedFrom}
}

// ValidRelType reports whether t is a member of the closed enumeration.
func ValidRelType(t RelType) bool {
	for _, known := range RelTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// Direction describes how an edge relates to the node it was expanded from.
type Direction string

const (
	DirectionFrom Direction = "from" // edge originates at this node
	DirectionTo   Direction = "to"   // edge terminates at this node
	DirectionBoth Direction = "both" // edge is bidirectional
)

// Relation is one entry in a node's expanded neighborhood.
type Relation struct {
	Node      *Node     `json:"node"`
	Type      RelType   `json:"type"`
	Direction Direction `json:"direction"`
}

// Node is a persisted knowledge entity of one fixed variant.
//
// Title holds the explicit, user-assigned title and may be empty; the
// displayable title is always derived through DerivedTitle. Relations is
// populated only when the caller asks the store for relation expansion.
type Node struct {
	// ID is a ULID that uniquely identifies this node; immutable.
	ID string `json:"id"`

	// Kind is the variant tag; immutable.
	Kind Kind `json:"kind"`

	// Title is the explicit title, if one was assigned.
	Title string `json:"title,omitempty"`

	// Version starts at 1 and increments on every persisted mutation.
	Version int `json:"version"`

	// IsPublic marks the node for inclusion in published output.
	IsPublic bool `json:"is_public"`

	// CreatedAt is immutable; UpdatedAt is refreshed on every mutation.
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Detail is the variant-specific payload; exactly one shape per kind.
	Detail Detail `json:"detail"`

	// Relations maps neighbor id to the connecting relation. Empty unless
	// expansion was requested.
	Relations map[string]Relation `json:"relations,omitempty"`
}

// Detail is the capability set shared by all variant payloads.
type Detail interface {
	// Kind returns the variant tag the payload belongs to.
	Kind() Kind

	// DeriveTitle computes the displayable title given the node's explicit
	// title (which may be empty).
	DeriveTitle(explicit string) string

	// SearchText returns the variant-specific content fed to the search index.
	SearchText() string
}

// CrawledPage holds content extracted from a link's URL by an external
// crawler. Empty fields mean the crawler produced nothing for them.
type CrawledPage struct {
	Title string `json:"title,omitempty"`
	Text  string `json:"text,omitempty"`
	HTML  string `json:"html,omitempty"`
}

// Schedule is the SM-2 review state owned by a flashcard.
type Schedule struct {
	DueAt          time.Time  `json:"due_at"`
	IntervalDays   int        `json:"interval_days"`
	EaseFactor     float64    `json:"ease_factor"`
	Repetitions    int        `json:"repetitions"`
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`
}

// Note is a free-form text node with an explicit title.
type Note struct {
	Content string `json:"content"`
}

func (*Note) Kind() Kind { return KindNote }

func (*Note) DeriveTitle(explicit string) string { return explicit }

func (n *Note) SearchText() string { return n.Content }

// Link is a bookmarked URL with optionally crawled page content.
type Link struct {
	URL     string      `json:"url"`
	Crawled CrawledPage `json:"crawled"`
}

func (*Link) Kind() Kind { return KindLink }

// DeriveTitle falls back from the explicit title to the crawled page title to
// the raw URL.
func (l *Link) DeriveTitle(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if l.Crawled.Title != "" {
		return l.Crawled.Title
	}
	return l.URL
}

func (l *Link) SearchText() string { return l.Crawled.Text }

// Tag is a named label nodes can be tagged with.
type Tag struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (*Tag) Kind() Kind { return KindTag }

func (t *Tag) DeriveTitle(string) string { return t.Name }

func (t *Tag) SearchText() string { return t.Name }

// Flashcard is a front/back review card carrying its own SM-2 schedule.
type Flashcard struct {
	Front    string   `json:"front"`
	Back     string   `json:"back"`
	Schedule Schedule `json:"schedule"`
}

func (*Flashcard) Kind() Kind { return KindFlashcard }

func (f *Flashcard) DeriveTitle(string) string { return f.Front }

func (f *Flashcard) SearchText() string { return f.Front + "\n" + f.Back }

// DerivedTitle computes the displayable title per the node's variant.
func (n *Node) DerivedTitle() string {
	return n.Detail.DeriveTitle(n.Title)
}

// NextVersion returns a copy with the version incremented and UpdatedAt
// refreshed. Mutations always go through copies; nodes are never edited in
// place.
func (n Node) NextVersion(now time.Time) Node {
	n.Version++
	n.UpdatedAt = now
	return n
}

// NewNote creates a note node. The title is required: it is the note's only
// stored title.
func NewNote(title, content string) (*Node, error) {
	if title == "" {
		return nil, errors.NewValidation("note title is required")
	}
	return newNode(title, &Note{Content: content})
}

// NewLink creates a link node. The explicit title may be empty; the crawled
// block may be zero if no crawl has happened yet.
func NewLink(title, url string, crawled CrawledPage) (*Node, error) {
	if url == "" {
		return nil, errors.NewValidation("link url is required")
	}
	return newNode(title, &Link{URL: url, Crawled: crawled})
}

// NewTag creates a tag node.
func NewTag(name, description string) (*Node, error) {
	if name == "" {
		return nil, errors.NewValidation("tag name is required")
	}
	return newNode("", &Tag{Name: name, Description: description})
}

// NewFlashcard creates a flashcard node with a fresh schedule: zero interval,
// ease 2.5, due immediately, never reviewed.
func NewFlashcard(front, back string) (*Node, error) {
	if front == "" || back == "" {
		return nil, errors.NewValidation("flashcard front and back are required")
	}
	n, err := newNode("", &Flashcard{Front: front, Back: back})
	if err != nil {
		return nil, err
	}
	fc := n.Detail.(*Flashcard)
	fc.Schedule = Schedule{DueAt: n.CreatedAt, EaseFactor: 2.5}
	return n, nil
}

func newNode(title string, detail Detail) (*Node, error) {
	id, err := NewID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	now := time.Now().Truncate(time.Second)
	return &Node{
		ID:        id,
		Kind:      detail.Kind(),
		Title:     title,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
		Detail:    detail,
	}, nil
}

// NewID generates a new ULID.
func NewID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
