// Package publish renders the public slice of the knowledge base into static
// site artifacts. It is pure: callers decide where the files go.
package publish

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"

	"github.com/yuin/goldmark"

	"github.com/lattice-kb/lattice/internal/errors"
	"github.com/lattice-kb/lattice/internal/node"
)

// Artifact is one file of the published site.
type Artifact struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

var md = goldmark.New()

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<p><a href="../index.html">index</a></p>
<h1>{{.Title}}</h1>
<p><em>{{.Kind}}</em></p>
{{.Body}}
{{if .Relations}}<h2>Relations</h2>
<ul>
{{range .Relations}}<li>{{.Arrow}} <a href="{{.Href}}">{{.Title}}</a> ({{.Type}})</li>
{{end}}</ul>{{end}}
</body>
</html>
`))

var indexTmpl = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
{{range .Sections}}<h2>{{.Heading}}</h2>
<ul>
{{range .Entries}}<li><a href="{{.Href}}">{{.Title}}</a></li>
{{end}}</ul>
{{end}}</body>
</html>
`))

type pageData struct {
	Title     string
	Kind      node.Kind
	Body      template.HTML
	Relations []relationEntry
}

type relationEntry struct {
	Arrow string
	Href  string
	Title string
	Type  node.RelType
}

type indexSection struct {
	Heading string
	Entries []indexEntry
}

type indexEntry struct {
	Href  string
	Title string
}

// Build renders one page per node plus an index page. Nodes are expected to
// be the public set with relations already expanded; relations pointing at
// non-public nodes are dropped so the site never links to hidden content.
func Build(nodes []*node.Node) ([]Artifact, error) {
	public := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		public[n.ID] = true
	}

	artifacts := make([]Artifact, 0, len(nodes)+1)
	for _, n := range nodes {
		page, err := renderPage(n, public)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, Artifact{
			Path:    fmt.Sprintf("nodes/%s.html", n.ID),
			Content: page,
		})
	}

	index, err := renderIndex(nodes)
	if err != nil {
		return nil, err
	}
	artifacts = append(artifacts, Artifact{Path: "index.html", Content: index})
	return artifacts, nil
}

func renderPage(n *node.Node, public map[string]bool) (string, error) {
	body, err := renderBody(n)
	if err != nil {
		return "", err
	}

	data := pageData{
		Title: n.DerivedTitle(),
		Kind:  n.Kind,
		Body:  body,
	}

	neighborIDs := make([]string, 0, len(n.Relations))
	for id := range n.Relations {
		neighborIDs = append(neighborIDs, id)
	}
	sort.Strings(neighborIDs)
	for _, id := range neighborIDs {
		rel := n.Relations[id]
		if !public[id] {
			continue
		}
		arrow := "↔"
		switch rel.Direction {
		case node.DirectionFrom:
			arrow = "→"
		case node.DirectionTo:
			arrow = "←"
		}
		data.Relations = append(data.Relations, relationEntry{
			Arrow: arrow,
			Href:  fmt.Sprintf("%s.html", id),
			Title: rel.Node.DerivedTitle(),
			Type:  rel.Type,
		})
	}

	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, data); err != nil {
		return "", errors.NewInternal(err)
	}
	return buf.String(), nil
}

// renderBody picks the markdown source per variant and converts it.
func renderBody(n *node.Node) (template.HTML, error) {
	var source string
	switch d := n.Detail.(type) {
	case *node.Note:
		source = d.Content
	case *node.Link:
		source = fmt.Sprintf("<%s>\n\n%s", d.URL, d.Crawled.Text)
	case *node.Tag:
		source = d.Description
	case *node.Flashcard:
		source = fmt.Sprintf("**Q:** %s\n\n**A:** %s", d.Front, d.Back)
	default:
		return "", errors.NewUnknownVariant(string(n.Kind))
	}

	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", errors.NewInternal(err)
	}
	return template.HTML(buf.String()), nil
}

func renderIndex(nodes []*node.Node) (string, error) {
	byKind := make(map[node.Kind][]indexEntry)
	for _, n := range nodes {
		byKind[n.Kind] = append(byKind[n.Kind], indexEntry{
			Href:  fmt.Sprintf("nodes/%s.html", n.ID),
			Title: n.DerivedTitle(),
		})
	}

	headings := map[node.Kind]string{
		node.KindNote:      "Notes",
		node.KindLink:      "Links",
		node.KindTag:       "Tags",
		node.KindFlashcard: "Flashcards",
	}

	data := struct {
		Title    string
		Sections []indexSection
	}{Title: "Lattice"}

	for _, k := range node.Kinds() {
		entries := byKind[k]
		if len(entries) == 0 {
			continue
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Title < entries[j].Title })
		data.Sections = append(data.Sections, indexSection{
			Heading: headings[k],
			Entries: entries,
		})
	}

	var buf bytes.Buffer
	if err := indexTmpl.Execute(&buf, data); err != nil {
		return "", errors.NewInternal(err)
	}
	return buf.String(), nil
}
