package tumblr

import (
	"encoding/json"
	"strings"

	"github.com/antchfx/xmlquery"
)

// Post wraps one post element of a read API page. Posts are read-only.
// A photo inside a photoset is also represented as a Post.
type Post struct {
	node *xmlquery.Node
}

// NewPost wraps an XML element node
func NewPost(node *xmlquery.Node) *Post {
	return &Post{node: node}
}

// Attr returns the named attribute and whether it is present
func (p *Post) Attr(name string) (string, bool) {
	if p == nil || p.node == nil {
		return "", false
	}
	for _, a := range p.node.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// ID returns the post id, empty for photoset photos
func (p *Post) ID() string {
	id, _ := p.Attr("id")
	return id
}

// Type returns the lower-cased type discriminator. ok is false when the post
// carries no type, which means it is not a media post.
func (p *Post) Type() (string, bool) {
	t, ok := p.Attr("type")
	if !ok {
		return "", false
	}
	return strings.ToLower(t), true
}

// IsOriginal reports whether the post lacks a reblog-origin marker
func (p *Post) IsOriginal() bool {
	_, reblogged := p.Attr("reblogged-from-name")
	return !reblogged
}

// Children returns the direct child elements with the given name
func (p *Post) Children(name string) []*xmlquery.Node {
	if p == nil || p.node == nil {
		return nil
	}
	var out []*xmlquery.Node
	for c := p.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && c.Data == name {
			out = append(out, c)
		}
	}
	return out
}

// ChildTexts returns the text of every direct child element with the given name
func (p *Post) ChildTexts(name string) []string {
	nodes := p.Children(name)
	texts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		texts = append(texts, n.InnerText())
	}
	return texts
}

// ChildText returns the text of the first child element with the given name
func (p *Post) ChildText(name string) (string, bool) {
	nodes := p.Children(name)
	if len(nodes) == 0 {
		return "", false
	}
	return nodes[0].InnerText(), true
}

// Photoset returns the photos of a nested photoset, or nil when there is none
func (p *Post) Photoset() []*Post {
	sets := p.Children("photoset")
	if len(sets) == 0 {
		return nil
	}
	set := &Post{node: sets[0]}
	var photos []*Post
	for _, n := range set.Children("photo") {
		photos = append(photos, &Post{node: n})
	}
	return photos
}

// String returns the element as XML, for diagnostics
func (p *Post) String() string {
	if p == nil || p.node == nil {
		return "<nil>"
	}
	return p.node.OutputXML(true)
}

// ToMap converts the element to a generic map. Attributes are keyed "@name",
// mixed text is keyed "#text" and repeated children become lists.
func (p *Post) ToMap() map[string]interface{} {
	if p == nil || p.node == nil {
		return nil
	}
	m, _ := nodeValue(p.node).(map[string]interface{})
	if m == nil {
		m = map[string]interface{}{"#text": p.node.InnerText()}
	}
	return m
}

// MarshalJSON encodes the post in its ToMap shape
func (p *Post) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.ToMap())
}

func nodeValue(n *xmlquery.Node) interface{} {
	m := make(map[string]interface{})
	for _, a := range n.Attr {
		m["@"+a.Name.Local] = a.Value
	}

	var text strings.Builder
	hasElements := false
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case xmlquery.ElementNode:
			hasElements = true
			v := nodeValue(c)
			if existing, ok := m[c.Data]; ok {
				if list, isList := existing.([]interface{}); isList {
					m[c.Data] = append(list, v)
				} else {
					m[c.Data] = []interface{}{existing, v}
				}
			} else {
				m[c.Data] = v
			}
		case xmlquery.TextNode, xmlquery.CharDataNode:
			text.WriteString(c.Data)
		}
	}

	body := strings.TrimSpace(text.String())
	if len(m) == 0 && !hasElements {
		if body == "" {
			return nil
		}
		return body
	}
	if body != "" {
		m["#text"] = body
	}
	return m
}
