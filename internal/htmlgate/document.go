package htmlgate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"keksly-go/internal/keksly"
)

const (
	attrType    = "type"
	attrService = "data-service"
	attrSrc     = "src"
	attrConfig  = "data-config"
	attrID      = "id"

	inertType  = "text/plain"
	activeType = "text/javascript"

	loaderName  = "keksly.js"
	inlineName  = "KekslyConfig"
	dataLayerID = "keksly-datalayer"
)

// Document is a parsed HTML page acting as the widget's script gate.
// It is safe for concurrent use.
type Document struct {
	mu   sync.Mutex
	root *html.Node
}

// Parse reads a full HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}
	return &Document{root: root}, nil
}

// ListGatedScripts returns every <script type="text/plain" data-service="...">
// in document order.
func (d *Document) ListGatedScripts() ([]keksly.GatedScript, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []keksly.GatedScript
	walk(d.root, func(n *html.Node) {
		if !isGated(n) {
			return
		}
		out = append(out, keksly.GatedScript{
			ServiceID: attr(n, attrService),
			Src:       attr(n, attrSrc),
			Body:      text(n),
			Attrs:     attrs(n),
			Ref:       n,
		})
	})
	return out, nil
}

// Activate replaces a gated script with an active one. Every attribute but
// type and data-service is carried over; the inline body is kept only when
// there is no src.
func (d *Document) Activate(script keksly.GatedScript) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	old, ok := script.Ref.(*html.Node)
	if !ok || old == nil {
		return fmt.Errorf("script for %s was not listed by this document", script.ServiceID)
	}
	if old.Parent == nil || !isGated(old) {
		return fmt.Errorf("script for %s is no longer gated", script.ServiceID)
	}

	active := &html.Node{
		Type:     html.ElementNode,
		Data:     "script",
		DataAtom: atom.Script,
		Attr:     []html.Attribute{{Key: attrType, Val: activeType}},
	}
	for _, a := range old.Attr {
		if a.Namespace == "" && (a.Key == attrType || a.Key == attrService) {
			continue
		}
		active.Attr = append(active.Attr, a)
	}
	if attr(old, attrSrc) == "" {
		if body := text(old); body != "" {
			active.AppendChild(&html.Node{Type: html.TextNode, Data: body})
		}
	}

	old.Parent.InsertBefore(active, old)
	old.Parent.RemoveChild(old)
	return nil
}

// ConfigURL returns the data-config attribute of the widget's loader tag,
// the first script whose src mentions keksly.js.
func (d *Document) ConfigURL() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var url string
	found := false
	walk(d.root, func(n *html.Node) {
		if found || !isScript(n) || !strings.Contains(attr(n, attrSrc), loaderName) {
			return
		}
		found = true
		url = attr(n, attrConfig)
	})
	return url, found && url != ""
}

// InlineConfigScript returns the body of the first active inline script
// that mentions KekslyConfig.
func (d *Document) InlineConfigScript() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var body string
	walk(d.root, func(n *html.Node) {
		if body != "" || !isScript(n) || isGated(n) || hasAttr(n, attrSrc) {
			return
		}
		if t := text(n); strings.Contains(t, inlineName) {
			body = t
		}
	})
	return body, body != ""
}

// InjectDataLayer writes records into a script at the top of <head> that
// replays them onto window.dataLayer. Arrays are replayed as gtag calls so
// tag managers see an arguments object. Injecting again replaces the earlier
// script.
func (d *Document) InjectDataLayer(records []any) error {
	var buf bytes.Buffer
	buf.WriteString("window.dataLayer = window.dataLayer || [];\n")
	buf.WriteString("function gtag(){dataLayer.push(arguments);}\n")
	for _, r := range records {
		if args, ok := r.([]any); ok {
			parts := make([]string, len(args))
			for i, a := range args {
				b, err := json.Marshal(a)
				if err != nil {
					return fmt.Errorf("encoding data layer record: %w", err)
				}
				parts[i] = string(b)
			}
			fmt.Fprintf(&buf, "gtag(%s);\n", strings.Join(parts, ", "))
			continue
		}
		b, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encoding data layer record: %w", err)
		}
		fmt.Fprintf(&buf, "dataLayer.push(%s);\n", b)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	head := find(d.root, func(n *html.Node) bool { return n.Type == html.ElementNode && n.DataAtom == atom.Head })
	if head == nil {
		return fmt.Errorf("document has no head")
	}
	if prev := find(d.root, func(n *html.Node) bool { return isScript(n) && attr(n, attrID) == dataLayerID }); prev != nil {
		prev.Parent.RemoveChild(prev)
	}

	script := &html.Node{
		Type:     html.ElementNode,
		Data:     "script",
		DataAtom: atom.Script,
		Attr:     []html.Attribute{{Key: attrID, Val: dataLayerID}},
	}
	script.AppendChild(&html.Node{Type: html.TextNode, Data: buf.String()})
	head.InsertBefore(script, head.FirstChild)
	return nil
}

// Render writes the document as HTML.
func (d *Document) Render(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := html.Render(w, d.root); err != nil {
		return fmt.Errorf("rendering html: %w", err)
	}
	return nil
}

func isScript(n *html.Node) bool {
	return n.Type == html.ElementNode && n.DataAtom == atom.Script
}

func isGated(n *html.Node) bool {
	return isScript(n) &&
		strings.EqualFold(strings.TrimSpace(attr(n, attrType)), inertType) &&
		attr(n, attrService) != ""
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return true
		}
	}
	return false
}

func attrs(n *html.Node) []keksly.Attribute {
	out := make([]keksly.Attribute, 0, len(n.Attr))
	for _, a := range n.Attr {
		out = append(out, keksly.Attribute{Name: a.Key, Value: a.Val})
	}
	return out
}

func text(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

// walk visits n and its descendants in document order. fn must not detach
// the node it is given.
func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if m := find(c, match); m != nil {
			return m
		}
	}
	return nil
}

var _ keksly.ScriptGate = (*Document)(nil)
