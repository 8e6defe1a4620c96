package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
	"go.abhg.dev/goldmark/frontmatter"
)

type Parser struct {
	md goldmark.Markdown
}

func NewParser() *Parser {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			extension.Typographer,
			&frontmatter.Extender{},
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			goldmarkhtml.WithHardWraps(),
			goldmarkhtml.WithXHTML(),
		),
	)

	return &Parser{
		md: md,
	}
}

// Render converts markdown to HTML. Raw HTML in the source is omitted.
func (p *Parser) Render(source []byte) (string, error) {
	var buf bytes.Buffer
	err := p.md.Convert(source, &buf)
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Parse renders source and decodes its YAML frontmatter into meta.
// A document without frontmatter leaves meta untouched.
func (p *Parser) Parse(source []byte, meta any) (html string, err error) {
	context := parser.NewContext()
	var buf bytes.Buffer

	err = p.md.Convert(source, &buf, parser.WithContext(context))
	if err != nil {
		return "", err
	}

	data := frontmatter.Get(context)
	if data != nil && meta != nil {
		err = data.Decode(meta)
		if err != nil {
			return "", err
		}
	}

	return buf.String(), nil
}

// Body returns source without its leading frontmatter block.
func Body(source []byte) []byte {
	const fence = "---"

	rest, ok := bytes.CutPrefix(source, []byte(fence+"\n"))
	if !ok {
		return source
	}

	end := bytes.Index(rest, []byte("\n"+fence))
	if end < 0 {
		return source
	}

	rest = rest[end+len(fence)+1:]
	if i := bytes.IndexByte(rest, '\n'); i >= 0 {
		rest = rest[i+1:]
	} else {
		rest = nil
	}
	return bytes.TrimLeft(rest, "\n")
}
