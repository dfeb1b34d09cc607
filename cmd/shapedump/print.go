package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dhoelle/shape"
	"github.com/muesli/termenv"
)

// maxBytesShown caps the hex dump of a byte case.
const maxBytesShown = 32

// printer writes a captured content tree, one node per line, children
// indented by two spaces. Map entries print as a "key" node followed by a
// "val" node.
type printer struct {
	w       io.Writer
	kind    lipgloss.Style
	scalar  lipgloss.Style
	label   lipgloss.Style
	builder strings.Builder
}

func newPrinter(w io.Writer, color string) (*printer, error) {
	var renderer *lipgloss.Renderer
	switch color {
	case "auto":
		renderer = lipgloss.NewRenderer(w)
	case "always":
		renderer = lipgloss.NewRenderer(w, termenv.WithProfile(termenv.ANSI256))
		renderer.SetColorProfile(termenv.ANSI256)
	case "never":
		renderer = lipgloss.NewRenderer(w, termenv.WithProfile(termenv.Ascii))
		renderer.SetColorProfile(termenv.Ascii)
	default:
		return nil, fmt.Errorf("unknown color mode %q (want auto, always or never)", color)
	}
	return &printer{
		w:      w,
		kind:   renderer.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
		scalar: renderer.NewStyle().Foreground(lipgloss.Color("10")),
		label:  renderer.NewStyle().Foreground(lipgloss.Color("8")),
	}, nil
}

func (p *printer) print(c *shape.Content) error {
	p.builder.Reset()
	p.node(c, 0, "")
	if _, err := io.WriteString(p.w, p.builder.String()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (p *printer) node(c *shape.Content, depth int, label string) {
	p.builder.WriteString(strings.Repeat("  ", depth))
	if label != "" {
		p.builder.WriteString(p.label.Render(label))
		p.builder.WriteByte(' ')
	}
	p.builder.WriteString(p.kind.Render(c.Kind.String()))
	if s, ok := scalarText(c); ok {
		p.builder.WriteByte(' ')
		p.builder.WriteString(p.scalar.Render(s))
	}
	p.builder.WriteByte('\n')

	switch c.Kind {
	case shape.ContentSome, shape.ContentNewtype:
		p.node(c.Inner, depth+1, "")
	case shape.ContentSeq:
		for i := range c.Seq {
			p.node(&c.Seq[i], depth+1, "")
		}
	case shape.ContentMap:
		for i := range c.Map {
			p.node(&c.Map[i].Key, depth+1, "key")
			p.node(&c.Map[i].Value, depth+1, "val")
		}
	}
}

// scalarText renders the payload shown after a node's kind.
func scalarText(c *shape.Content) (string, bool) {
	switch c.Kind {
	case shape.ContentBool:
		return strconv.FormatBool(c.Bool), true
	case shape.ContentU8, shape.ContentU16, shape.ContentU32, shape.ContentU64:
		return strconv.FormatUint(c.Uint, 10), true
	case shape.ContentI8, shape.ContentI16, shape.ContentI32, shape.ContentI64:
		return strconv.FormatInt(c.Int, 10), true
	case shape.ContentF32:
		return strconv.FormatFloat(c.Float, 'g', -1, 32), true
	case shape.ContentF64:
		return strconv.FormatFloat(c.Float, 'g', -1, 64), true
	case shape.ContentChar:
		return strconv.QuoteRune(c.Char), true
	case shape.ContentString, shape.ContentStr:
		return strconv.Quote(c.Str), true
	case shape.ContentByteBuf, shape.ContentBytes:
		shown := c.Bytes
		suffix := ""
		if len(shown) > maxBytesShown {
			shown, suffix = shown[:maxBytesShown], "…"
		}
		return fmt.Sprintf("[%d] %s%s", len(c.Bytes), hex.EncodeToString(shown), suffix), true
	case shape.ContentSeq:
		return fmt.Sprintf("(%d)", len(c.Seq)), true
	case shape.ContentMap:
		return fmt.Sprintf("(%d)", len(c.Map)), true
	}
	return "", false
}
