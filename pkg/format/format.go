// Package format implements the response-format contract: outbound prompt
// enhancement for structured replies and the matching inbound cleaner. The
// instruction template advertised outbound is exactly what the cleaner
// expects to strip inbound.
package format

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/relaygw/relay/pkg/provider"
)

// MalformedJSON is the fixed placeholder returned when a reply that was
// requested as JSON does not parse. The caller renders it as-is.
const MalformedJSON = "The response was received but did not contain well-formed JSON."

const jsonInstructions = "\n\n" +
	"Respond with a single JSON document and nothing else.\n" +
	"Use exactly this shape, replacing the values:\n" +
	"{\n" +
	"  \"field\": \"value\"\n" +
	"}\n" +
	"Do NOT wrap the document in code fences (no ```json, no ```).\n" +
	"Do NOT add any text before or after the document."

const xmlInstructions = "\n\n" +
	"Respond with a single XML document and nothing else.\n" +
	"Use exactly this shape, replacing the values:\n" +
	"<response>\n" +
	"  <field>value</field>\n" +
	"</response>\n" +
	"Do NOT wrap the document in code fences (no ```xml, no ```).\n" +
	"Do NOT add any text before or after the document."

// Enhance appends the formatting instructions for the requested format to a
// user message. Plain text passes through untouched.
func Enhance(f provider.Format, text string) string {
	switch f {
	case provider.FormatJSON:
		return text + jsonInstructions

	case provider.FormatXML:
		return text + xmlInstructions

	default:
		return text
	}
}

// EnhanceRequest rewrites the last user message of a mapped request. It must
// run after role mapping so the enhancement never lands on an earlier turn.
func EnhanceRequest(req *provider.Request) {
	if req.Params.Format == provider.FormatPlain {
		return
	}

	i := req.LastUserIndex()

	if i < 0 {
		return
	}

	m := req.Messages[i]

	for j := len(m.Content) - 1; j >= 0; j-- {
		if m.Content[j].Text != "" {
			m.Content[j].Text = Enhance(req.Params.Format, m.Content[j].Text)
			return
		}
	}
}

// Clean post-processes a reply for the requested format: strips a stray code
// fence, then normalizes the document. Malformed input yields a placeholder
// string, never an error.
func Clean(f provider.Format, text string) string {
	switch f {
	case provider.FormatJSON:
		return cleanJSON(stripFence(text))

	case provider.FormatXML:
		return cleanXML(stripFence(text))

	default:
		return text
	}
}

func stripFence(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			text = text[i+1:]
		} else {
			text = strings.TrimPrefix(text, "```")
		}
	}

	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")

	return strings.TrimSpace(text)
}

func cleanJSON(text string) string {
	var doc any

	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return MalformedJSON
	}

	data, err := json.MarshalIndent(doc, "", "  ")

	if err != nil {
		return MalformedJSON
	}

	return string(data)
}

func cleanXML(text string) string {
	root, err := parseXML(text)

	if err != nil {
		return fmt.Sprintf("The response was received but did not contain well-formed XML: %v", err)
	}

	var sb strings.Builder

	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	sb.WriteString("\n")

	writeXML(&sb, root, 0)

	return strings.TrimRight(sb.String(), "\n")
}

type xmlNode struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Content string     `xml:",chardata"`
	Nodes   []xmlNode  `xml:",any"`
}

func parseXML(text string) (*xmlNode, error) {
	var root xmlNode

	decoder := xml.NewDecoder(strings.NewReader(text))

	if err := decoder.Decode(&root); err != nil {
		return nil, err
	}

	// Reject trailing garbage after the document element.
	if err := decoder.Decode(new(xmlNode)); err == nil {
		return nil, fmt.Errorf("multiple document elements")
	}

	return &root, nil
}

func writeXML(sb *strings.Builder, n *xmlNode, depth int) {
	indent := strings.Repeat("  ", depth)

	sb.WriteString(indent)
	sb.WriteString("<")
	sb.WriteString(n.XMLName.Local)

	for _, a := range n.Attrs {
		sb.WriteString(fmt.Sprintf(" %s=%q", a.Name.Local, a.Value))
	}

	text := strings.TrimSpace(n.Content)

	if len(n.Nodes) == 0 && text == "" {
		sb.WriteString("/>\n")
		return
	}

	sb.WriteString(">")

	if len(n.Nodes) == 0 {
		sb.WriteString(escapeXML(text))
		sb.WriteString("</" + n.XMLName.Local + ">\n")
		return
	}

	sb.WriteString("\n")

	if text != "" {
		sb.WriteString(strings.Repeat("  ", depth+1))
		sb.WriteString(escapeXML(text))
		sb.WriteString("\n")
	}

	for i := range n.Nodes {
		writeXML(sb, &n.Nodes[i], depth+1)
	}

	sb.WriteString(indent)
	sb.WriteString("</" + n.XMLName.Local + ">\n")
}

func escapeXML(text string) string {
	var buf bytes.Buffer

	xml.EscapeText(&buf, []byte(text))

	return buf.String()
}
