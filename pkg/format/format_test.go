package format

import (
	"strings"
	"testing"

	"github.com/relaygw/relay/pkg/provider"
)

func TestEnhancePlainIsUntouched(t *testing.T) {
	if got := Enhance(provider.FormatPlain, "hello"); got != "hello" {
		t.Errorf("expected plain text to pass through, got %q", got)
	}
}

func TestEnhanceAppendsInstructions(t *testing.T) {
	got := Enhance(provider.FormatJSON, "give me data")

	if !strings.HasPrefix(got, "give me data") {
		t.Error("expected the original text to stay first")
	}

	if !strings.Contains(got, "single JSON document") {
		t.Error("expected JSON instructions to be appended")
	}

	if !strings.Contains(got, "Do NOT wrap the document in code fences") {
		t.Error("expected the negative fence example")
	}
}

func TestEnhanceRequestRewritesLastUserMessage(t *testing.T) {
	req := &provider.Request{
		Messages: []provider.Message{
			provider.UserMessage("first"),
			provider.AssistantMessage("reply"),
			provider.UserMessage("second"),
		},

		Params: provider.Parameters{
			Format: provider.FormatXML,
		},
	}

	EnhanceRequest(req)

	if req.Messages[0].Text() != "first" {
		t.Errorf("earlier user turn must stay untouched, got %q", req.Messages[0].Text())
	}

	if !strings.Contains(req.Messages[2].Text(), "single XML document") {
		t.Error("expected the last user turn to carry the instructions")
	}
}

func TestEnhanceRequestWithoutUserMessage(t *testing.T) {
	req := &provider.Request{
		Messages: []provider.Message{
			provider.SystemMessage("s"),
		},

		Params: provider.Parameters{
			Format: provider.FormatJSON,
		},
	}

	// Must not panic.
	EnhanceRequest(req)
}

func TestCleanJSONStripsFence(t *testing.T) {
	raw := "```json\n{\"a\": 1}\n```"

	got := Clean(provider.FormatJSON, raw)

	want := "{\n  \"a\": 1\n}"

	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestCleanJSONBareFence(t *testing.T) {
	raw := "```\n{\"a\": \"b\"}\n```"

	got := Clean(provider.FormatJSON, raw)

	if strings.Contains(got, "```") {
		t.Errorf("fence survived cleaning: %q", got)
	}

	if !strings.Contains(got, "\"a\": \"b\"") {
		t.Errorf("content lost during cleaning: %q", got)
	}
}

func TestCleanJSONMalformed(t *testing.T) {
	got := Clean(provider.FormatJSON, "this is not json")

	if got != MalformedJSON {
		t.Errorf("expected the placeholder, got %q", got)
	}
}

func TestCleanXMLNormalizes(t *testing.T) {
	raw := "```xml\n<response><field>value</field></response>\n```"

	got := Clean(provider.FormatXML, raw)

	if !strings.HasPrefix(got, `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Errorf("expected an XML declaration, got %q", got)
	}

	if !strings.Contains(got, "<field>value</field>") {
		t.Errorf("content lost during cleaning: %q", got)
	}
}

func TestCleanXMLMalformed(t *testing.T) {
	got := Clean(provider.FormatXML, "<open>never closed")

	if !strings.Contains(got, "did not contain well-formed XML") {
		t.Errorf("expected the placeholder, got %q", got)
	}
}

func TestCleanXMLTrailingGarbage(t *testing.T) {
	got := Clean(provider.FormatXML, "<a>1</a><b>2</b>")

	if !strings.Contains(got, "did not contain well-formed XML") {
		t.Errorf("expected rejection of multiple document elements, got %q", got)
	}
}

func TestCleanPlainPassthrough(t *testing.T) {
	raw := "```\nnot touched\n```"

	if got := Clean(provider.FormatPlain, raw); got != raw {
		t.Errorf("plain replies must pass through verbatim, got %q", got)
	}
}

func TestCleanXMLEscapesText(t *testing.T) {
	got := Clean(provider.FormatXML, "<a>1 &lt; 2</a>")

	if !strings.Contains(got, "1 &lt; 2") {
		t.Errorf("expected escaped text content, got %q", got)
	}
}
