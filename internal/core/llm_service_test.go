package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDocumentMetadata(t *testing.T) {
	raw := "```json\n{\"title\": \"Firewall Fundamentals\", \"description\": \"Covers packet filtering.\"}\n```"
	meta := ParseDocumentMetadata(raw, "body", "week1.pdf")
	assert.Equal(t, "Firewall Fundamentals", meta.Title)
	assert.Equal(t, "Covers packet filtering.", meta.Description)
}

func TestParseDocumentMetadataFallsBack(t *testing.T) {
	meta := ParseDocumentMetadata("I cannot help with that.", "Lecture body text", "week1-notes.pdf")
	assert.Equal(t, "week1-notes", meta.Title)
	assert.Equal(t, "Lecture body text", meta.Description)

	partial := ParseDocumentMetadata(`{"title": "Only a title"}`, "Lecture body text", "week1.pdf")
	assert.Equal(t, "Only a title", partial.Title)
	assert.Equal(t, "Lecture body text", partial.Description)
}

func TestParseDocumentMetadataCapsLengths(t *testing.T) {
	long := strings.Repeat("a", 800)
	meta := ParseDocumentMetadata(`{"title": "`+long+`", "description": "`+long+`"}`, "", "x.pdf")
	assert.Len(t, meta.Title, metadataTitleLimit)
	assert.Len(t, meta.Description, metadataDescLimit)
}

func TestFallbackDocumentMetadata(t *testing.T) {
	meta := FallbackDocumentMetadata(strings.Repeat("é", 600), "slides.final.pptx")
	assert.Equal(t, "slides.final", meta.Title)
	assert.Equal(t, metadataDescLimit, len([]rune(meta.Description)))
}
