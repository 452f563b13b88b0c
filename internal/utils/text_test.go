package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "héll", TruncateRunes("héllo", 4))
	assert.Equal(t, "short", TruncateRunes("short", 10))
	assert.Equal(t, "", TruncateRunes("abc", 0))
}

func TestStripExtension(t *testing.T) {
	assert.Equal(t, "week1-notes", StripExtension("week1-notes.pdf"))
	assert.Equal(t, "archive.tar", StripExtension("/tmp/archive.tar.gz"))
	assert.Equal(t, "README", StripExtension("README"))
	assert.Equal(t, ".env", StripExtension(".env"))
}

func TestExtractJSONObject(t *testing.T) {
	raw := "Here you go:\n```json\n{\"title\": \"Intro\", \"description\": \"x\"}\n```"
	obj, ok := ExtractJSONObject(raw)
	assert.True(t, ok)
	assert.Equal(t, `{"title": "Intro", "description": "x"}`, obj)

	_, ok = ExtractJSONObject("no json here")
	assert.False(t, ok)
}

func TestCleanTitle(t *testing.T) {
	assert.Equal(t, "Network Security Basics", CleanTitle(" \"Network Security Basics.\"\n"))
}

func TestIsCourseOverviewQuestion(t *testing.T) {
	assert.True(t, IsCourseOverviewQuestion("Hey, what is this course about?"))
	assert.True(t, IsCourseOverviewQuestion("What will I learn here"))
	assert.True(t, IsCourseOverviewQuestion("Give me a Course Overview"))
	assert.False(t, IsCourseOverviewQuestion("What is a firewall?"))
}
