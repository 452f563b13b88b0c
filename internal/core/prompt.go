package core

import "strings"

// PromptInput is everything the system prompt depends on.
type PromptInput struct {
	// Override is the admin supplied replacement for BaseTeachingPrompt. Blank means unset.
	Override string
	// ModuleContext is the aggregated course content. Only a value carrying
	// ContentSentinel counts as content.
	ModuleContext string
	Tools         []string
}

// BuildSystemPrompt layers the teaching instructions, the course material
// block (or the missing-materials notice), the course overview exception and
// the optional tools hint. It is deterministic and makes no external calls.
func BuildSystemPrompt(in PromptInput) string {
	var b strings.Builder

	if override := strings.TrimSpace(in.Override); override != "" {
		b.WriteString(override)
	} else {
		b.WriteString(BaseTeachingPrompt)
	}

	if HasContent(in.ModuleContext) {
		b.WriteString(moduleContextHeader)
		b.WriteString(in.ModuleContext)
		b.WriteString(moduleContextFooter)
	} else {
		b.WriteString(NoMaterialsNotice)
	}

	b.WriteString(CourseOverviewException)

	if len(in.Tools) > 0 {
		b.WriteString(toolsContext)
	}
	return b.String()
}

// HasContent reports whether an aggregated module context carries the content sentinel.
func HasContent(moduleContext string) bool {
	return strings.HasPrefix(moduleContext, ContentSentinel)
}
