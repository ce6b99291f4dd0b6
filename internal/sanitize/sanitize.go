// Package sanitize strips unsafe content from generator-produced resume
// markup. The generator is a semi-trusted collaborator: its markup is shown
// verbatim in the resume panel and fed to the renderer, so nothing
// script-bearing may survive this pass.
package sanitize

import "github.com/microcosm-cc/bluemonday"

var policy = buildPolicy()

func buildPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	// Resumes arrive as styled fragments; keep layout hooks but nothing
	// executable.
	p.AllowAttrs("class", "id").Globally()
	p.AllowAttrs("style").Globally()
	p.AllowElements("div", "span", "section", "header", "footer")
	return p
}

// HTML returns the markup with scripts, event handlers and other unsafe
// constructs removed. Safe to call on empty input.
func HTML(markup string) string {
	if markup == "" {
		return ""
	}
	return policy.Sanitize(markup)
}
