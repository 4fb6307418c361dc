// Package classify analyzes generation prompts and decides what kind of
// artifact the caller wants. Keyword heuristics only, no model calls.
package classify

import (
	"strings"

	"github.com/artpar/duetgate/domain/genprompt"
)

// Analysis is the classifier's verdict for one prompt.
type Analysis struct {
	Kind       genprompt.Kind
	Style      genprompt.Style
	Library    genprompt.Library
	Confidence float64
}

var siteKeywords = []string{"landing page", "website", "home page", "dashboard", "multi-page"}

var componentKeywords = []string{"button", "form", "card", "modal", "input", "table"}

// styleGroup keeps the style indicators ordered; first matching group
// wins, so ordering is part of the contract.
type styleGroup struct {
	style      genprompt.Style
	indicators []string
}

var styleGroups = []styleGroup{
	{genprompt.StyleModern, []string{"modern", "sleek", "clean"}},
	{genprompt.StyleProfessional, []string{"professional", "corporate"}},
	{genprompt.StyleBusiness, []string{"business", "enterprise"}},
	{genprompt.StyleMinimal, []string{"minimal", "simple", "plain"}},
}

var libraryByStyle = map[genprompt.Style]genprompt.Library{
	genprompt.StyleModern:       genprompt.LibShadcn,
	genprompt.StyleProfessional: genprompt.LibNextUI,
	genprompt.StyleBusiness:     genprompt.LibAntd,
	genprompt.StyleMinimal:      genprompt.LibChakra,
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// Analyze classifies a prompt. Defaults to a modern component at 0.7
// confidence; site keywords add 0.15, component keywords add 0.10 and
// take precedence over a site match, a style match adds 0.05.
// Confidence caps at 1.0.
// This is a PURE function.
func Analyze(prompt string) Analysis {
	lower := strings.ToLower(prompt)

	a := Analysis{
		Kind:       genprompt.KindComponent,
		Style:      genprompt.StyleModern,
		Confidence: 0.7,
	}

	if containsAny(lower, siteKeywords) {
		a.Kind = genprompt.KindSite
		a.Confidence += 0.15
	}
	// Checked after the site keywords: a prompt naming a concrete widget
	// is a component request even when it also mentions a page.
	if containsAny(lower, componentKeywords) {
		a.Kind = genprompt.KindComponent
		a.Confidence += 0.10
	}

	for _, g := range styleGroups {
		if containsAny(lower, g.indicators) {
			a.Style = g.style
			a.Confidence += 0.05
			break
		}
	}

	a.Library = libraryByStyle[a.Style]
	if a.Confidence > 1.0 {
		a.Confidence = 1.0
	}
	return a
}
