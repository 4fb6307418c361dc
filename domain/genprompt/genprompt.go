// Package genprompt holds the vocabulary of generation requests (what
// kind of artifact, in which style, with which UI library) and builds
// the task prompts sent to the providers.
package genprompt

import "fmt"

// Kind is the artifact class a prompt asks for.
type Kind string

const (
	KindComponent Kind = "component"
	KindSite      Kind = "site"
)

// Style is the visual direction inferred from the prompt.
type Style string

const (
	StyleModern       Style = "modern"
	StyleProfessional Style = "professional"
	StyleBusiness     Style = "business"
	StyleMinimal      Style = "minimal"
)

// Library is the UI component library the generated code should target.
type Library string

const (
	LibShadcn Library = "shadcn"
	LibNextUI Library = "nextui"
	LibAntd   Library = "antd"
	LibChakra Library = "chakra"
)

// ComponentTask builds the task prefix for a single-component request.
// This is a PURE function.
func ComponentTask(lib Library) string {
	return fmt.Sprintf("You are to generate a UI component using the %s UI library.", lib)
}

// SiteTask builds the task prefix for a multi-page site request.
// This is a PURE function.
func SiteTask(lib Library) string {
	return fmt.Sprintf("You are to generate a multi-page site using the %s UI library.", lib)
}

// Task composes the full task prompt for one provider call: the
// kind-specific prefix, a newline, then the user's prompt verbatim.
// Both providers get the same task.
// This is a PURE function.
func Task(kind Kind, lib Library, prompt string) string {
	if kind == KindSite {
		return SiteTask(lib) + "\n" + prompt
	}
	return ComponentTask(lib) + "\n" + prompt
}
