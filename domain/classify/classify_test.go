package classify_test

import (
	"math"
	"testing"

	"github.com/artpar/duetgate/domain/classify"
	"github.com/artpar/duetgate/domain/genprompt"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name           string
		prompt         string
		wantKind       genprompt.Kind
		wantStyle      genprompt.Style
		wantLibrary    genprompt.Library
		wantConfidence float64
	}{
		{
			name:           "bare prompt gets defaults",
			prompt:         "something for my shop",
			wantKind:       genprompt.KindComponent,
			wantStyle:      genprompt.StyleModern,
			wantLibrary:    genprompt.LibShadcn,
			wantConfidence: 0.7,
		},
		{
			name:           "modern landing page",
			prompt:         "Create a modern landing page",
			wantKind:       genprompt.KindSite,
			wantStyle:      genprompt.StyleModern,
			wantLibrary:    genprompt.LibShadcn,
			wantConfidence: 0.90,
		},
		{
			name:           "component keyword",
			prompt:         "a login form",
			wantKind:       genprompt.KindComponent,
			wantStyle:      genprompt.StyleModern,
			wantLibrary:    genprompt.LibShadcn,
			wantConfidence: 0.80,
		},
		{
			name:           "component keyword overrides site keyword",
			prompt:         "a contact form for my website",
			wantKind:       genprompt.KindComponent,
			wantStyle:      genprompt.StyleModern,
			wantLibrary:    genprompt.LibShadcn,
			wantConfidence: 0.95,
		},
		{
			name:           "professional style picks nextui",
			prompt:         "a professional pricing card",
			wantKind:       genprompt.KindComponent,
			wantStyle:      genprompt.StyleProfessional,
			wantLibrary:    genprompt.LibNextUI,
			wantConfidence: 0.85,
		},
		{
			name:           "business style picks antd",
			prompt:         "enterprise dashboard",
			wantKind:       genprompt.KindSite,
			wantStyle:      genprompt.StyleBusiness,
			wantLibrary:    genprompt.LibAntd,
			wantConfidence: 0.90,
		},
		{
			name:           "minimal style picks chakra",
			prompt:         "a simple signup page",
			wantKind:       genprompt.KindComponent,
			wantStyle:      genprompt.StyleMinimal,
			wantLibrary:    genprompt.LibChakra,
			wantConfidence: 0.75,
		},
		{
			name:           "first matching style group wins",
			prompt:         "a clean corporate table",
			wantKind:       genprompt.KindComponent,
			wantStyle:      genprompt.StyleModern,
			wantLibrary:    genprompt.LibShadcn,
			wantConfidence: 0.85,
		},
		{
			name:           "matching is case-insensitive",
			prompt:         "MODERN WEBSITE",
			wantKind:       genprompt.KindSite,
			wantStyle:      genprompt.StyleModern,
			wantLibrary:    genprompt.LibShadcn,
			wantConfidence: 0.90,
		},
		{
			name:           "confidence caps at one",
			prompt:         "a modern button form on my website landing page",
			wantKind:       genprompt.KindComponent,
			wantStyle:      genprompt.StyleModern,
			wantLibrary:    genprompt.LibShadcn,
			wantConfidence: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify.Analyze(tt.prompt)
			if got.Kind != tt.wantKind {
				t.Errorf("Kind = %s, want %s", got.Kind, tt.wantKind)
			}
			if got.Style != tt.wantStyle {
				t.Errorf("Style = %s, want %s", got.Style, tt.wantStyle)
			}
			if got.Library != tt.wantLibrary {
				t.Errorf("Library = %s, want %s", got.Library, tt.wantLibrary)
			}
			if !almostEqual(got.Confidence, tt.wantConfidence) {
				t.Errorf("Confidence = %v, want %v", got.Confidence, tt.wantConfidence)
			}
		})
	}
}

func TestTask(t *testing.T) {
	got := genprompt.Task(genprompt.KindSite, genprompt.LibAntd, "a travel blog")
	want := "You are to generate a multi-page site using the antd UI library.\na travel blog"
	if got != want {
		t.Errorf("site task = %q, want %q", got, want)
	}

	got = genprompt.Task(genprompt.KindComponent, genprompt.LibChakra, "a date picker")
	want = "You are to generate a UI component using the chakra UI library.\na date picker"
	if got != want {
		t.Errorf("component task = %q, want %q", got, want)
	}
}
