// Package render turns answer text and citations into display strings for
// the browser and terminal surfaces.
package render

import (
	"fmt"
	"html/template"
	"regexp"
	"strconv"
	"strings"

	"github.com/casestudy-ai/cli/internal/api"
)

// Examples are the suggested questions shown on an empty screen
var Examples = []string{
	"ecommerce platform with Shopify integration",
	"HIPAA compliant healthcare SaaS",
	"Stripe payment processing implementation",
}

const (
	Title          = "CaseStudy AI"
	Tagline        = "> Query case studies. Extract insights. Generate proposals."
	EmptyTitle     = "Enter a question above to search case studies"
	QueryingLabel  = "Querying case studies..."
	UploadingLabel = "Uploading and processing..."
	Placeholder    = "e.g., 'fintech SaaS with Stripe integration' or 'multi-tenant healthcare platform'"
)

// UploadSuccess is the notice shown after a file was accepted
func UploadSuccess(filename string) string {
	return fmt.Sprintf("✓ %s uploaded successfully", filename)
}

var (
	boldPattern = regexp.MustCompile(`\*\*(.*?)\*\*`)
	newlines    = strings.NewReplacer("\r\n", "<br />", "\n", "<br />")
)

// HTML renders answer text as markup. The text is escaped first; the only
// elements that can appear in the output are <strong> and <br />.
func HTML(text string) template.HTML {
	escaped := template.HTMLEscapeString(text)
	escaped = boldPattern.ReplaceAllString(escaped, "<strong>$1</strong>")
	return template.HTML(newlines.Replace(escaped))
}

// Citation formats a source reference as "file (chunk id) - page n"
func Citation(c api.Citation) string {
	parts := []string{c.File}
	if c.ChunkID != "" {
		parts = append(parts, fmt.Sprintf("(chunk %s)", c.ChunkID))
	}
	if c.Page != nil && *c.Page != 0 {
		parts = append(parts, "- page "+strconv.Itoa(*c.Page))
	}
	return strings.Join(parts, " ")
}

// SourcesLabel is the heading above the citation list
func SourcesLabel(n int) string {
	return fmt.Sprintf("[ SOURCES: %02d ]", n)
}

// Index numbers list entries from 01
func Index(i int) string {
	return fmt.Sprintf("%02d", i+1)
}
