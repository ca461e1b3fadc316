// Package extract derives structured artifacts from chat-completion output:
// fenced code blocks, an embedded SVG fragment, and an embedded HTML
// fragment. Extraction is a pure pass over the final text; artifacts are
// derived data and losing them never affects the response itself.
package extract

import (
	"regexp"
	"strings"
)

// Kind tags what an artifact contains.
type Kind string

const (
	KindCode Kind = "code"
	KindSVG  Kind = "svg"
	KindHTML Kind = "html"
)

// Artifact is one extracted fragment, ready to be written out by the caller.
// Ext is the suggested filename extension.
type Artifact struct {
	Kind    Kind
	Label   string
	Ext     string
	Content []byte
}

// langExtensions maps a fence language tag to a filename extension. Tags not
// listed are used verbatim (lower-cased) as the extension; untagged fences
// become txt.
var langExtensions = map[string]string{
	"python":     "py",
	"javascript": "js",
	"typescript": "ts",
	"bash":       "sh",
	"shell":      "sh",
	"html":       "html",
	"xml":        "xml",
	"json":       "json",
	"yaml":       "yml",
	"markdown":   "md",
	"sql":        "sql",
	"css":        "css",
	"java":       "java",
	"cpp":        "cpp",
	"c":          "c",
	"rust":       "rs",
	"go":         "go",
	"ruby":       "rb",
	"php":        "php",
}

// A fence opens with three backticks optionally followed immediately by a
// language tag, and closes with three backticks on their own line. Content
// is everything strictly between the delimiter lines.
var fenceRe = regexp.MustCompile("(?s)```(\\w+)?\\n(.*?)\\n```")

// Artifacts scans text and returns every artifact found: zero or more code
// blocks, at most one SVG and at most one HTML fragment. Code artifacts are
// emitted in the order their extension was first seen, then SVG, then HTML.
//
// When several blocks resolve to the same extension, only the last one in
// document order is kept. This last-write-wins rule is deliberate and kept
// for compatibility with existing consumers.
func Artifacts(text string) []Artifact {
	if text == "" {
		return nil
	}

	var out []Artifact
	byExt := make(map[string]int)
	for _, m := range fenceRe.FindAllStringSubmatch(text, -1) {
		lang := m[1]
		if lang == "" {
			lang = "txt"
		}
		ext, ok := langExtensions[strings.ToLower(lang)]
		if !ok {
			ext = strings.ToLower(lang)
		}
		art := Artifact{Kind: KindCode, Label: lang, Ext: ext, Content: []byte(m[2])}
		if i, seen := byExt[ext]; seen {
			out[i] = art
			continue
		}
		byExt[ext] = len(out)
		out = append(out, art)
	}

	if svg, ok := svgFragment(text); ok {
		out = append(out, Artifact{Kind: KindSVG, Label: "svg", Ext: "svg", Content: []byte(svg)})
	}
	if html, ok := htmlFragment(text); ok {
		out = append(out, Artifact{Kind: KindHTML, Label: "html", Ext: "html", Content: []byte(html)})
	}
	return out
}

// svgFragment returns the first <svg ...>...</svg> region, inclusive of both
// tags, matching case-insensitively. Without a closing tag there is no
// fragment.
func svgFragment(text string) (string, bool) {
	lower := strings.ToLower(text)
	start := strings.Index(lower, "<svg")
	if start < 0 {
		return "", false
	}
	end := strings.Index(lower[start:], "</svg>")
	if end < 0 {
		return "", false
	}
	return text[start : start+end+len("</svg>")], true
}

// htmlFragment returns the first <html ...>...</html> region inclusive, or
// everything from <html to the end of the text when the closing tag is
// missing.
func htmlFragment(text string) (string, bool) {
	lower := strings.ToLower(text)
	start := strings.Index(lower, "<html")
	if start < 0 {
		return "", false
	}
	end := strings.Index(lower[start:], "</html>")
	if end < 0 {
		return text[start:], true
	}
	return text[start : start+end+len("</html>")], true
}
