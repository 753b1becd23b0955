package ai

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Prompts holds the instruction text for each analysis strategy. Fields left
// empty in the override file fall back to the built-in defaults.
type Prompts struct {
	Transcript  string `yaml:"transcript"`
	CoverArt    string `yaml:"cover_art"`
	PDFSummary  string `yaml:"pdf_summary"`
	DirectImage string `yaml:"direct_image"`
	SavedLink   string `yaml:"saved_link"`
	TextOnly    string `yaml:"text_only"`
}

const (
	defaultTranscript = `Transcribe the attached audio verbatim.
Return only the spoken words, with no commentary, labels, or timestamps.
If there is no speech, return an empty string.`

	defaultCoverArt = `The attached image is album or track cover art.
Return a JSON object with exactly these fields:
  "colors": an array of up to three dominant color names (plain English, e.g. "teal"),
  "title": any title text embedded in the artwork, or null if none is legible.
Return only the JSON object, nothing else.`

	defaultPDFSummary = `Summarize the attached PDF document.
Return a JSON object with exactly these fields:
  "title": the document's title, or null,
  "description": a one- or two-sentence summary of what the document contains.
Return only the JSON object, nothing else.`

	defaultDirectImage = `The attached image is a photo a user saved for later.
Return a JSON object with exactly these fields:
  "content_type": "product" if the photo clearly shows a single item for sale, otherwise null,
  "title": a short title for the photo, or null,
  "description": one sentence describing what is shown, or null,
  "price": the price ONLY if it is unambiguously visible on a single hero item.
A gallery or listing page showing multiple items must yield "price": null.
Any photo that is not clearly a single product must yield "content_type": null.
Return only the JSON object, nothing else.`

	defaultSavedLink = `The attached image is a screenshot of a web page a user saved for later.
Classify the page and return a JSON object with exactly these fields:
  "content_type": one of "article", "video", "product", "xpost", "tool", "pdf",
  "secondary_type": a second category from the same list if the page genuinely spans two, otherwise null,
  "title": the page's title, or null,
  "description": a one-sentence summary, or null,
  "price": the price if the page sells a single clearly priced item, otherwise null.
Return only the JSON object, nothing else.`

	defaultTextOnly = `Classify the saved content described below.
Return a JSON object with exactly these fields:
  "content_type": one of "article", "video", "product", "xpost", "tool", "pdf", or null if unclear,
  "title": a short title, or null,
  "description": a one-sentence summary, or null.
Return only the JSON object, nothing else.`
)

// DefaultPrompts returns the built-in prompt set.
func DefaultPrompts() Prompts {
	return Prompts{
		Transcript:  defaultTranscript,
		CoverArt:    defaultCoverArt,
		PDFSummary:  defaultPDFSummary,
		DirectImage: defaultDirectImage,
		SavedLink:   defaultSavedLink,
		TextOnly:    defaultTextOnly,
	}
}

// LoadPrompts reads the first existing override file from paths and fills any
// unset fields with defaults. No file existing is not an error; the defaults
// are returned as-is.
func LoadPrompts(paths ...string) (Prompts, error) {
	var p Prompts
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Prompts{}, err
		}
		if err := yaml.Unmarshal(data, &p); err != nil {
			return Prompts{}, fmt.Errorf("parse %s: %w", path, err)
		}
		break
	}
	p.fillDefaults()
	return p, nil
}

func (p *Prompts) fillDefaults() {
	d := DefaultPrompts()
	if p.Transcript == "" {
		p.Transcript = d.Transcript
	}
	if p.CoverArt == "" {
		p.CoverArt = d.CoverArt
	}
	if p.PDFSummary == "" {
		p.PDFSummary = d.PDFSummary
	}
	if p.DirectImage == "" {
		p.DirectImage = d.DirectImage
	}
	if p.SavedLink == "" {
		p.SavedLink = d.SavedLink
	}
	if p.TextOnly == "" {
		p.TextOnly = d.TextOnly
	}
}
