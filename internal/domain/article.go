// Package domain provides domain models used across the application.
package domain

import "time"

// ArticleStub is a lightweight reference to an article discovered on a
// listing page, prior to full extraction. Identity is the absolute URL.
type ArticleStub struct {
	// URL is the absolute article URL and the stub's unique key
	URL string `json:"url"`
	// Title as shown on the listing page
	Title string `json:"title"`
	// Summary is the optional teaser text from the listing
	Summary string `json:"summary,omitempty"`
	// ImageSrc is the optional listing thumbnail URL
	ImageSrc string `json:"image_src,omitempty"`
}

// BlockKind classifies a content block produced by the extractor walk.
type BlockKind string

const (
	BlockParagraph  BlockKind = "paragraph"
	BlockHeading    BlockKind = "heading"
	BlockBlockquote BlockKind = "blockquote"
	BlockList       BlockKind = "list"
	BlockFigure     BlockKind = "figure"
)

// Block is one classified unit of article content in document order.
type Block struct {
	Kind BlockKind `json:"kind"`
	// Text holds the block's text content. For lists, items are
	// newline-separated; for figures it holds the caption.
	Text string `json:"text,omitempty"`
	// Level is the heading level (2-4) when Kind is BlockHeading.
	Level int `json:"level,omitempty"`
	// ImageSrc is the resolved image location when Kind is BlockFigure.
	// After localization it points at the local copy, or at the original
	// remote URL when localization failed.
	ImageSrc string `json:"image_src,omitempty"`
	// Items holds individual list entries when Kind is BlockList.
	Items []string `json:"items,omitempty"`
}

// ArticleData carries the metadata and content blocks extracted from one
// article page before rendering. All metadata fields are optional.
type ArticleData struct {
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary,omitempty"`
	Byline    string    `json:"byline,omitempty"`
	Category  string    `json:"category,omitempty"`
	Published string    `json:"published,omitempty"`
	MainImage string    `json:"main_image,omitempty"`
	Blocks    []Block   `json:"blocks,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}

// ExtractionResult is the outcome of one extraction attempt. It is produced
// exactly once per attempt and never mutated. Content is always a complete
// rendered document: on failure it is an error document describing what went
// wrong, never an empty string.
type ExtractionResult struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
