package domain

import "time"

// StoredArticle describes one article document on disk.
type StoredArticle struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// LocalizeResult reports the outcome of localizing a single image.
type LocalizeResult struct {
	// Location is the local file path on success, or the original remote
	// URL when localization fell back.
	Location string `json:"location"`
	// Localized is true when Location points at a local file.
	Localized bool `json:"localized"`
	// Size is the stored file size in bytes when Localized.
	Size int64 `json:"size,omitempty"`
	// OriginalSize is the downloaded byte count before recompression.
	OriginalSize int64 `json:"original_size,omitempty"`
}
