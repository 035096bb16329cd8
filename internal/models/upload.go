package models

import "time"

// UploadedFile records metadata for a stored proof document. The FilePath
// is the blob reference other entities store as proof_file.
type UploadedFile struct {
	ID         string    `db:"id" json:"id"`
	Filename   string    `db:"filename" json:"filename"`
	FilePath   string    `db:"file_path" json:"file_path"`
	MimeType   string    `db:"mime_type" json:"mime_type"`
	SizeBytes  int64     `db:"size_bytes" json:"size_bytes"`
	UploadedBy string    `db:"uploaded_by" json:"uploaded_by"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
