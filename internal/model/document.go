package model

// UploadedDocument describes a picked file. Content is never read.
type UploadedDocument struct {
	Name      string `json:"name" yaml:"name"`
	SizeBytes int64  `json:"size_bytes" yaml:"size_bytes"`
}
