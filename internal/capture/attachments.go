package capture

import "nebula-chat/internal/model"

// Attachments is the process-scoped list of picked files. It is not safe for
// concurrent use.
type Attachments struct {
	docs []model.UploadedDocument
}

func NewAttachments() *Attachments {
	return &Attachments{}
}

// Add appends descriptors in order. Duplicates and sizes are not checked.
func (a *Attachments) Add(docs ...model.UploadedDocument) {
	a.docs = append(a.docs, docs...)
}

func (a *Attachments) List() []model.UploadedDocument {
	out := make([]model.UploadedDocument, len(a.docs))
	copy(out, a.docs)
	return out
}

func (a *Attachments) Count() int {
	return len(a.docs)
}
