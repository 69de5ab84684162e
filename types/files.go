package types

// FileRecord is one file selected for upload: a display name and the URL its
// content is retrieved from. Records are addressed by index, so duplicates are fine.
type FileRecord struct {
	Filename string `json:"filename" yaml:"filename"`
	URL      string `json:"url" yaml:"url"`
}

// UploadConfig describes where a batch is submitted and what travels with each file.
type UploadConfig struct {
	Action    string    `json:"action" yaml:"action"`
	ExtraData ExtraData `json:"extraData,omitzero" yaml:"extraData,omitempty"`
}

// FormField is a single resolved (name, value) pair attached to a submission.
type FormField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ResolvedFields is the canonical form of ExtraData, computed once per batch.
// When HasBlob is set, Blob is sent as one pre-formed payload and Fields is empty.
type ResolvedFields struct {
	Fields  []FormField `json:"fields,omitempty"`
	Blob    string      `json:"blob,omitempty"`
	HasBlob bool        `json:"hasBlob,omitempty"`
}

// IsEmpty reports whether nothing needs to be attached.
func (r ResolvedFields) IsEmpty() bool {
	return !r.HasBlob && len(r.Fields) == 0
}
