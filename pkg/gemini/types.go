package gemini

// ImageInput is a single inline image handed to the model. DataBase64 may be
// a bare base64 payload or a full data URL; the prefix is stripped on send.
type ImageInput struct {
	DataBase64 string
	MimeType   string
}

// Schema is a subset of the OpenAPI schema accepted by generationConfig.
type Schema struct {
	Type       string            `json:"type"`
	Properties map[string]Schema `json:"properties,omitempty"`
	Items      *Schema           `json:"items,omitempty"`
	Required   []string          `json:"required,omitempty"`
}
