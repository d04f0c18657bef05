package gemini

import (
	"encoding/base64"
	"strings"
)

// Part is one piece of a message: text or inline binary data.
type Part struct {
	Text       string `json:"text,omitempty"`
	InlineData *Blob  `json:"inlineData,omitempty"`
}

// Blob is base64 encoded inline data such as a PDF.
type Blob struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

// Content is a message with a role of "user" or "model".
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Request is what callers hand to a Model.
type Request struct {
	System   string
	Contents []Content
	// JSON asks the model to answer with application/json.
	JSON bool
}

// Text builds a text part.
func Text(s string) Part { return Part{Text: s} }

// PDF builds an inline PDF part from raw bytes.
func PDF(data []byte) Part {
	return Part{InlineData: &Blob{MIMEType: "application/pdf", Data: base64.StdEncoding.EncodeToString(data)}}
}

// File builds an inline part with an explicit MIME type.
func File(mimeType string, data []byte) Part {
	return Part{InlineData: &Blob{MIMEType: mimeType, Data: base64.StdEncoding.EncodeToString(data)}}
}

// User wraps parts in a user message.
func User(parts ...Part) Content { return Content{Role: "user", Parts: parts} }

// ModelTurn wraps text in a model (assistant) message.
func ModelTurn(text string) Content { return Content{Role: "model", Parts: []Part{Text(text)}} }

type generationConfig struct {
	ResponseMIMEType string `json:"responseMimeType,omitempty"`
}

type wireRequest struct {
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
	Contents          []Content         `json:"contents"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type wireResponse struct {
	Candidates []struct {
		Content      Content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (r wireResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}
