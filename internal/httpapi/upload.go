package httpapi

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"mycally/internal/syllabus"
)

// fileBody is a base64 file inside a JSON request. Data may carry a
// data URL prefix, which also supplies the MIME type when none is given.
type fileBody struct {
	Name     string `json:"name"`
	Data     string `json:"data"`
	MIMEType string `json:"mimeType"`
}

type decodedFile struct {
	Name     string
	MIMEType string
	Data     []byte
}

func (f fileBody) decode(limit int64) (decodedFile, error) {
	if strings.TrimSpace(f.Data) == "" {
		return decodedFile{}, errors.New("no file data provided")
	}
	mime := strings.TrimSpace(f.MIMEType)
	if mime == "" && strings.HasPrefix(f.Data, "data:") {
		if end := strings.IndexAny(f.Data, ";,"); end > len("data:") {
			mime = f.Data[len("data:"):end]
		}
	}
	raw := syllabus.StripDataURL(f.Data)
	if int64(base64.StdEncoding.DecodedLen(len(raw))) > limit+3 {
		return decodedFile{}, fmt.Errorf("file size should be less than %d MB", limit>>20)
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return decodedFile{}, errors.New("file data is not valid base64")
	}
	if int64(len(data)) > limit {
		return decodedFile{}, fmt.Errorf("file size should be less than %d MB", limit>>20)
	}
	return decodedFile{Name: f.Name, MIMEType: mime, Data: data}, nil
}
