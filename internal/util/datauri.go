package util

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// DataURI is a decoded base64 data URI.
type DataURI struct {
	MIMEType string
	Data     []byte
}

// ParseDataURI decodes "data:<mime>[;params];base64,<payload>".
func ParseDataURI(uri string) (*DataURI, error) {
	if !strings.HasPrefix(uri, "data:") {
		return nil, fmt.Errorf("not a data URI")
	}
	header, payload, ok := strings.Cut(uri[len("data:"):], ",")
	if !ok {
		return nil, fmt.Errorf("data URI has no payload")
	}
	params := strings.Split(header, ";")
	if params[len(params)-1] != "base64" {
		return nil, fmt.Errorf("data URI is not base64 encoded")
	}
	mime := params[0]
	if mime == "" {
		mime = "text/plain"
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode data URI payload: %w", err)
	}
	return &DataURI{MIMEType: mime, Data: data}, nil
}

// EncodeDataURI builds a base64 data URI for data of the given MIME type.
func EncodeDataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
