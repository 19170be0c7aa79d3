package domain

import "strings"

// Media is a transport-ready attachment: declared MIME type, normalized
// filename and raw payload. For videos the resolver also prepares a
// document-typed representation carrying the same bytes, used as a degraded
// fallback when the native send is rejected.
type Media struct {
	MimeType         string
	Filename         string
	Data             []byte
	DocumentFallback *Media
}

func (m *Media) IsVideo() bool {
	return strings.HasPrefix(m.MimeType, "video/")
}
