package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jdcera4/pruebaBot/internal/domain"
	"github.com/jdcera4/pruebaBot/pkg/logger"
)

// DefaultMaxBytes caps attachment size at 64 MiB, matching what the gateway
// will accept.
const DefaultMaxBytes = 64 << 20

var mimeByExtension = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".mp4":  "video/mp4",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".txt":  "text/plain",
	".csv":  "text/csv",
}

// Resolver loads campaign attachments from disk and prepares them for the
// gateway, including the document fallback used when native video sends fail.
type Resolver struct {
	maxBytes int64
}

func NewResolver(maxBytes int64) *Resolver {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Resolver{maxBytes: maxBytes}
}

// Resolve reads the file at path and returns it typed by extension. Videos get
// a DocumentFallback attached so the send ladder can retry them as documents.
func (r *Resolver) Resolve(path, originalName string) (*domain.Media, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to stat media file: %w", err)
	}

	if info.Size() > r.maxBytes {
		return nil, &domain.MediaTooLargeError{Size: info.Size(), Limit: r.maxBytes}
	}

	name := originalName
	if name == "" {
		name = filepath.Base(path)
	}

	ext := strings.ToLower(filepath.Ext(name))
	mimeType, ok := mimeByExtension[ext]
	if !ok {
		return nil, domain.ErrUnsupportedType
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read media file: %w", err)
	}

	m := &domain.Media{
		MimeType: mimeType,
		Filename: CleanFileName(name),
		Data:     data,
	}

	if m.IsVideo() {
		m.DocumentFallback = &domain.Media{
			MimeType: "application/octet-stream",
			Filename: m.Filename,
			Data:     data,
		}
		logger.Debugf("Prepared document fallback for video %s (%d bytes)", m.Filename, len(data))
	}

	return m, nil
}

// CleanFileName normalizes an attachment name so the gateway never chokes on
// it: accents transliterated, whitespace and dashes collapsed to underscores,
// lowercased and capped at 40 characters. Names that come out shorter than
// three characters are replaced with a timestamped placeholder.
func CleanFileName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	base := strings.TrimSuffix(name, filepath.Ext(name))

	var b strings.Builder
	for _, r := range strings.ToLower(base) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_' || r == '.':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '\t':
			b.WriteRune('_')
		default:
			if t, ok := translit[r]; ok {
				b.WriteRune(t)
			}
		}
	}

	cleaned := collapseUnderscores(b.String())

	if len(cleaned) > 40 {
		cleaned = cleaned[:40]
		cleaned = strings.TrimRight(cleaned, "_")
	}

	if len(cleaned) < 3 {
		cleaned = fmt.Sprintf("file_%d", time.Now().Unix())
	}

	return cleaned + ext
}

var translit = map[rune]rune{
	'á': 'a', 'é': 'e', 'í': 'i', 'ó': 'o', 'ú': 'u',
	'à': 'a', 'è': 'e', 'ì': 'i', 'ò': 'o', 'ù': 'u',
	'ä': 'a', 'ë': 'e', 'ï': 'i', 'ö': 'o', 'ü': 'u',
	'â': 'a', 'ê': 'e', 'î': 'i', 'ô': 'o', 'û': 'u',
	'ñ': 'n', 'ç': 'c',
}

func collapseUnderscores(s string) string {
	var b strings.Builder
	prev := false
	for _, r := range s {
		if r == '_' {
			if prev {
				continue
			}
			prev = true
		} else {
			prev = false
		}
		b.WriteRune(r)
	}
	return strings.Trim(b.String(), "_")
}
