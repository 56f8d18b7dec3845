package llm

import (
	"encoding/base64"
	"mime"
	"path/filepath"
	"strings"
)

// DataURL encodes an attachment as a data: URL for providers that take inline images.
func DataURL(att Attachment) string {
	return "data:" + MIMETypeOf(att) + ";base64," + base64.StdEncoding.EncodeToString(att.Data)
}

// MIMETypeOf returns the attachment's MIME type, guessing from its name when unset.
func MIMETypeOf(att Attachment) string {
	if att.MIMEType != "" {
		return att.MIMEType
	}
	ext := strings.ToLower(filepath.Ext(att.Name))
	if mt := mime.TypeByExtension(ext); mt != "" {
		return mt
	}
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
