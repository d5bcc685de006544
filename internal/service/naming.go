package service

import (
	"fmt"
	"path"
	"strings"

	"github.com/ds124wfegd/image-studio/internal/pkg/raster"
)

const maxNameLen = 64

// filename builds tag_<unix ms>[_<name>].<ext>. The original extension is
// dropped so the stored name always matches its encoding.
func (s *imageService) filename(tag, original string, format raster.Format) string {
	ts := s.now().UnixMilli()
	if base := sanitizeName(original); base != "" {
		return fmt.Sprintf("%s_%d_%s.%s", tag, ts, base, format.Ext())
	}
	return fmt.Sprintf("%s_%d.%s", tag, ts, format.Ext())
}

// sanitizeName reduces a client file name to a safe single path element.
func sanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" {
		return ""
	}
	name = strings.TrimSuffix(name, path.Ext(name))

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
		if b.Len() >= maxNameLen {
			break
		}
	}
	return strings.Trim(b.String(), "_")
}

// contentType maps a stored file name to its MIME type.
func contentType(filename string) string {
	f, err := raster.ParseFormat(path.Ext(filename))
	if err != nil {
		return "application/octet-stream"
	}
	return "image/" + string(f)
}
