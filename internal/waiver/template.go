package waiver

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/invoice-bundler/internal/common"
)

const documentPart = "word/document.xml"

// Template is a DOCX waiver with {{token}} placeholders.
type Template struct {
	Name    string
	Version string
	Data    []byte
}

// LoadTemplate reads and sanity-checks a DOCX template.
func LoadTemplate(path, version string) (Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Template{}, common.NewAppError(common.CodeConfig, "read waiver template", err)
	}
	t := Template{
		Name:    strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Version: version,
		Data:    data,
	}
	if _, err := t.documentXML(); err != nil {
		return Template{}, common.NewAppError(common.CodeConfig, "invalid waiver template "+path, err)
	}
	return t, nil
}

func (t Template) documentXML() ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(t.Data), int64(len(t.Data)))
	if err != nil {
		return nil, fmt.Errorf("not a docx archive: %w", err)
	}
	for _, f := range zr.File {
		if f.Name != documentPart {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
		return content, nil
	}
	return nil, fmt.Errorf("missing %s", documentPart)
}

// fillablePart reports whether a DOCX part may carry placeholders.
func fillablePart(name string) bool {
	if name == documentPart {
		return true
	}
	if !strings.HasPrefix(name, "word/") || !strings.HasSuffix(name, ".xml") {
		return false
	}
	base := strings.TrimPrefix(name, "word/")
	return strings.HasPrefix(base, "header") || strings.HasPrefix(base, "footer")
}
