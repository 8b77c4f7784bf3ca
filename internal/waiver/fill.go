package waiver

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
)

// Placeholder names recognized in templates.
const (
	TokenJobLocation   = "job_location"
	TokenThroughDate   = "through_date"
	TokenAmount        = "amount"
	TokenSignature     = "signature"
	TokenSignatureDate = "signature_date"
)

// Tokens lists every placeholder in fill order.
var Tokens = []string{TokenJobLocation, TokenThroughDate, TokenAmount, TokenSignature, TokenSignatureDate}

func placeholder(name string) string { return "{{" + name + "}}" }

// reText matches one run text element. Its body never contains markup.
var reText = regexp.MustCompile(`<w:t(\s[^>]*)?>([^<]*)</w:t>`)

// lineBreak closes the current text element, emits a break and reopens.
const lineBreak = `</w:t><w:br/><w:t xml:space="preserve">`

// Substitute replaces placeholders inside each run text of the fillable
// parts of docx. A placeholder split across runs is left as is; the names of
// such placeholders are returned.
func Substitute(docx []byte, values map[string]string) ([]byte, []string, error) {
	zr, err := zip.NewReader(bytes.NewReader(docx), int64(len(docx)))
	if err != nil {
		return nil, nil, fmt.Errorf("open docx: %w", err)
	}

	names := orderedNames(values)
	pairs := make([]string, 0, 2*len(names))
	for _, n := range names {
		pairs = append(pairs, placeholder(n), values[n])
	}
	repl := strings.NewReplacer(pairs...)

	var out bytes.Buffer
	zw := zip.NewWriter(&out)
	unfilled := map[string]struct{}{}

	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", f.Name, err)
		}

		if fillablePart(f.Name) {
			for _, name := range splitPlaceholders(content, names) {
				unfilled[name] = struct{}{}
			}
			content = fillPart(content, repl)
		}

		hdr := f.FileHeader
		w, err := zw.CreateHeader(&hdr)
		if err != nil {
			return nil, nil, fmt.Errorf("write %s: %w", f.Name, err)
		}
		if _, err := w.Write(content); err != nil {
			return nil, nil, fmt.Errorf("write %s: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, nil, fmt.Errorf("close docx: %w", err)
	}

	missed := make([]string, 0, len(unfilled))
	for n := range unfilled {
		missed = append(missed, n)
	}
	sort.Strings(missed)
	return out.Bytes(), missed, nil
}

// orderedNames lists the names of values in Tokens order, then any others
// sorted.
func orderedNames(values map[string]string) []string {
	names := make([]string, 0, len(values))
	known := map[string]bool{}
	for _, t := range Tokens {
		known[t] = true
		if _, ok := values[t]; ok {
			names = append(names, t)
		}
	}
	var extra []string
	for n := range values {
		if !known[n] {
			extra = append(extra, n)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}

// fillPart substitutes placeholders in one pass per run text, so a value
// that itself looks like a placeholder is written literally.
func fillPart(content []byte, repl *strings.Replacer) []byte {
	return reText.ReplaceAllFunc(content, func(elem []byte) []byte {
		sub := reText.FindSubmatch(elem)
		text, err := unescape(sub[2])
		if err != nil || !strings.Contains(text, "{{") {
			return elem
		}
		filled := repl.Replace(text)
		if filled == text {
			return elem
		}

		lines := strings.Split(filled, "\n")
		for i, l := range lines {
			lines[i] = escape(l)
		}
		var b bytes.Buffer
		b.WriteString(`<w:t xml:space="preserve">`)
		b.WriteString(strings.Join(lines, lineBreak))
		b.WriteString(`</w:t>`)
		return b.Bytes()
	})
}

// splitPlaceholders reports placeholders visible in the concatenated run
// text of the unfilled part but not whole inside any single run, which
// happens when Word split them over several runs.
func splitPlaceholders(content []byte, names []string) []string {
	var runs []string
	var b strings.Builder
	for _, sub := range reText.FindAllSubmatch(content, -1) {
		if text, err := unescape(sub[2]); err == nil {
			runs = append(runs, text)
			b.WriteString(text)
		}
	}
	all := b.String()
	var split []string
	for _, name := range names {
		ph := placeholder(name)
		whole := 0
		for _, r := range runs {
			whole += strings.Count(r, ph)
		}
		if strings.Count(all, ph) > whole {
			split = append(split, name)
		}
	}
	return split
}

type textElement struct {
	Content string `xml:",chardata"`
}

func unescape(raw []byte) (string, error) {
	var t textElement
	if err := xml.Unmarshal(append(append([]byte("<t>"), raw...), "</t>"...), &t); err != nil {
		return "", err
	}
	return t.Content, nil
}

func escape(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
