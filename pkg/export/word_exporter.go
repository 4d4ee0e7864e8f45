package export

import (
	"bytes"
	"fmt"
	"strings"
)

// WordExporter renders case documents as RTF, which Word opens natively.
type WordExporter struct{}

// NewWordExporter constructs a Word exporter.
func NewWordExporter() *WordExporter {
	return &WordExporter{}
}

// Render produces an RTF document from the case sections.
func (e *WordExporter) Render(doc Document) ([]byte, error) {
	if len(doc.Sections) == 0 {
		return nil, fmt.Errorf("word export requires at least one section")
	}

	buf := &bytes.Buffer{}
	buf.WriteString(`{\rtf1\ansi\deff0{\fonttbl{\f0 Times New Roman;}}\f0\fs22`)

	if doc.Title != "" {
		fmt.Fprintf(buf, `{\pard\qc\b\fs32 %s\par}`, escapeRTF(strings.ToUpper(doc.Title)))
	}
	if doc.RefCode != "" {
		fmt.Fprintf(buf, `{\pard\qc\i %s\par}`, escapeRTF(doc.RefCode))
	}
	buf.WriteString(`{\pard\par}`)

	for _, section := range doc.Sections {
		fmt.Fprintf(buf, `{\pard\b\fs26 %s\par}`, escapeRTF(section.Heading))
		for _, p := range section.Paragraphs {
			fmt.Fprintf(buf, `{\pard\sa120 %s\par}`, escapeRTF(p))
		}
	}

	buf.WriteString("}")
	return buf.Bytes(), nil
}

func escapeRTF(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '\\' || r == '{' || r == '}':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\line `)
		case r > 127:
			fmt.Fprintf(&b, `\u%d?`, r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
