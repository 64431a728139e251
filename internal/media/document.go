package media

import (
	"regexp"
	"strings"
)

// introPhrase matches the boilerplate lead-ins vision models prepend
// despite being told not to.
var introPhrase = regexp.MustCompile(`(?is)^(Вот|Here is|Результат|Analysis|Извлеченный|Ниже).*?[:\n]`)

// ExportRecognizedDocument packages complex-recognition output as a
// downloadable markdown document: intro phrases stripped, a title heading
// prepended.
func ExportRecognizedDocument(text, title string) (string, []byte) {
	clean := strings.TrimSpace(introPhrase.ReplaceAllString(text, ""))

	var sb strings.Builder
	sb.WriteString("# ")
	sb.WriteString(title)
	sb.WriteString("\n\n")
	sb.WriteString(clean)
	sb.WriteString("\n")

	return "document.md", []byte(sb.String())
}
