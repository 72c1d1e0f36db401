package notes

const (
	titleMaxRunes = 50
	titleEllipsis = "..."
)

// Title derives a record title from the note content: at most 50 characters,
// with an ellipsis marker appended when the content was cut. Downstream
// consumers of the notebook rely on this exact convention, so it is applied
// identically to every record kind.
func Title(content string) string {
	runes := []rune(content)
	if len(runes) <= titleMaxRunes {
		return content
	}
	return string(runes[:titleMaxRunes]) + titleEllipsis
}
