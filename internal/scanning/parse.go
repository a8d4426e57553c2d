package scanning

import (
	"fmt"
	"strings"
)

// noTextMarker is what the prompt asks models to answer for unreadable images
const noTextMarker = "NO TEXT"

// cleanTranscript normalizes a model's transcription into plain receipt lines
func cleanTranscript(text string) (string, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSpace(text)

	// Remove markdown code blocks if present
	text = strings.TrimPrefix(text, "```text")
	text = strings.TrimPrefix(text, "```plaintext")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	if text == "" || strings.EqualFold(text, noTextMarker) {
		return "", fmt.Errorf("no text found in image")
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n"), nil
}

// languageNames turns tesseract-style hints ("nld+eng") into prompt text
func languageNames(hints string) string {
	names := map[string]string{
		"nld": "Dutch",
		"eng": "English",
		"deu": "German",
		"fra": "French",
	}
	var out []string
	for _, code := range strings.Split(hints, "+") {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if name, ok := names[code]; ok {
			out = append(out, name)
		} else {
			out = append(out, code)
		}
	}
	if len(out) == 0 {
		return "any language"
	}
	return strings.Join(out, " and ")
}
