package wildfire

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxDetailLen = 200

// ParseError ответ сервиса не удалось разобрать как XML.
// Вызывающий сам решает, печатать и продолжать или прерываться.
type ParseError struct {
	URL        string
	StatusCode int
	// Detail краткое содержимое тела, например заголовок HTML-страницы
	Detail string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Detail == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v (HTTP %d: %s)", e.Err, e.StatusCode, e.Detail)
}

func (e *ParseError) Unwrap() error { return e.Err }

// describeBody достаёт из не-XML ответа что-то читаемое для сообщения об ошибке.
// Для HTML это <title> или текст страницы, для остального первая строка.
func describeBody(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}

	if looksLikeHTML(trimmed) {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(trimmed))
		if err == nil {
			if title := collapseSpaces(doc.Find("title").First().Text()); title != "" {
				return truncate(title)
			}
			if text := collapseSpaces(doc.Find("body").Text()); text != "" {
				return truncate(text)
			}
		}
	}

	line, _, _ := strings.Cut(string(trimmed), "\n")
	return truncate(strings.TrimSpace(line))
}

func looksLikeHTML(body []byte) bool {
	head := strings.ToLower(string(body[:min(len(body), 512)]))
	return strings.Contains(head, "<html") || strings.Contains(head, "<!doctype html")
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string) string {
	if len(s) <= maxDetailLen {
		return s
	}
	return s[:maxDetailLen] + "..."
}
