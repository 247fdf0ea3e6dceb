package models

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

const (
	attrPrefix = "@"
	textKey    = "#text"

	xmlnsPrefix = "xmlns"
	xmlPrefix   = "xml"
	xmlURL      = "http://www.w3.org/XML/1998/namespace"
)

var utf8BOM = []byte("\xef\xbb\xbf")

// element накапливает содержимое открытого XML-элемента до его закрытия
type element struct {
	name    string
	content Node
	text    strings.Builder

	// prefix -> namespace URL, объявленные на этом элементе
	ns map[string]string
}

func (e *element) node() Node {
	text := strings.TrimSpace(e.text.String())
	if len(e.content.fields) == 0 {
		if text == "" {
			return Null()
		}
		return String(text)
	}
	if text != "" {
		e.content.set(textKey, String(text))
	}
	return e.content
}

// ParseXML превращает XML-документ в дерево: корень становится словарём
// из одного ключа, атрибуты получают префикс "@", текст рядом с атрибутами
// или детьми хранится под "#text", повторяющиеся дети собираются в Sequence.
// Имена сохраняют префикс пространства имён как в документе ("ns:tag").
// Ведущий BOM пропускается, кодировки кроме UTF-8 берутся из XML-декларации.
func ParseXML(r io.Reader) (Node, error) {
	br := bufio.NewReader(r)
	if head, _ := br.Peek(len(utf8BOM)); bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
	}

	dec := xml.NewDecoder(br)
	dec.CharsetReader = charset.NewReaderLabel

	var (
		stack []*element
		root  *Node
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Node{}, fmt.Errorf("parsing xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &element{content: Mapping(), ns: declaredNamespaces(t.Attr)}
			stack = append(stack, el)
			el.name = qualifiedName(stack, t.Name, true)
			if root != nil {
				return Node{}, fmt.Errorf("parsing xml: junk after document element <%s>", el.name)
			}
			for _, attr := range t.Attr {
				el.content.set(attrPrefix+qualifiedName(stack, attr.Name, false), String(attr.Value))
			}

		case xml.EndElement:
			el := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			value := el.node()
			if len(stack) == 0 {
				doc := Mapping(Field{Key: el.name, Value: value})
				root = &doc
				continue
			}
			stack[len(stack)-1].content.set(el.name, value)

		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
				continue
			}
			if strings.TrimSpace(string(t)) != "" {
				return Node{}, errors.New("parsing xml: text outside of document element")
			}
		}
	}

	if root == nil {
		return Node{}, errors.New("parsing xml: no element found")
	}
	return *root, nil
}

func declaredNamespaces(attrs []xml.Attr) map[string]string {
	var ns map[string]string
	for _, attr := range attrs {
		prefix := ""
		switch {
		case attr.Name.Space == xmlnsPrefix:
			prefix = attr.Name.Local
		case attr.Name.Space == "" && attr.Name.Local == xmlnsPrefix:
		default:
			continue
		}
		if ns == nil {
			ns = make(map[string]string)
		}
		ns[prefix] = attr.Value
	}
	return ns
}

// qualifiedName возвращает имя в том виде, в каком оно записано в документе.
// encoding/xml подменяет префикс на URL пространства имён, поэтому префикс
// восстанавливается по объявлениям открытых элементов.
func qualifiedName(stack []*element, n xml.Name, isElement bool) string {
	switch n.Space {
	case "":
		return n.Local
	case xmlnsPrefix:
		return xmlnsPrefix + ":" + n.Local
	case xmlURL:
		return xmlPrefix + ":" + n.Local
	}

	for i := len(stack) - 1; i >= 0; i-- {
		for prefix, url := range stack[i].ns {
			if url != n.Space {
				continue
			}
			if prefix == "" {
				// атрибуты не наследуют пространство имён по умолчанию
				if isElement {
					return n.Local
				}
				continue
			}
			return prefix + ":" + n.Local
		}
	}
	// необъявленный префикс encoding/xml оставляет как есть
	return n.Space + ":" + n.Local
}
