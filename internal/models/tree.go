package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound возвращается Lookup, когда путь отсутствует в дереве ответа
var ErrNotFound = errors.New("key not found")

// Kind тег варианта узла дерева ответа
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindMapping
	KindSequence
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindMapping:
		return "mapping"
	case KindSequence:
		return "sequence"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Field пара ключ-значение внутри Mapping. Порядок полей совпадает с порядком в документе.
type Field struct {
	Key   string
	Value Node
}

// Node универсальное дерево ответа WildFire: Null | String | Mapping | Sequence.
// Нулевое значение Node это Null.
type Node struct {
	kind   Kind
	str    string
	fields []Field
	items  []Node
}

// Null возвращает пустой узел
func Null() Node { return Node{} }

// String возвращает строковый узел
func String(s string) Node { return Node{kind: KindString, str: s} }

// Mapping возвращает упорядоченный словарь из полей
func Mapping(fields ...Field) Node {
	return Node{kind: KindMapping, fields: fields}
}

// Sequence возвращает упорядоченный список
func Sequence(items ...Node) Node {
	return Node{kind: KindSequence, items: items}
}

func (n Node) Kind() Kind { return n.kind }

func (n Node) IsNull() bool { return n.kind == KindNull }

// Str возвращает значение строкового узла
func (n Node) Str() (string, bool) {
	if n.kind != KindString {
		return "", false
	}
	return n.str, true
}

// Fields возвращает поля словаря (nil для остальных видов)
func (n Node) Fields() []Field { return n.fields }

// Items возвращает элементы списка (nil для остальных видов)
func (n Node) Items() []Node { return n.items }

// Get ищет ключ на верхнем уровне словаря
func (n Node) Get(key string) (Node, bool) {
	if n.kind != KindMapping {
		return Node{}, false
	}
	for _, f := range n.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return Node{}, false
}

// Lookup спускается по вложенным словарям. Отсутствующий ключ или
// не-словарь на пути дают ошибку, оборачивающую ErrNotFound.
func (n Node) Lookup(path ...string) (Node, error) {
	cur := n
	for i, key := range path {
		next, ok := cur.Get(key)
		if !ok {
			return Node{}, fmt.Errorf("%w: %s", ErrNotFound, strings.Join(path[:i+1], "."))
		}
		cur = next
	}
	return cur, nil
}

// LookupString то же, что Lookup, но требует строковый лист
func (n Node) LookupString(path ...string) (string, error) {
	leaf, err := n.Lookup(path...)
	if err != nil {
		return "", err
	}
	s, ok := leaf.Str()
	if !ok {
		return "", fmt.Errorf("%w: %s is %s, not string", ErrNotFound, strings.Join(path, "."), leaf.kind)
	}
	return s, nil
}

// set добавляет значение в словарь. Повторяющийся ключ превращается в Sequence
// на позиции первого вхождения.
func (n *Node) set(key string, value Node) {
	for i := range n.fields {
		if n.fields[i].Key != key {
			continue
		}
		existing := n.fields[i].Value
		if existing.kind == KindSequence {
			n.fields[i].Value.items = append(existing.items, value)
		} else {
			n.fields[i].Value = Sequence(existing, value)
		}
		return
	}
	n.fields = append(n.fields, Field{Key: key, Value: value})
}
