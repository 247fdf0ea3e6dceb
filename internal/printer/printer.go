package printer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/BetterCallFirewall/wildfire-client/internal/models"
)

// NoResultsMessage печатается, когда запрос отчёта ничего не вернул
const NoResultsMessage = "No results from the hash lookup to WildFire API"

// Printer выводит результаты WildFire в консоль
type Printer struct {
	out io.Writer
}

func New(out io.Writer) *Printer {
	return &Printer{out: out}
}

// Render превращает дерево в JSON с отступом в один пробел
func (p *Printer) Render(node models.Node) (string, error) {
	raw, err := node.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("encoding json: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", " "); err != nil {
		return "", fmt.Errorf("indenting json: %w", err)
	}
	return buf.String(), nil
}

// PrintResults печатает отчёт и пустую строку после него,
// либо NoResultsMessage, если результата нет.
func (p *Printer) PrintResults(node models.Node, ok bool) error {
	if !ok {
		_, err := fmt.Fprintln(p.out, NoResultsMessage)
		return err
	}

	text, err := p.Render(node)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(p.out, "%s\n\n\n", text)
	return err
}

// PrintRaw печатает ответ на загрузку файла как есть. Отсутствующий результат выводится как null.
func (p *Printer) PrintRaw(node models.Node, ok bool) error {
	if !ok {
		node = models.Null()
	}

	text, err := p.Render(node)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(p.out, text)
	return err
}

// PrintError печатает сообщение об ошибке разбора ответа
func (p *Printer) PrintError(err error) {
	fmt.Fprintln(p.out, err)
}
