package config

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/pflag"
)

// Action что делать с WildFire: только запросить отчёт или сначала загрузить файл
type Action string

const (
	ActionLookup Action = "lookup"
	ActionSubmit Action = "submit"
)

// Значения по умолчанию для отсутствующих флагов
const (
	DefaultAPIKey   = "no-key-passed"
	DefaultFilePath = "test_pdf.pdf"
	DefaultHash     = "b60a8d7389cb4ee114146aa9f4768b28"
	DefaultAction   = ActionLookup

	ReportURL     = "https://wildfire.paloaltonetworks.com/publicapi/get/report"
	SubmissionURL = "https://wildfire.paloaltonetworks.com/publicapi/submit/file"
)

// ErrInvalidChoice значение флага вне допустимого набора
var ErrInvalidChoice = errors.New("invalid choice")

var (
	actionChoices = []string{string(ActionLookup), string(ActionSubmit)}
	debugChoices  = []string{"1", "0"}
)

// InvocationConfig параметры одного запуска. После Resolve не меняется,
// новый хэш получается через WithHash.
type InvocationConfig struct {
	Action        Action
	APIKey        string
	FilePath      string
	Hash          string
	Debug         bool
	ReportURL     string
	SubmissionURL string
}

// Default возвращает конфигурацию запуска без флагов
func Default() InvocationConfig {
	return InvocationConfig{
		Action:        DefaultAction,
		APIKey:        DefaultAPIKey,
		FilePath:      DefaultFilePath,
		Hash:          DefaultHash,
		ReportURL:     ReportURL,
		SubmissionURL: SubmissionURL,
	}
}

// WithHash возвращает копию конфигурации с другим хэшем
func (c InvocationConfig) WithHash(hash string) InvocationConfig {
	c.Hash = hash
	return c
}

// DebugOutput печатает все поля в формате "name : value", если включен debug
func (c InvocationConfig) DebugOutput(w io.Writer) {
	if !c.Debug {
		return
	}

	pairs := [][2]string{
		{"key", c.APIKey},
		{"file", c.FilePath},
		{"hash", c.Hash},
		{"debug", "1"},
		{"action", string(c.Action)},
		{"report_url", c.ReportURL},
		{"submission_url", c.SubmissionURL},
	}
	for _, p := range pairs {
		fmt.Fprintf(w, "%s : %s\n", p[0], p[1])
	}
}

// Flags сырые значения флагов командной строки
type Flags struct {
	fs *pflag.FlagSet

	action string
	hash   string
	file   string
	key    string
	debug  string
}

// BindFlags регистрирует флаги -a/-m/-f/-k/-d в наборе флагов
func BindFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	fs.StringVarP(&f.action, "action", "a", "", "Action to perform, lookup or submit then lookup {lookup,submit}")
	fs.StringVarP(&f.hash, "md5sum", "m", "", "If doing a lookup provide the md5 hash of the file")
	fs.StringVarP(&f.file, "file", "f", "", "the filename to use if doing a submit")
	fs.StringVarP(&f.key, "key", "k", "", "the api key to use to query the wildfire API")
	fs.StringVarP(&f.debug, "debug", "d", "", "set to 1 to debug values set {1,0}")
	return f
}

// Resolve проверяет допустимые значения и подставляет значения по умолчанию.
// Переданные -a/-d проверяются всегда, даже пустые. Для -m/-f/-k пустая строка
// считается отсутствующим флагом.
func (f *Flags) Resolve() (InvocationConfig, error) {
	if f.fs.Changed("action") {
		if err := checkChoice("action", f.action, actionChoices); err != nil {
			return InvocationConfig{}, err
		}
	}
	if f.fs.Changed("debug") {
		if err := checkChoice("debug", f.debug, debugChoices); err != nil {
			return InvocationConfig{}, err
		}
	}

	cfg := Default()
	if f.key != "" {
		cfg.APIKey = f.key
	}
	if f.file != "" {
		cfg.FilePath = f.file
	}
	if f.hash != "" {
		cfg.Hash = f.hash
	}
	if f.action != "" {
		cfg.Action = Action(f.action)
	}
	cfg.Debug = f.debug == "1"

	return cfg, nil
}

func checkChoice(name, value string, choices []string) error {
	for _, c := range choices {
		if value == c {
			return nil
		}
	}
	return fmt.Errorf("argument --%s: %w: %q (choose from %q)", name, ErrInvalidChoice, value, choices)
}
