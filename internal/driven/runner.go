package driven

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/BetterCallFirewall/wildfire-client/internal/config"
	"github.com/BetterCallFirewall/wildfire-client/internal/models"
	"github.com/BetterCallFirewall/wildfire-client/internal/printer"
	"github.com/BetterCallFirewall/wildfire-client/internal/wildfire"
)

// ErrMissingHash ответ на загрузку не содержит wildfire.upload-file-info.md5
var ErrMissingHash = errors.New("submission response has no md5")

var md5Path = []string{"wildfire", "upload-file-info", "md5"}

// ReportFetcher запрос отчёта по хэшу
type ReportFetcher interface {
	GetReport(ctx context.Context, apiKey, hash string) (models.Node, error)
}

// FileSubmitter загрузка файла на анализ
type FileSubmitter interface {
	SubmitFile(ctx context.Context, apiKey, path string) (models.Node, error)
}

// Runner выполняет один проход: lookup, либо submit и затем lookup
type Runner struct {
	fetcher   ReportFetcher
	submitter FileSubmitter
	printer   *printer.Printer
	log       zerolog.Logger
}

func NewRunner(fetcher ReportFetcher, submitter FileSubmitter, p *printer.Printer, log zerolog.Logger) *Runner {
	return &Runner{
		fetcher:   fetcher,
		submitter: submitter,
		printer:   p,
		log:       log,
	}
}

// Run ошибки разбора ответов печатаются и не прерывают работу,
// остальные ошибки возвращаются вызывающему.
func (r *Runner) Run(ctx context.Context, cfg config.InvocationConfig) error {
	switch cfg.Action {
	case config.ActionLookup:
		return r.lookup(ctx, cfg)
	case config.ActionSubmit:
		return r.submit(ctx, cfg)
	default:
		return fmt.Errorf("unknown action %q", cfg.Action)
	}
}

func (r *Runner) lookup(ctx context.Context, cfg config.InvocationConfig) error {
	r.log.Debug().Str("hash", cfg.Hash).Msg("looking up report")

	tree, ok, err := r.recoverParse(r.fetcher.GetReport(ctx, cfg.APIKey, cfg.Hash))
	if err != nil {
		return fmt.Errorf("fetching report for %s: %w", cfg.Hash, err)
	}
	return r.printer.PrintResults(tree, ok)
}

func (r *Runner) submit(ctx context.Context, cfg config.InvocationConfig) error {
	r.log.Debug().Str("file", cfg.FilePath).Msg("submitting file")

	tree, ok, err := r.recoverParse(r.submitter.SubmitFile(ctx, cfg.APIKey, cfg.FilePath))
	if err != nil {
		return fmt.Errorf("submitting %s: %w", cfg.FilePath, err)
	}
	if err := r.printer.PrintRaw(tree, ok); err != nil {
		return err
	}

	hash, err := tree.LookupString(md5Path...)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMissingHash, err)
	}
	r.log.Debug().Str("hash", hash).Msg("file accepted")

	return r.lookup(ctx, cfg.WithHash(hash))
}

// recoverParse превращает *wildfire.ParseError в отсутствующий результат,
// напечатав сообщение. Прочие ошибки пробрасываются.
func (r *Runner) recoverParse(tree models.Node, err error) (models.Node, bool, error) {
	if err == nil {
		return tree, true, nil
	}

	var parseErr *wildfire.ParseError
	if errors.As(err, &parseErr) {
		r.printer.PrintError(parseErr)
		r.log.Debug().Str("url", parseErr.URL).Int("status", parseErr.StatusCode).Msg("response is not xml")
		return models.Node{}, false, nil
	}
	return models.Node{}, false, err
}
