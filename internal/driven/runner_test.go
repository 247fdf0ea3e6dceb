package driven

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BetterCallFirewall/wildfire-client/internal/config"
	"github.com/BetterCallFirewall/wildfire-client/internal/models"
	"github.com/BetterCallFirewall/wildfire-client/internal/printer"
	"github.com/BetterCallFirewall/wildfire-client/internal/wildfire"
)

// fakeWildfire записывает порядок вызовов и отдаёт заготовленные ответы
type fakeWildfire struct {
	calls []string

	report    models.Node
	reportErr error
	upload    models.Node
	uploadErr error
}

func (f *fakeWildfire) GetReport(_ context.Context, apiKey, hash string) (models.Node, error) {
	f.calls = append(f.calls, "report:"+hash)
	return f.report, f.reportErr
}

func (f *fakeWildfire) SubmitFile(_ context.Context, apiKey, path string) (models.Node, error) {
	f.calls = append(f.calls, "submit:"+path)
	return f.upload, f.uploadErr
}

func parse(t *testing.T, doc string) models.Node {
	t.Helper()
	tree, err := models.ParseXML(strings.NewReader(doc))
	require.NoError(t, err)
	return tree
}

func newRunner(fake *fakeWildfire) (*Runner, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return NewRunner(fake, fake, printer.New(out), zerolog.Nop()), out
}

func submitConfig() config.InvocationConfig {
	cfg := config.Default()
	cfg.Action = config.ActionSubmit
	cfg.FilePath = "foo.bin"
	return cfg
}

func TestRun_Lookup(t *testing.T) {
	fake := &fakeWildfire{report: parse(t, `<wildfire><file_info><malware>no</malware></file_info></wildfire>`)}
	runner, out := newRunner(fake)

	require.NoError(t, runner.Run(context.Background(), config.Default()))

	assert.Equal(t, []string{"report:" + config.DefaultHash}, fake.calls)
	assert.Contains(t, out.String(), `"malware": "no"`)
	assert.True(t, strings.HasSuffix(out.String(), "}\n\n\n"))
}

func TestRun_LookupParseFailurePrintsNoResults(t *testing.T) {
	fake := &fakeWildfire{reportErr: &wildfire.ParseError{Err: errors.New("parsing xml: no element found")}}
	runner, out := newRunner(fake)

	err := runner.Run(context.Background(), config.Default())
	require.NoError(t, err, "parse failures must not abort the lookup path")

	assert.Equal(t, "parsing xml: no element found\n"+printer.NoResultsMessage+"\n", out.String())
}

func TestRun_LookupTransportErrorIsFatal(t *testing.T) {
	fake := &fakeWildfire{reportErr: errors.New("executing request: connection refused")}
	runner, out := newRunner(fake)

	err := runner.Run(context.Background(), config.Default())
	require.Error(t, err)
	assert.Empty(t, out.String())
}

func TestRun_SubmitThenLookupWithExtractedHash(t *testing.T) {
	fake := &fakeWildfire{
		upload: parse(t, `<wildfire><upload-file-info><md5>d41d8cd98f00b204e9800998ecf8427e</md5></upload-file-info></wildfire>`),
		report: parse(t, `<wildfire><file_info><malware>yes</malware></file_info></wildfire>`),
	}
	runner, out := newRunner(fake)

	require.NoError(t, runner.Run(context.Background(), submitConfig()))

	assert.Equal(t, []string{
		"submit:foo.bin",
		"report:d41d8cd98f00b204e9800998ecf8427e",
	}, fake.calls)

	// raw submission result first, then the report
	output := out.String()
	uploadAt := strings.Index(output, `"upload-file-info"`)
	reportAt := strings.Index(output, `"malware": "yes"`)
	require.NotEqual(t, -1, uploadAt)
	require.NotEqual(t, -1, reportAt)
	assert.Less(t, uploadAt, reportAt)
}

func TestRun_SubmitMissingHashIsFatal(t *testing.T) {
	fake := &fakeWildfire{upload: parse(t, `<error><error-message>'Invalid API Key'</error-message></error>`)}
	runner, _ := newRunner(fake)

	err := runner.Run(context.Background(), submitConfig())
	require.ErrorIs(t, err, ErrMissingHash)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Equal(t, []string{"submit:foo.bin"}, fake.calls, "report must not be requested")
}

func TestRun_SubmitParseFailureIsFatalAfterPrintingNull(t *testing.T) {
	fake := &fakeWildfire{uploadErr: &wildfire.ParseError{Err: errors.New("parsing xml: no element found")}}
	runner, out := newRunner(fake)

	err := runner.Run(context.Background(), submitConfig())
	require.ErrorIs(t, err, ErrMissingHash)
	assert.Equal(t, "parsing xml: no element found\nnull\n", out.String())
	assert.Equal(t, []string{"submit:foo.bin"}, fake.calls)
}

func TestRun_SubmitMissingFileIsFatal(t *testing.T) {
	fake := &fakeWildfire{uploadErr: &fs.PathError{Op: "open", Path: "foo.bin", Err: fs.ErrNotExist}}
	runner, out := newRunner(fake)

	err := runner.Run(context.Background(), submitConfig())
	require.ErrorIs(t, err, fs.ErrNotExist)
	assert.Empty(t, out.String())
	assert.Equal(t, []string{"submit:foo.bin"}, fake.calls)
}

func TestRun_UnknownAction(t *testing.T) {
	fake := &fakeWildfire{}
	runner, _ := newRunner(fake)

	cfg := config.Default()
	cfg.Action = config.Action("delete")

	assert.Error(t, runner.Run(context.Background(), cfg))
	assert.Empty(t, fake.calls)
}
