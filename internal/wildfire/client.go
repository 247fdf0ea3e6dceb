package wildfire

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/BetterCallFirewall/wildfire-client/internal/config"
	"github.com/BetterCallFirewall/wildfire-client/internal/models"
)

const requestIDHeader = "X-Request-ID"

// Client HTTP клиент публичного API WildFire
type Client struct {
	httpClient *http.Client
	config     Config
}

// Config конфигурация клиента
type Config struct {
	ReportURL     string
	SubmissionURL string
	UserAgent     string
	// Timeout 0 означает таймауты транспорта по умолчанию
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zerolog.Logger
}

// NewClient создает клиента, подставляя значения по умолчанию
func NewClient(cfg Config) *Client {
	if cfg.ReportURL == "" {
		cfg.ReportURL = config.ReportURL
	}
	if cfg.SubmissionURL == "" {
		cfg.SubmissionURL = config.SubmissionURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "wildfire-client/1.0"
	}
	if cfg.Logger == nil {
		nop := zerolog.Nop()
		cfg.Logger = &nop
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		httpClient: httpClient,
		config:     cfg,
	}
}

// GetReport запрашивает отчёт по хэшу в XML-формате и разбирает его в дерево.
// Если тело не является XML, возвращается *ParseError.
func (c *Client) GetReport(ctx context.Context, apiKey, hash string) (models.Node, error) {
	form := url.Values{}
	form.Set("apikey", apiKey)
	form.Set("format", "xml")
	form.Set("hash", hash)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.ReportURL, strings.NewReader(form.Encode()))
	if err != nil {
		return models.Node{}, fmt.Errorf("creating report request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return c.do(req)
}

// SubmitFile загружает файл multipart-запросом. Файл открывается до отправки:
// если его нет, запрос не выполняется и ошибка удовлетворяет errors.Is(err, fs.ErrNotExist).
func (c *Client) SubmitFile(ctx context.Context, apiKey, path string) (models.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.Node{}, err
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("apikey", apiKey); err != nil {
		return models.Node{}, fmt.Errorf("writing apikey field: %w", err)
	}
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return models.Node{}, fmt.Errorf("creating file part: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return models.Node{}, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := mw.Close(); err != nil {
		return models.Node{}, fmt.Errorf("closing multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.SubmissionURL, &body)
	if err != nil {
		return models.Node{}, fmt.Errorf("creating submission request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return c.do(req)
}

// do выполняет запрос и разбирает ответ. Код ответа не проверяется:
// WildFire отдаёт XML с описанием ошибки и для 4xx.
func (c *Client) do(req *http.Request) (models.Node, error) {
	startTime := time.Now()
	requestID := uuid.NewString()

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set(requestIDHeader, requestID)

	log := c.config.Logger.With().Str("request_id", requestID).Str("url", req.URL.String()).Logger()
	log.Debug().Str("method", req.Method).Msg("sending request")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return models.Node{}, fmt.Errorf("executing request: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return models.Node{}, fmt.Errorf("reading response body: %w", err)
	}

	log.Debug().
		Int("status", httpResp.StatusCode).
		Int("bytes", len(body)).
		Dur("duration", time.Since(startTime)).
		Msg("response received")

	tree, err := models.ParseXML(bytes.NewReader(body))
	if err != nil {
		return models.Node{}, &ParseError{
			URL:        req.URL.String(),
			StatusCode: httpResp.StatusCode,
			Detail:     describeBody(body),
			Err:        err,
		}
	}
	return tree, nil
}
