package expensify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/smallbiznis/canopact/internal/observability/tracing"
	"go.uber.org/zap"
)

const maxExportBytes = 32 << 20

var (
	ErrExportFailed   = errors.New("expensify_export_failed")
	ErrDownloadFailed = errors.New("expensify_download_failed")
	ErrNoCredentials  = errors.New("expensify_credentials_missing")
)

// Provider fetches the reports an account created or updated since a date.
type Provider interface {
	Reports(ctx context.Context, creds Credentials, since time.Time) ([]Report, error)
}

type Credentials struct {
	PartnerUserID     string
	PartnerUserSecret string
}

func (c Credentials) Valid() bool {
	return strings.TrimSpace(c.PartnerUserID) != "" && strings.TrimSpace(c.PartnerUserSecret) != ""
}

type Config struct {
	URL     string
	Timeout time.Duration
	Log     *zap.Logger
}

// Client talks to the Expensify Integration Server: one call asks for an export
// file, a second downloads it.
type Client struct {
	url    string
	client *http.Client
	log    *zap.Logger
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		url:    strings.TrimSpace(cfg.URL),
		client: tracing.WrapHTTPClient(&http.Client{Timeout: timeout}),
		log:    log.Named("expensify"),
	}
}

type jobCredentials struct {
	PartnerUserID     string `json:"partnerUserID"`
	PartnerUserSecret string `json:"partnerUserSecret"`
}

type exportJob struct {
	Type        string         `json:"type"`
	Credentials jobCredentials `json:"credentials"`
	OnReceive   struct {
		ImmediateResponse []string `json:"immediateResponse"`
	} `json:"onReceive"`
	InputSettings struct {
		Type    string `json:"type"`
		Filters struct {
			StartDate string `json:"startDate"`
		} `json:"filters"`
	} `json:"inputSettings"`
	OutputSettings struct {
		FileExtension string `json:"fileExtension"`
		FileBasename  string `json:"fileBasename"`
	} `json:"outputSettings"`
}

type downloadJob struct {
	Type        string         `json:"type"`
	Credentials jobCredentials `json:"credentials"`
	FileName    string         `json:"fileName"`
	FileSystem  string         `json:"fileSystem"`
}

func (c *Client) Reports(ctx context.Context, creds Credentials, since time.Time) ([]Report, error) {
	if !creds.Valid() {
		return nil, ErrNoCredentials
	}
	fileName, err := c.export(ctx, creds, since)
	if err != nil {
		return nil, err
	}
	raw, err := c.download(ctx, creds, fileName)
	if err != nil {
		return nil, err
	}

	// The same export comes back on every run, so a bad row or report is logged and
	// left out instead of blocking the account.
	reports := make([]Report, 0, len(raw))
	for _, r := range raw {
		report, err := Normalize(r)
		if err != nil {
			c.log.Warn("skipping unreadable expensify report",
				zap.String("report_id", r.ReportID.String()),
				zap.Error(err),
			)
			continue
		}
		for _, rejected := range report.Rejected {
			c.log.Warn("skipping unreadable expensify expense",
				zap.Int64("report_id", report.ReportID),
				zap.String("expense_id", rejected.ExpenseID),
				zap.Int("row", rejected.Index),
				zap.Error(rejected.Err),
			)
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func (c *Client) export(ctx context.Context, creds Credentials, since time.Time) (string, error) {
	job := exportJob{
		Type:        "file",
		Credentials: jobCredentials{PartnerUserID: creds.PartnerUserID, PartnerUserSecret: creds.PartnerUserSecret},
	}
	job.OnReceive.ImmediateResponse = []string{"returnRandomFileName"}
	job.InputSettings.Type = "combinedReportData"
	job.InputSettings.Filters.StartDate = since.UTC().Format(dateLayout)
	job.OutputSettings.FileExtension = "json"
	job.OutputSettings.FileBasename = "expense_report"

	body, status, err := c.call(ctx, job, reportTemplate)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExportFailed, err)
	}
	fileName := strings.TrimSpace(string(body))
	if status != http.StatusOK || !strings.HasSuffix(fileName, ".json") {
		return "", fmt.Errorf("%w: status %d: %s", ErrExportFailed, status, truncate(fileName, 200))
	}
	return fileName, nil
}

func (c *Client) download(ctx context.Context, creds Credentials, fileName string) ([]RawReport, error) {
	job := downloadJob{
		Type:        "download",
		Credentials: jobCredentials{PartnerUserID: creds.PartnerUserID, PartnerUserSecret: creds.PartnerUserSecret},
		FileName:    fileName,
		FileSystem:  "integrationServer",
	}
	body, status, err := c.call(ctx, job, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrDownloadFailed, status, truncate(string(body), 200))
	}

	var reports []RawReport
	if err := json.Unmarshal(body, &reports); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrDownloadFailed, err)
	}
	return reports, nil
}

func (c *Client) call(ctx context.Context, job interface{}, template string) ([]byte, int, error) {
	encoded, err := json.Marshal(job)
	if err != nil {
		return nil, 0, err
	}
	form := url.Values{}
	form.Set("requestJobDescription", string(encoded))
	if template != "" {
		form.Set("template", template)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return nil, 0, fmt.Errorf("%s %s: %w", urlErr.Op, req.URL.Host, urlErr.Err)
		}
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxExportBytes))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
