package api

import (
	"context"
	"io"
	"net/http"
	"net/url"
)

const pathReports = "/api/analysis/reports/"

func reportPath(id ID, suffix string) string {
	return pathReports + url.PathEscape(string(id)) + "/" + suffix
}

// ListReports returns one page of reports.
func (c *Client) ListReports(ctx context.Context, opts ListOptions) (*Page[Report], error) {
	return listPage[Report](ctx, c, pathReports, nil, opts)
}

// Report fetches report metadata.
func (c *Client) Report(ctx context.Context, id ID) (*Report, error) {
	var r Report
	if err := c.get(ctx, reportPath(id, ""), nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// ReportContent fetches the report body. HTMLContent is sanitized before it
// is returned, whatever the backend sent.
func (c *Client) ReportContent(ctx context.Context, id ID) (*ReportContent, error) {
	var content ReportContent
	if err := c.get(ctx, reportPath(id, "html/"), nil, &content); err != nil {
		return nil, err
	}
	content.HTMLContent = SanitizeHTML(content.HTMLContent)
	return &content, nil
}

// ProfileReports lists the reports generated for a profile.
func (c *Client) ProfileReports(ctx context.Context, profileID ID) ([]Report, error) {
	return filtered[Report](ctx, c, pathReports, url.Values{"profile_id": {string(profileID)}})
}

// JobReports lists the reports produced by a job.
func (c *Client) JobReports(ctx context.Context, jobID ID) ([]Report, error) {
	return filtered[Report](ctx, c, pathReports, url.Values{"job_id": {string(jobID)}})
}

// DownloadPDF streams the PDF rendition of a report into w.
func (c *Client) DownloadPDF(ctx context.Context, id ID, w io.Writer) error {
	return c.download(ctx, reportPath(id, "pdf/"), "application/pdf", w)
}

// DownloadHTML streams the raw HTML rendition of a report into w.
func (c *Client) DownloadHTML(ctx context.Context, id ID, w io.Writer) error {
	return c.download(ctx, reportPath(id, "html/"), "text/html", w)
}

func (c *Client) download(ctx context.Context, path, accept string, w io.Writer) error {
	req, err := c.newRequest(http.MethodGet, path, nil, nil)
	if err != nil {
		return err
	}
	req.accept = accept
	return c.roundTrip(ctx, req, w)
}
