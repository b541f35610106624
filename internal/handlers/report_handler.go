package handlers

import (
	"errors"
	"html/template"
	"net/http"

	"sliptrack/internal/report"
	"sliptrack/internal/service"
)

// ReportHandler serves the unsubmitted-names report as JSON and as a
// printable page
type ReportHandler struct {
	rosterService *service.RosterService
	tmpl          *template.Template
}

// NewReportHandler creates a new report handler
func NewReportHandler(rosterService *service.RosterService) *ReportHandler {
	return &ReportHandler{
		rosterService: rosterService,
		tmpl:          template.Must(template.New("report").Parse(reportTemplate)),
	}
}

func (h *ReportHandler) build(w http.ResponseWriter, r *http.Request) (*report.Report, bool) {
	user := GetUserFromContext(r.Context())
	receiptID := r.PathValue("id")
	activeClass := r.URL.Query().Get("class")

	rep, err := h.rosterService.BuildReport(user.ID, receiptID, activeClass)
	if err != nil {
		if errors.Is(err, service.ErrReceiptNotFound) {
			respondWithError(w, http.StatusNotFound, "Receipt not found", "", nil)
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to build report", "build report", err)
		}
		return nil, false
	}
	return rep, true
}

// Get handles GET /api/receipts/{id}/report
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.build(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, rep)
}

// Page handles GET /report/{id}, a printable HTML rendition
func (h *ReportHandler) Page(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.build(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition",
		"inline; filename*=UTF-8''"+template.URLQueryEscaper(report.Filename(rep.ActiveClass, rep.Title, rep.GeneratedAt)+".html"))
	if err := h.tmpl.Execute(w, rep); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to render report", "render report", err)
	}
}

const reportTemplate = `<!DOCTYPE html>
<html lang="zh-Hant">
<head>
<meta charset="utf-8">
<title>{{.Title}} 未繳名單</title>
<style>
body { font-family: "Noto Sans TC", sans-serif; margin: 2rem; }
h1 { font-size: 1.4rem; }
h2 { font-size: 1.1rem; border-bottom: 1px solid #999; padding-bottom: .2rem; }
table { border-collapse: collapse; margin-bottom: 1.5rem; }
td, th { border: 1px solid #ccc; padding: .25rem .75rem; }
.meta { color: #666; font-size: .85rem; }
</style>
</head>
<body>
<h1>{{.Title}} 未繳名單（{{.ActiveClass}}）</h1>
<p class="meta">共 {{.Total}} 人未繳 · {{.GeneratedAt.Format "2006-01-02 15:04"}}</p>
{{if .AllDone}}
<p>全部已繳交 🎉</p>
{{else}}
{{range .Groups}}
<h2>{{.Label}}（{{.Count}} 人）</h2>
<table>
<tr><th>座號</th><th>姓名</th><th>備註</th></tr>
{{range .Students}}
<tr><td>{{.No}}</td><td>{{.Name}}</td><td>{{.Note}}</td></tr>
{{end}}
</table>
{{end}}
{{end}}
</body>
</html>
`
