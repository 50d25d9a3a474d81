// cmd/stockctl/render.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"stock-backoffice/internal/feed"
	"stock-backoffice/internal/models"
	"stock-backoffice/internal/stock"
	"stock-backoffice/internal/stock/access"
	"stock-backoffice/internal/stock/bulkedit"
	"stock-backoffice/internal/stock/filters"
	"stock-backoffice/internal/stock/table"
)

var (
	bold   = color.New(color.Bold).SprintFunc()
	faint  = color.New(color.Faint).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
)

var eventColors = map[models.FeedEventType]*color.Color{
	models.EventSeizedPropertyCreated: color.New(color.FgCyan),
	models.EventValuationAdded:        color.New(color.FgMagenta),
	models.EventResponsibleAssigned:   color.New(color.FgBlue),
	models.EventStatusChanged:         color.New(color.FgYellow),
}

func eventLabel(t models.FeedEventType) string {
	if c, ok := eventColors[t]; ok {
		return c.Sprint(t.Label())
	}
	return t.Label()
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetHeader(header)
	t.SetAutoFormatHeaders(false)
	t.SetAutoWrapText(false)
	return t
}

// listingRows renders items under the visible columns.
func listingRows(items []models.Item, headers []models.Header) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		row := make([]string, len(headers))
		for i, h := range headers {
			row[i] = item.Text(h.Value)
		}
		rows = append(rows, row)
	}
	return rows
}

func sortMarks(sort table.SortState) map[string]string {
	marks := make(map[string]string, len(sort.SortBy))
	for i, col := range sort.SortBy {
		if i < len(sort.SortDesc) && sort.SortDesc[i] {
			marks[col] = " ↓"
		} else {
			marks[col] = " ↑"
		}
	}
	return marks
}

func renderListing(w io.Writer, snap stock.Snapshot, headers []models.Header) {
	renderTabs(w, snap.Tabs, snap.ActiveTab)

	marks := sortMarks(snap.Sort)
	names := make([]string, len(headers))
	for i, h := range headers {
		names[i] = h.Text + marks[h.Value]
	}

	t := newTable(w, names)
	t.AppendBulk(listingRows(snap.Items, headers))
	t.Render()

	fmt.Fprintf(w, "%s %d/%d  %s %d  %s %d\n",
		faint("page"), snap.Page.Page, snap.Page.MaxPage,
		faint("per page"), snap.Page.ItemsPerPage,
		faint("total"), snap.Page.Count)
	if snap.ActiveFilters > 0 {
		fmt.Fprintf(w, "%s %d\n", yellow("active filters:"), snap.ActiveFilters)
	}
	if snap.SearchText != "" {
		fmt.Fprintf(w, "%s %q\n", faint("search:"), snap.SearchText)
	}
}

func renderTabs(w io.Writer, tabs []models.Tab, active int) {
	parts := make([]string, 0, len(tabs))
	for i, tab := range tabs {
		label := fmt.Sprintf("%s (%d)", tab.Label, tab.Count)
		if i == active {
			label = bold(green(label))
		}
		parts = append(parts, label)
	}
	fmt.Fprintln(w, strings.Join(parts, "  "))
}

func renderRangeReport(w io.Writer, report filters.RangeReport) {
	if report.Valid() && len(report.Warnings) == 0 {
		fmt.Fprintln(w, green("filters are valid"))
		return
	}
	for _, issue := range report.Errors {
		fmt.Fprintf(w, "%s %s: %s\n", red("error"), issue.Field, issue.Message)
	}
	for _, issue := range report.Warnings {
		fmt.Fprintf(w, "%s %s: %s\n", yellow("warning"), issue.Field, issue.Message)
	}
}

func renderFeed(w io.Writer, snap feed.Snapshot) {
	t := newTable(w, []string{"", "Событие", "Заголовок", "Описание", "Дата"})
	for _, item := range snap.Items {
		mark := "●"
		if item.Read {
			mark = faint("○")
		}
		t.Append([]string{mark, eventLabel(item.EventType), item.Title, item.Description, item.CreatedAt})
	}
	t.Render()

	fmt.Fprintf(w, "%s %d/%d  %s %s\n",
		faint("shown"), len(snap.Items), snap.Total,
		faint("unread"), bold(strconv.Itoa(snap.Unread)))
	if snap.HasMore {
		fmt.Fprintln(w, faint("more events available, use --pages"))
	}
}

func renderMassEdit(w io.Writer, r *models.MassEditResult) {
	fmt.Fprintf(w, "%s %d  %s %s  %s %s\n",
		faint("total"), r.All,
		faint("ok"), green(strconv.Itoa(r.Successed)),
		faint("failed"), red(strconv.Itoa(r.Failed)))
	if len(r.Report) == 0 {
		return
	}

	t := newTable(w, []string{"UID", "Поле", "Сообщение"})
	for _, item := range r.Report {
		if len(item.Rows) == 0 {
			t.Append([]string{item.UID, "", item.Message})
			continue
		}
		for _, row := range item.Rows {
			t.Append([]string{item.UID, row.Code, row.Message})
		}
	}
	t.Render()
}

func renderPriceImport(w io.Writer, r *models.PriceImportResult) {
	if r == nil {
		return
	}
	fmt.Fprintf(w, "%s %d  %s %d  %s %s  %s %s  %s %s\n",
		faint("total"), r.All,
		faint("processed"), r.Processed,
		faint("ok"), green(strconv.Itoa(r.Successed)),
		faint("failed"), red(strconv.Itoa(r.Failed)),
		faint("warnings"), yellow(strconv.Itoa(r.Warning)))
	if len(r.Report) == 0 {
		return
	}

	t := newTable(w, []string{"Тип", "Сообщение", "VIN"})
	for _, rep := range r.Report {
		kind := yellow(rep.MessageType)
		if rep.MessageType == models.ImportMessageError {
			kind = red(rep.MessageType)
		}
		vins := make([]string, 0, len(rep.Items))
		for _, item := range rep.Items {
			vins = append(vins, item.VIN)
		}
		t.Append([]string{kind, rep.Message, strings.Join(vins, ", ")})
	}
	t.Render()
}

func renderAccess(w io.Writer, snap access.Snapshot, manager bool) {
	role := snap.Role
	if manager {
		role = green(role)
	}
	fmt.Fprintf(w, "%s %s\n%s %s\n", faint("user"), snap.FullName, faint("role"), role)
	t := newTable(w, []string{"Право"})
	for _, p := range snap.Permissions {
		t.Append([]string{p})
	}
	t.Render()
}

func renderFields(w io.Writer, snap bulkedit.Snapshot) {
	t := newTable(w, []string{"Код", "Поле", "Массово"})
	for _, f := range snap.Fields {
		mass := green("да")
		if f.Disabled || !f.MassChange {
			mass = faint("нет")
		}
		t.Append([]string{f.Code, f.Value, mass})
	}
	t.Render()
	if snap.MultiSelectWarning {
		fmt.Fprintln(w, yellow("some fields cannot be changed for several items at once"))
	}
}

func refName(r *models.Ref) string {
	if r == nil {
		return ""
	}
	return r.Name
}

func renderDetail(w io.Writer, d *models.PropertyDetail) {
	t := tablewriter.NewWriter(w)
	t.SetAutoWrapText(false)
	rows := [][]string{
		{"UID", d.UID},
		{"Лот", d.LotNumber},
		{"VIN", d.VIN},
		{"Статус", refName(d.Status)},
	}
	if e := d.Equipment; e != nil {
		rows = append(rows,
			[]string{"Тип", refName(e.TypeTS)},
			[]string{"Марка", refName(e.Brand)},
			[]string{"Модель", refName(e.Model)},
		)
	}
	t.AppendBulk(rows)
	t.Render()
}

func renderColumns(w io.Writer, headers []models.Header) {
	t := newTable(w, []string{"Колонка", "Код", "Видима"})
	for _, h := range headers {
		visible := green("да")
		if !h.Visible {
			visible = faint("нет")
		}
		t.Append([]string{h.Text, h.Value, visible})
	}
	t.Render()
}
