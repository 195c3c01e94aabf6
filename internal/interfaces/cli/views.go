package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/turtacn/KeyIP-Docket/pkg/client"
)

const dateLayout = "2006-01-02"

func fmtDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format(dateLayout)
}

func fmtMoney(m client.Money) string {
	return strconv.FormatFloat(m.Amount, 'f', 2, 64) + " " + m.Currency
}

func fmtMoneys(ms []client.Money) string {
	if len(ms) == 0 {
		return "-"
	}
	parts := make([]string, len(ms))
	for i, m := range ms {
		parts[i] = fmtMoney(m)
	}
	return strings.Join(parts, " + ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// kvBlock renders aligned "key: value" lines.
func kvBlock(pairs [][2]string) string {
	width := 0
	for _, p := range pairs {
		if len(p[0]) > width {
			width = len(p[0])
		}
	}
	var sb strings.Builder
	for _, p := range pairs {
		sb.WriteString(padRight(p[0]+":", width+1))
		sb.WriteString(" ")
		sb.WriteString(p[1])
		sb.WriteString("\n")
	}
	return sb.String()
}

// ─────────────────────────────────────────────────────────────────────────────
// Tasks
// ─────────────────────────────────────────────────────────────────────────────

type taskView struct{ task *client.Task }

func (v taskView) JSONValue() interface{} { return v.task }

func (v taskView) String() string {
	t := v.task
	pairs := [][2]string{
		{"ID", t.ID},
		{"Type", t.TaskType},
		{"Title", t.Title},
		{"Status", t.Status},
		{"Priority", orDash(t.Priority)},
		{"Assignee", orDash(t.Assignee.ID)},
		{"Official due", fmtDate(t.OfficialDueDate)},
		{"Operational due", fmtDate(t.OperationalDueDate)},
	}
	if t.AssetID != "" {
		pairs = append(pairs, [2]string{"Asset", t.AssetID})
	}
	if t.Display.ApplicationNumber != "" {
		pairs = append(pairs, [2]string{"Application no", t.Display.ApplicationNumber})
	}
	for _, d := range t.Documents {
		pairs = append(pairs, [2]string{"Document", d.ID + "  " + d.Name})
	}
	return kvBlock(pairs)
}

func (v taskView) TableHeaders() []string { return taskListView{}.TableHeaders() }
func (v taskView) TableRows() [][]string  { return taskListView{v.task}.TableRows() }

type taskListView []*client.Task

func (v taskListView) JSONValue() interface{} { return []*client.Task(v) }

func (v taskListView) TableHeaders() []string {
	return []string{"ID", "TYPE", "STATUS", "ASSIGNEE", "OFFICIAL DUE", "TITLE"}
}

func (v taskListView) TableRows() [][]string {
	rows := make([][]string, 0, len(v))
	for _, t := range v {
		rows = append(rows, []string{t.ID, t.TaskType, t.Status, orDash(t.Assignee.ID), fmtDate(t.OfficialDueDate), t.Title})
	}
	return rows
}

type submitView struct{ res *client.SubmitTaskResult }

func (v submitView) JSONValue() interface{} { return v.res }

func (v submitView) String() string {
	var sb strings.Builder
	if v.res.Task != nil {
		sb.WriteString(taskView{v.res.Task}.String())
	}
	pairs := [][2]string{{"Accrual", orDash(v.res.AccrualOutcome)}}
	if v.res.AccrualID != "" {
		pairs = append(pairs, [2]string{"Accrual ID", v.res.AccrualID})
	}
	if v.res.DeferredTaskID != "" {
		pairs = append(pairs, [2]string{"Deferred task", v.res.DeferredTaskID})
	}
	if v.res.SuitID != "" {
		pairs = append(pairs, [2]string{"Suit", v.res.SuitID})
	}
	sb.WriteString(kvBlock(pairs))
	for _, w := range v.res.Warnings {
		sb.WriteString("WARNING: " + w.String() + "\n")
	}
	return sb.String()
}

// ─────────────────────────────────────────────────────────────────────────────
// Assets
// ─────────────────────────────────────────────────────────────────────────────

type searchView struct{ res *client.SearchResult }

func (v searchView) JSONValue() interface{} { return v.res }

func (v searchView) TableHeaders() []string {
	return []string{"ID", "SOURCE", "SAVED", "APPLICATION NO", "TITLE"}
}

func (v searchView) TableRows() [][]string {
	rows := make([][]string, 0, len(v.res.Hits))
	for _, h := range v.res.Hits {
		if h.Asset == nil {
			continue
		}
		rows = append(rows, []string{
			orDash(h.Asset.ID), h.Source, strconv.FormatBool(h.Saved),
			orDash(h.Asset.ApplicationNumber), h.Asset.Title,
		})
	}
	return rows
}

func (v searchView) String() string {
	out := FormatTable(v.TableHeaders(), v.TableRows())
	for _, w := range v.res.Warnings {
		out += "WARNING: " + w + "\n"
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Accruals
// ─────────────────────────────────────────────────────────────────────────────

type accrualView struct{ accrual *client.Accrual }

func (v accrualView) JSONValue() interface{} { return v.accrual }

func (v accrualView) String() string {
	a := v.accrual
	return kvBlock([][2]string{
		{"ID", a.ID},
		{"Task", a.TaskID},
		{"Status", a.Status},
		{"Official fee", fmtMoney(a.OfficialFee)},
		{"Service fee", fmtMoney(a.ServiceFee)},
		{"VAT rate", strconv.FormatFloat(a.VATRate, 'f', -1, 64) + "%"},
		{"Total", fmtMoneys(a.TotalAmount)},
		{"Remaining", fmtMoneys(a.RemainingAmount)},
		{"Created", a.CreatedAt.Format(time.RFC3339)},
	})
}

func (v accrualView) TableHeaders() []string { return accrualListView{}.TableHeaders() }
func (v accrualView) TableRows() [][]string  { return accrualListView{v.accrual}.TableRows() }

type accrualListView []*client.Accrual

func (v accrualListView) JSONValue() interface{} { return []*client.Accrual(v) }

func (v accrualListView) TableHeaders() []string {
	return []string{"ID", "TASK", "STATUS", "CREATED", "TOTAL"}
}

func (v accrualListView) TableRows() [][]string {
	rows := make([][]string, 0, len(v))
	for _, a := range v {
		created := a.CreatedAt
		rows = append(rows, []string{a.ID, a.TaskID, a.Status, fmtDate(&created), fmtMoneys(a.TotalAmount)})
	}
	return rows
}

type totalsView []client.Money

func (v totalsView) JSONValue() interface{} {
	return map[string][]client.Money{"totals": v}
}

func (v totalsView) TableHeaders() []string { return []string{"CURRENCY", "TOTAL"} }

func (v totalsView) TableRows() [][]string {
	sorted := append([]client.Money(nil), v...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Currency < sorted[j].Currency })
	rows := make([][]string, 0, len(sorted))
	for _, m := range sorted {
		rows = append(rows, []string{m.Currency, strconv.FormatFloat(m.Amount, 'f', 2, 64)})
	}
	return rows
}

// ─────────────────────────────────────────────────────────────────────────────
// Calendar
// ─────────────────────────────────────────────────────────────────────────────

type planView struct{ plan *client.DueDatePlan }

func (v planView) JSONValue() interface{} { return v.plan }

func (v planView) String() string {
	p := v.plan
	pairs := [][2]string{
		{"Official due", fmtDate(p.OfficialDueDate)},
		{"Operational due", fmtDate(p.OperationalDueDate)},
	}
	if p.RenewalDate != nil {
		pairs = append(pairs, [2]string{"Renewal date", fmtDate(p.RenewalDate)})
	}
	if p.BulletinDate != nil {
		pairs = append(pairs, [2]string{"Bulletin", fmt.Sprintf("%s (%s)", fmtDate(p.BulletinDate), orDash(p.BulletinNo))})
	}
	out := kvBlock(pairs)
	for _, w := range p.Warnings {
		out += "WARNING: " + w.String() + "\n"
	}
	return out
}

//Personal.AI order the ending
