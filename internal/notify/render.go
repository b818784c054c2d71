package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"math"
	"strconv"
)

const layoutTmpl = `{{define "layout"}}<div style="font-family:Segoe UI,Arial,sans-serif;max-width:560px;margin:auto;border:1px solid #e5e7eb;border-radius:12px;padding:16px">
{{template "body" .}}
<hr style="border:none;border-top:1px solid #e5e7eb;margin:16px 0">
<div style="font-size:12px;color:#6b7280">MIS Inventory System</div>
</div>{{end}}`

var bodies = map[Kind]string{
	KindStockChange: `{{define "body"}}<h2 style="margin:0 0 8px 0;font-size:18px">Stock Change</h2>
<p>{{.Name}} ({{.Code}})</p>
<p>Old: <b>{{.OldQty}}</b> &rarr; New: <b>{{.NewQty}}</b> (&Delta; {{.Sign}}{{.Delta}})</p>
{{if .Note}}<p style="color:#6b7280">Note: {{.Note}}</p>{{end}}{{end}}`,

	KindLowStock: `{{define "body"}}<h2 style="margin:0 0 8px 0;font-size:18px">Low Stock Alert</h2>
<p>The item below is below its buffer.</p>
<table style="border-collapse:collapse;width:100%;font-size:14px">
<tr><td>Item</td><td>{{.Name}}</td></tr>
<tr><td>Code</td><td>{{.Code}}</td></tr>
<tr><td>Current Quantity</td><td><b>{{.Qty}}</b></td></tr>
<tr><td>Buffer</td><td><b>{{.Buffer}}</b></td></tr>
</table>
<p>Please review and restock as needed.</p>{{end}}`,

	KindCategoryLowStock: `{{define "body"}}<h2 style="margin:0 0 8px 0;font-size:18px">Category Low Stock</h2>
<p>{{.CategoryName}} ({{.CategoryCode}})</p>
{{if .AffectedLabel}}<p>Affected Item: <b>{{.AffectedLabel}}</b></p>{{end}}
<p>Total Quantity: <b>{{.TotalQty}}</b></p>
<p>Category Buffer: <b>{{.Buffer}}</b></p>{{end}}`,

	KindItemCreated: `{{define "body"}}<h2 style="margin:0 0 8px 0;font-size:18px">New Item Added</h2>
<table style="border-collapse:collapse;width:100%;font-size:14px">
<tr><td>Item</td><td>{{.Name}}</td></tr>
<tr><td>Code</td><td>{{.Code}}</td></tr>
<tr><td>Initial Quantity</td><td><b>{{.Quantity}}</b></td></tr>
<tr><td>Category</td><td>{{if .CategoryName}}{{.CategoryName}}{{else}}-{{end}}</td></tr>
</table>{{end}}`,

	KindItemDeleted: `{{define "body"}}<h2 style="margin:0 0 8px 0;font-size:18px">Item Deleted</h2>
<p><b>{{.Name}}</b> ({{.Code}}) was removed from inventory.</p>
{{if .HasLastQty}}<p>Last known quantity: <b>{{.LastQty}}</b></p>{{end}}{{end}}`,
}

var templates = func() map[Kind]*template.Template {
	out := make(map[Kind]*template.Template, len(bodies))
	for kind, body := range bodies {
		t := template.Must(template.New(string(kind)).Parse(layoutTmpl))
		out[kind] = template.Must(t.Parse(body))
	}
	return out
}()

type stockChangeView struct {
	Code, Name, Note, Sign string
	OldQty, NewQty, Delta  int
}

type lowStockView struct {
	Code, Name  string
	Qty, Buffer int
}

type categoryLowStockView struct {
	CategoryCode, CategoryName, AffectedLabel string
	TotalQty, Buffer                          int
}

type itemCreatedView struct {
	Code, Name, CategoryName string
	Quantity                 int
}

type itemDeletedView struct {
	Code, Name string
	LastQty    int
	HasLastQty bool
}

// Render builds the subject line and HTML body for a message.
func Render(msg Message) (string, string, error) {
	tmpl, ok := templates[msg.Kind]
	if !ok {
		return "", "", fmt.Errorf("unknown notification kind %q", msg.Kind)
	}

	f := msg.Fields
	var subject string
	var view any

	switch msg.Kind {
	case KindStockChange:
		v := stockChangeView{
			Code:   f.Str("code"),
			Name:   f.Str("name"),
			Note:   f.Str("note"),
			OldQty: f.Int("old_qty"),
			NewQty: f.Int("new_qty"),
		}
		v.Delta = v.NewQty - v.OldQty
		if v.Delta >= 0 {
			v.Sign = "+"
		}
		subject = fmt.Sprintf("Stock Change: %s (%s) %s%d -> %d", v.Name, v.Code, v.Sign, v.Delta, v.NewQty)
		view = v
	case KindLowStock:
		v := lowStockView{Code: f.Str("code"), Name: f.Str("name"), Qty: f.Int("qty"), Buffer: f.Int("buffer")}
		subject = fmt.Sprintf("Low Stock: %s (%s) - Qty %d / Buffer %d", v.Name, v.Code, v.Qty, v.Buffer)
		view = v
	case KindCategoryLowStock:
		v := categoryLowStockView{
			CategoryCode: f.Str("category_code"),
			CategoryName: f.Str("category_name"),
			TotalQty:     f.Int("total_qty"),
			Buffer:       f.Int("buffer"),
		}
		code, name := f.Str("affected_item_code"), f.Str("affected_item_name")
		if code != "" || name != "" {
			v.AffectedLabel = fmt.Sprintf("%s (%s)", name, code)
		}
		subject = fmt.Sprintf("Low Stock (Category %s) - Total %d / Buffer %d", v.CategoryName, v.TotalQty, v.Buffer)
		view = v
	case KindItemCreated:
		v := itemCreatedView{Code: f.Str("code"), Name: f.Str("name"), CategoryName: f.Str("category_name"), Quantity: f.Int("quantity")}
		subject = fmt.Sprintf("Item Added: %s (%s)", v.Name, v.Code)
		view = v
	case KindItemDeleted:
		v := itemDeletedView{Code: f.Str("code"), Name: f.Str("name")}
		if _, ok := f["last_known_qty"]; ok {
			v.HasLastQty = true
			v.LastQty = f.Int("last_known_qty")
		}
		subject = fmt.Sprintf("Item Deleted: %s (%s)", v.Name, v.Code)
		view = v
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", view); err != nil {
		return "", "", fmt.Errorf("render %s: %w", msg.Kind, err)
	}
	return subject, buf.String(), nil
}

func (f Fields) Str(key string) string {
	switch v := f[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case *string:
		if v == nil {
			return ""
		}
		return *v
	default:
		return fmt.Sprint(v)
	}
}

func (f Fields) Int(key string) int {
	switch v := f[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case uint:
		return int(v)
	case float64:
		return int(math.Round(v))
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	default:
		return 0
	}
}
