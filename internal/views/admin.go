package views

import (
	"context"
	"html/template"
	"io"

	"github.com/a-h/templ"
)

var summaryTmpl = template.Must(template.New("summary").Parse(`<section class="admin-summary">
  <nav>
    {{range .Dimensions}}<a href="/admin/summary?by={{.}}">{{.}}</a> {{end}}
  </nav>
  <div id="summary-chart" style="width:100%;height:480px"></div>
  <script src="https://cdn.jsdelivr.net/npm/echarts@5/dist/echarts.min.js" nonce="{{.Nonce}}"></script>
  <script nonce="{{.Nonce}}">
    echarts.init(document.getElementById("summary-chart")).setOption({{.Options}});
  </script>
</section>`))

// SummaryChart renders a chart from its echarts option JSON.
func SummaryChart(optionsJSON string, dimensions []string, nonce string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return summaryTmpl.Execute(w, struct {
			Options    template.JS
			Dimensions []string
			Nonce      string
		}{template.JS(optionsJSON), dimensions, nonce})
	})
}
