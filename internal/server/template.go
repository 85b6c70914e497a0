// internal/server/template.go
package server

import (
	"html/template"

	"borehole-analytics/internal/models"
)

// dashboardTmpl renders the single-page dashboard. The toast block mirrors
// the floating notification styling of the original frontend.
var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>BH-EA | Borehole Exploration Analytics</title>
<style>
  body { background:#0b132b; color:#f8f9fa; font-family:Arial,sans-serif; margin:0; padding:24px; }
  h1 { color:#00b4d8; margin-top:0; }
  .cards { display:flex; gap:16px; flex-wrap:wrap; margin-bottom:24px; }
  .card { background:rgba(10,30,80,0.6); border-left:6px solid #00b4d8; border-radius:10px;
          padding:14px 18px; min-width:160px; box-shadow:0 4px 10px rgba(0,0,0,0.25); }
  .card .value { font-size:22px; font-weight:bold; }
  .card .label { font-size:12px; color:#adb5bd; }
  .panel { background:rgba(10,30,80,0.4); border-radius:10px; padding:18px; margin-bottom:24px; }
  img.chart { max-width:100%; border-radius:8px; }
  form input, form button { margin:6px 0; }
  button { background:#00b4d8; color:#0b132b; border:0; border-radius:6px; padding:8px 16px; cursor:pointer; }
  a { color:#00b4d8; }
  ul { margin:6px 0; }
</style>
</head>
<body>
<h1>Borehole Exploration Analytics</h1>

{{if .Alerts}}
<div id="toast-container"
  style="position:fixed;top:20px;right:20px;z-index:9999;background:rgba(10,30,80,0.9);
  border-left:6px solid #00b4d8;padding:14px 18px;border-radius:10px;color:#f8f9fa;
  font-size:14px;box-shadow:0 4px 10px rgba(0,0,0,0.25);opacity:0;transition:opacity 0.6s ease-in-out;">
  {{range .Alerts}}{{.}}<br>{{end}}
</div>
<script>
var toast=document.getElementById("toast-container");
setTimeout(function(){toast.style.opacity=1;},200);
setTimeout(function(){toast.style.opacity=0;},6000);
setTimeout(function(){toast.remove();},7000);
</script>
{{end}}

<div class="cards">
  <div class="card"><div class="value">{{.Summary.TotalBoreholes}}</div><div class="label">Total Boreholes</div></div>
  <div class="card"><div class="value">{{printf "%.2f" .Summary.AvgYieldLps}} L/s</div><div class="label">Avg Yield</div></div>
  <div class="card"><div class="value">${{printf "%.2f" .Summary.AvgCostUSD}}</div><div class="label">Avg Cost</div></div>
  <div class="card"><div class="value">${{printf "%.2f" .Summary.ProjectedSavings}}</div><div class="label">Projected Savings</div></div>
</div>

<div class="panel">
  <h2>Yield vs Cost by Borehole Type</h2>
  <img class="chart" src="/charts/yield-vs-cost.png?v={{.Fingerprint}}" alt="Yield vs Cost scatter">
</div>

<div class="panel">
  <h2>Upload Data</h2>
  <form method="POST" action="/" enctype="multipart/form-data">
    <label>Borehole CSV: <input type="file" name="file" accept=".csv"></label><br>
    <label>ERT grid (.csv/.dat/.xyz): <input type="file" name="ert_data"></label><br>
    <label>ERT display image: <input type="file" name="ert_image" accept="image/*"></label><br>
    <button type="submit">Upload</button>
  </form>
</div>

{{if or .ERTImageURL .ERTUploadURL}}
<div class="panel">
  <h2>ERT Resistivity</h2>
  {{if .ERTImageURL}}<p><img class="chart" src="{{.ERTImageURL}}" alt="ERT pseudo-section"></p>
  {{if .ERTModelURL}}<p><a href="{{.ERTModelURL}}">Download gridded model CSV</a></p>{{end}}{{end}}
  {{if .ERTUploadURL}}<p><img class="chart" src="{{.ERTUploadURL}}" alt="ERT display image"></p>{{end}}
  {{if .ContourURL}}<p><a href="{{.ContourURL}}">Annotated contour report</a></p>{{end}}
</div>
{{end}}

<div class="panel">
  <h2>AI Insight</h2>
  {{if .Insight}}
    {{if .Insight.IsStructured}}
      <p>{{.Insight.InterpretationSummary}}</p>
      {{if .Insight.GoldilocksSites}}<p>Goldilocks sites:</p><ul>{{range .Insight.GoldilocksSites}}<li>{{.}}</li>{{end}}</ul>{{end}}
      {{if .Insight.TroubleSites}}<p>Trouble sites:</p><ul>{{range .Insight.TroubleSites}}<li>{{.}}</li>{{end}}</ul>{{end}}
      {{if .Insight.Recommendations}}<p>Recommendations:</p><ul>{{range .Insight.Recommendations}}<li>{{.}}</li>{{end}}</ul>{{end}}
    {{else}}
      <pre>{{.Insight.RawText}}</pre>
    {{end}}
    {{if .Insight.Cached}}<p class="label">(cached)</p>{{end}}
  {{else}}
    <form method="POST" action="/insights"><button type="submit">Generate Insight</button></form>
  {{end}}
</div>

</body>
</html>
`))

// dashboardData is the template context for a dashboard render.
type dashboardData struct {
	Summary      models.SummaryMetrics
	Alerts       []string
	Fingerprint  string
	ERTImageURL  string
	ERTModelURL  string
	ERTUploadURL string
	ContourURL   string
	Insight      *models.InsightReport
}
