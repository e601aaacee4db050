package dashboard

import (
	"html/template"
	"io"

	"aquaview.dev/monitor/internal/ingest"
	"aquaview.dev/monitor/pkg/quality"
)

// pageData carries everything the dashboard page needs to render.
type pageData struct {
	Active    bool
	View      *ingest.View
	Standards map[quality.ParameterKind][]quality.Band
	Kinds     []quality.ParameterKind
}

var pageTemplate = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>AquaView - Water Quality Monitor</title>
<style>
body { font-family: system-ui, sans-serif; margin: 0; background: #f0f4f8; color: #1a202c; }
header { background: #1e3a5f; color: #fff; padding: 1rem 2rem; }
main { padding: 1.5rem 2rem; max-width: 960px; margin: 0 auto; }
.cards { display: grid; grid-template-columns: repeat(auto-fit, minmax(200px, 1fr)); gap: 1rem; }
.card { background: #fff; border-radius: 8px; padding: 1rem; box-shadow: 0 1px 3px rgba(0,0,0,.1); }
.card h3 { margin: 0 0 .5rem; font-size: .9rem; color: #4a5568; }
.value { font-size: 1.6rem; font-weight: 600; }
.tier-excellent { color: #2f855a; }
.tier-good { color: #2b6cb0; }
.tier-warning { color: #c05621; }
.tier-danger { color: #c53030; }
.tier-unknown { color: #718096; }
.alerts { margin-top: 1.5rem; }
.alert { background: #fff5f5; border-left: 4px solid #c53030; padding: .5rem 1rem; margin-bottom: .5rem; border-radius: 4px; }
.alert.warning { background: #fffaf0; border-left-color: #c05621; }
table { border-collapse: collapse; background: #fff; margin-top: 1.5rem; width: 100%; }
th, td { border: 1px solid #e2e8f0; padding: .4rem .8rem; text-align: left; font-size: .85rem; }
.idle { color: #718096; font-style: italic; }
</style>
</head>
<body>
<header>
<h1>AquaView</h1>
<div id="overall" class="tier-{{if .Active}}{{.View.Overall}}{{else}}unknown{{end}}">
Overall: {{if .Active}}{{.View.Overall}}{{else}}waiting for data{{end}}
</div>
</header>
<main>
{{if .Active}}
<div class="cards">
{{range $kind := .Kinds}}
{{$value := index $.View.Values $kind}}
{{$tier := index $.View.Tiers $kind}}
<div class="card">
<h3>{{$kind.DisplayName}}</h3>
<div class="value tier-{{$tier}}">{{$value}} {{$kind.Unit}}</div>
<div>{{$tier}}</div>
</div>
{{end}}
</div>
<div class="alerts">
{{range .View.Alerts}}
<div class="alert {{.Severity}}">{{.Message}} ({{.Value}} {{.Unit}})</div>
{{else}}
<p>No active alerts.</p>
{{end}}
</div>
{{else}}
<p class="idle">No readings received yet.</p>
{{end}}
<h2>Water Quality Standards</h2>
<table>
<tr><th>Parameter</th><th>Tier</th><th>Range</th></tr>
{{range $kind := .Kinds}}
{{range index $.Standards $kind}}
<tr><td>{{$kind.DisplayName}}</td><td class="tier-{{.Tier}}">{{.Tier}}</td><td>{{.Range}}</td></tr>
{{end}}
{{end}}
</table>
</main>
<script>
(function () {
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  function connect() {
    var ws = new WebSocket(proto + location.host + "/ws");
    ws.onmessage = function () { location.reload(); };
    ws.onclose = function () { setTimeout(connect, 5000); };
  }
  connect();
})();
</script>
</body>
</html>
`))

// renderPage writes the dashboard page to w.
func renderPage(w io.Writer, data *pageData) error {
	return pageTemplate.Execute(w, data)
}
