package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/blowout/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"orUnknown": func(s string) string {
		if s == "" {
			return "UNKNOWN"
		}
		return s
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Blowout</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.lit { color: #e67e22; font-weight: bold; }
.out { color: #888; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
button { font-family: monospace; margin-right: 0.5em; }
</style>
</head>
<body>
<h1>Blowout</h1>

<h2>Cake</h2>
<table>
<tr><th>State</th><td id="state">{{orUnknown (printf "%s" .State)}}</td></tr>
<tr><th>Candles</th><td id="candles" class="{{if eq (printf "%s" .Candles) "LIT"}}lit{{else if eq (printf "%s" .Candles) "EXTINGUISHED"}}out{{else}}unknown{{end}}">{{orUnknown (printf "%s" .Candles)}}</td></tr>
<tr><th>Microphone</th><td>{{if .MicReady}}listening{{else}}off{{end}}</td></tr>
<tr><th>Blowing</th><td id="blowing">{{if .Blowing}}yes{{else}}no{{end}}</td></tr>
<tr><th>Low band</th><td id="low-band">{{printf "%.1f" .LowBand}}</td></tr>
<tr><th>Session</th><td>{{.SessionID}}</td></tr>
</table>

<p>
<button data-intent="grant">Allow mic</button>
<button data-intent="deny">No mic</button>
<button data-intent="reset">Relight</button>
<button data-intent="close">Close</button>
</p>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}} {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Blows</th><td>{{.Counts.Blows}}</td></tr>
<tr><th>Extinguished</th><td>{{.Counts.Extinguished}}</td></tr>
<tr><th>Celebrations</th><td>{{.Counts.Celebrations}}</td></tr>
<tr><th>Resets</th><td>{{.Counts.Resets}}</td></tr>
<tr><th>Mic failures</th><td>{{.Counts.MicFailures}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Source</th><td>{{.Config.Source}}</td></tr>
<tr><th>Candles</th><td>{{.Config.Candles}}</td></tr>
<tr><th>Threshold</th><td>{{.Config.Threshold}}</td></tr>
<tr><th>Sustain</th><td>{{.Config.SustainFrames}} frames</td></tr>
<tr><th>Frame</th><td>{{.Config.FrameMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> <a href="/scene.json">Scene</a></p>
<script>
(function() {
  var buttons = document.querySelectorAll("button[data-intent]");
  for (var i = 0; i < buttons.length; i++) {
    buttons[i].addEventListener("click", function(e) {
      fetch("/intent/" + e.target.dataset.intent, { method: "POST" });
    });
  }

  var stateEl = document.getElementById("state");
  var candlesEl = document.getElementById("candles");
  var blowingEl = document.getElementById("blowing");
  var lowEl = document.getElementById("low-band");

  setInterval(function() {
    fetch("/scene.json").then(function(r) {
      if (!r.ok) { return null; }
      return r.json();
    }).then(function(sc) {
      if (!sc) { return; }
      stateEl.textContent = sc.state;
      candlesEl.textContent = sc.candles;
      candlesEl.className = sc.candles === "LIT" ? "lit" : "out";
      blowingEl.textContent = sc.blowing ? "yes" : "no";
      lowEl.textContent = sc.lowBand.toFixed(1);
    }).catch(function() {});
  }, 250);
})();
</script>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
