package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/switch-led/internal/logic"
	"github.com/sweeney/switch-led/internal/status"
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
	"sw":    status.SwitchString,
	"led":   status.LEDString,
	"lit":   func(c logic.Color, e logic.Color) bool { return c.Has(e) },
	"red":   func() logic.Color { return logic.Red },
	"green": func() logic.Color { return logic.Green },
	"blue":  func() logic.Color { return logic.Blue },
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="2">
<title>Switch LED</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { font-weight: bold; }
.off { color: #888; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
.dot { display: inline-block; width: 10px; height: 10px; border-radius: 50%; margin-right: 4px; background: #ddd; }
.dot.red { background: red; }
.dot.green { background: green; }
.dot.blue { background: blue; }
</style>
</head>
<body>
<h1>Switch LED</h1>

<h2>Switches</h2>
<table>
{{if .Ready}}<tr><th>SW1</th><td id="sw1">{{sw .Switches.SW1}}</td></tr>
<tr><th>SW2</th><td id="sw2">{{sw .Switches.SW2}}</td></tr>
{{else}}<tr><th>SW1</th><td id="sw1" class="unknown">UNKNOWN</td></tr>
<tr><th>SW2</th><td id="sw2" class="unknown">UNKNOWN</td></tr>
{{end}}</table>

<h2>LEDs</h2>
<table>
<tr><th>LED1</th><td id="led1" class="{{if .Outputs.LED1}}on{{else}}off{{end}}"><span class="dot{{if .Outputs.LED1}} red{{end}}"></span>{{led .Outputs.LED1}}</td></tr>
<tr><th>LED2</th><td id="led2"><span class="dot{{if lit .Outputs.LED2 red}} red{{end}}"></span><span class="dot{{if lit .Outputs.LED2 green}} green{{end}}"></span><span class="dot{{if lit .Outputs.LED2 blue}} blue{{end}}"></span>{{.Outputs.LED2}}</td></tr>
<tr><th>Last change</th><td>{{if .LastChange.IsZero}}never{{else}}{{.LastChange.UTC.Format "2006-01-02T15:04:05Z"}}{{end}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
</table>

<h2>Loop</h2>
<table>
<tr><th>Iterations</th><td>{{.Counts.Iterations}}</td></tr>
<tr><th>Changes</th><td>{{.Counts.Changes}}</td></tr>
<tr><th>Errors</th><td>{{.Counts.Errors}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Chip</th><td>{{.Config.Chip}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> · <a href="/metrics">metrics</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	return indexTmpl.Execute(w, data)
}
