package view

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
)

// FrameType tags websocket and action payloads.
const FrameType = "view"

// Frame is what the browser receives after every change: the view as data plus the server
// rendered body.
type Frame struct {
	Type string `json:"type"`
	View View   `json:"view"`
	HTML string `json:"html"`
}

// Page renders the console HTML.
type Page struct {
	tmpl *template.Template
}

// NewPage parses the page templates.
func NewPage() (*Page, error) {
	tmpl, err := template.New("page").Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("view: parse templates: %w", err)
	}
	if _, err := tmpl.New("body").Parse(bodyTemplate); err != nil {
		return nil, fmt.Errorf("view: parse body: %w", err)
	}
	return &Page{tmpl: tmpl}, nil
}

// Render writes the full document.
func (p *Page) Render(w io.Writer, v View) error {
	return p.tmpl.ExecuteTemplate(w, "page", v)
}

// RenderBody renders only the #app content.
func (p *Page) RenderBody(v View) (string, error) {
	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, "body", v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Frame bundles v with its rendered body.
func (p *Page) Frame(v View) (Frame, error) {
	html, err := p.RenderBody(v)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Type: FrameType, View: v, HTML: html}, nil
}

const pageTemplate = `<!DOCTYPE html>
<html lang="it">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Colonnine di Ricarica</title>
<link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/bootstrap@5.3.2/dist/css/bootstrap.min.css">
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<style>
#map { height: 420px; }
.colonnina-marker div { width: 20px; height: 20px; border-radius: 50%; border: 2px solid white; }
#alerts-container { position: fixed; top: 1rem; right: 1rem; z-index: 2000; min-width: 280px; }
</style>
</head>
<body>
<div class="container py-3">
  <h1 class="h3 mb-3">Colonnine di Ricarica</h1>
  <div id="map" class="mb-3"></div>
  <div id="app">{{template "body" .}}</div>
</div>
<script id="view-state" type="application/json">{{.}}</script>
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<script src="https://cdn.jsdelivr.net/npm/chart.js@4.4.0/dist/chart.umd.min.js"></script>
<script>
(function () {
  var map = L.map('map');
  L.tileLayer('https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png', { attribution: '&copy; OpenStreetMap' }).addTo(map);
  var layer = L.layerGroup().addTo(map);
  var charts = [];
  var lastVersion = '';

  function mapKey(v) { return v.version + ':' + v.session_version; }

  function popup(summary) {
    var root = document.createElement('div');
    var title = document.createElement('h6');
    title.textContent = summary.address;
    root.appendChild(title);
    [['Potenza', summary.power], ['Utilizzi totali', summary.uses], ['NIL', summary.neighborhood]].forEach(function (row) {
      if (row[1] === undefined || row[1] === '') { return; }
      var p = document.createElement('p');
      p.textContent = row[0] + ': ' + row[1];
      root.appendChild(p);
    });
    var badge = document.createElement('span');
    badge.className = 'badge bg-' + summary.badge;
    badge.textContent = summary.classification;
    root.appendChild(badge);
    (summary.actions || []).forEach(function (a) {
      var b = document.createElement('button');
      b.className = 'btn btn-sm btn-primary mt-2 d-block';
      b.dataset.action = a.kind;
      b.dataset.stationId = a.station_id;
      b.textContent = a.label;
      root.appendChild(b);
    });
    return root;
  }

  function drawMap(m) {
    layer.clearLayers();
    m.markers.forEach(function (mk) {
      var icon = L.divIcon({ html: '<div style="background-color:' + mk.color + '"></div>', className: 'colonnina-marker', iconSize: [24, 24] });
      L.marker([mk.lat, mk.lng], { icon: icon }).bindPopup(popup(mk.popup)).addTo(layer);
    });
    var vp = m.viewport;
    if (vp.bounds) {
      map.fitBounds([[vp.bounds.south_west.lat, vp.bounds.south_west.lng], [vp.bounds.north_east.lat, vp.bounds.north_east.lng]]);
    } else if (vp.center) {
      map.setView([vp.center.lat, vp.center.lng], vp.zoom);
    }
  }

  function drawCharts(stats) {
    charts.forEach(function (c) { c.destroy(); });
    charts = [];
    if (!stats) { return; }
    [['utilizzoChart', stats.usage_chart], ['previsioniChart', stats.forecast_chart]].forEach(function (pair) {
      var el = document.getElementById(pair[0]);
      if (!el) { return; }
      charts.push(new Chart(el.getContext('2d'), {
        type: pair[1].type,
        data: { labels: pair[1].labels, datasets: pair[1].series.map(function (s) { return { label: s.label, data: s.data }; }) },
        options: { responsive: true, scales: { y: { beginAtZero: true } } }
      }));
    });
  }

  function apply(frame) {
    if (!frame || frame.type !== 'view') { return; }
    document.getElementById('app').innerHTML = frame.html;
    if (mapKey(frame.view) !== lastVersion) {
      drawMap(frame.view.map);
      lastVersion = mapKey(frame.view);
    }
    drawCharts(frame.view.statistics);
  }

  function formPayload(form) {
    var out = {};
    Array.prototype.forEach.call(form.elements, function (el) {
      if (!el.name) { return; }
      if (el.dataset.number !== undefined) {
        out[el.name] = el.value === '' ? null : Number(el.value);
      } else {
        out[el.name] = el.value;
      }
    });
    return out;
  }

  function post(kind, payload) {
    return fetch('/actions/' + kind, {
      method: 'POST',
      credentials: 'same-origin',
      headers: { 'Content-Type': 'application/json' },
      body: JSON.stringify(payload || {})
    }).then(function (r) { return r.json(); }).then(apply);
  }

  document.addEventListener('submit', function (ev) {
    var form = ev.target;
    if (!form.dataset.action) { return; }
    ev.preventDefault();
    post(form.dataset.action, formPayload(form));
  });

  document.addEventListener('click', function (ev) {
    var el = ev.target.closest('[data-action]');
    if (!el || el.tagName === 'FORM') { return; }
    ev.preventDefault();
    var payload = {};
    if (el.dataset.stationId) { payload.station_id = Number(el.dataset.stationId); }
    if (el.dataset.form) { payload = formPayload(document.getElementById(el.dataset.form)); }
    post(el.dataset.action, payload);
  });

  var initial = JSON.parse(document.getElementById('view-state').textContent);
  drawMap(initial.map);
  lastVersion = mapKey(initial);
  drawCharts(initial.statistics);

  function connect() {
    var proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
    var ws = new WebSocket(proto + location.host + '/ws');
    ws.onmessage = function (ev) { apply(JSON.parse(ev.data)); };
    ws.onclose = function () { setTimeout(connect, 2000); };
  }
  connect();
})();
</script>
</body>
</html>`

const bodyTemplate = `<div id="alerts-container">
{{- range .Notifications}}
  <div class="alert alert-{{.Kind}} fade show" role="alert">{{.Message}}</div>
{{- end}}
</div>

{{if .Panels.AuthForms}}
<section id="auth-section" class="card mb-3"><div class="card-body">
{{if eq .Panels.AuthMode "register"}}
  <form id="register-form" data-action="register">
    <h5>Registrazione</h5>
    <input class="form-control mb-2" name="email" type="email" placeholder="Email">
    <input class="form-control mb-2" name="password" type="password" placeholder="Password">
    <input class="form-control mb-2" name="nome" placeholder="Nome">
    <input class="form-control mb-2" name="cognome" placeholder="Cognome">
    <input class="form-control mb-2" name="telefono" placeholder="Telefono">
    <input class="form-control mb-2" name="indirizzo" placeholder="Indirizzo">
    <input class="form-control mb-2" name="citta" placeholder="Città">
    <button class="btn btn-success" type="submit">Registrati</button>
    <a href="#" data-action="show-login">Hai già un account? Accedi</a>
  </form>
{{else}}
  <form id="login-form" data-action="login">
    <h5>Accedi</h5>
    <input class="form-control mb-2" name="email" type="email" placeholder="Email">
    <input class="form-control mb-2" name="password" type="password" placeholder="Password">
    <button class="btn btn-primary" type="submit">Login</button>
    <a href="#" data-action="show-register">Non hai un account? Registrati</a>
  </form>
{{end}}
</div></section>
{{end}}

{{with .Banner}}
<section id="user-info" class="alert alert-secondary d-flex justify-content-between align-items-center">
  <div><strong id="user-name">{{.Name}}</strong> <small id="user-type">{{.Role}}</small></div>
  <button class="btn btn-outline-danger btn-sm" data-action="logout">Logout</button>
</section>
{{end}}

{{if .Panels.Admin}}
<section id="admin-panel" class="row mb-3">
  <div class="col-md-6">
    <form id="station-form" class="card card-body" data-action="stations">
      <h5>Aggiungi Colonnina</h5>
      <input class="form-control mb-2" name="indirizzo" placeholder="Indirizzo" value="{{with .Draft}}{{.Address}}{{end}}">
      <input class="form-control mb-2" name="latitudine" data-number placeholder="Latitudine" value="{{with .Draft}}{{.Latitude}}{{end}}">
      <input class="form-control mb-2" name="longitudine" data-number placeholder="Longitudine" value="{{with .Draft}}{{.Longitude}}{{end}}">
      <input class="form-control mb-2" name="potenza_kw" data-number placeholder="Potenza (kW)">
      <input class="form-control mb-2" name="nil" placeholder="NIL">
      <div class="d-flex gap-2">
        <button class="btn btn-outline-secondary" type="button" data-action="locate" data-form="station-form">Trova posizione</button>
        <button class="btn btn-primary" type="submit">Aggiungi</button>
      </div>
    </form>
  </div>
  <div class="col-md-6">
    <form id="user-form" class="card card-body" data-action="users">
      <h5>Aggiungi Utente</h5>
      <input class="form-control mb-2" name="email" type="email" placeholder="Email">
      <input class="form-control mb-2" name="password" type="password" placeholder="Password">
      <input class="form-control mb-2" name="nome" placeholder="Nome">
      <input class="form-control mb-2" name="cognome" placeholder="Cognome">
      <input class="form-control mb-2" name="telefono" placeholder="Telefono">
      <input class="form-control mb-2" name="indirizzo" placeholder="Indirizzo">
      <input class="form-control mb-2" name="citta" placeholder="Città">
      <button class="btn btn-primary" type="submit">Aggiungi</button>
    </form>
  </div>
  <div class="col-12 mt-2">
    <button class="btn btn-info" data-action="statistics">Statistiche</button>
    <button class="btn btn-outline-secondary" data-action="refresh">Aggiorna</button>
  </div>
</section>
{{end}}

{{if .Panels.User}}
<section id="user-panel" class="mb-3">
  <button class="btn btn-outline-secondary btn-sm mb-2" data-action="refresh">Aggiorna</button>
  <div id="veicoli-list">
  {{with .Vehicles}}
    {{if .Notice}}<div class="alert alert-info">{{.Notice}}</div>{{else}}
    <h5>I Miei Veicoli</h5>
    <div class="row">
    {{range .Cards}}
      <div class="col-md-6 mb-3"><div class="card"><div class="card-body">
        <h6 class="card-title">{{.Title}}</h6>
        <p class="card-text"><strong>Targa:</strong> {{.Plate}}{{if .Registered}}<br><strong>Registrato il:</strong> {{.Registered}}{{end}}</p>
      </div></div></div>
    {{end}}
    </div>
    {{end}}
  {{end}}
  </div>
</section>
{{end}}

{{with .Booking}}
<section id="booking-dialog" class="card mb-3"><div class="card-body">
  <form data-action="reservations">
    <h5>Prenota colonnina{{if .Address}}: {{.Address}}{{end}}</h5>
    <input type="hidden" name="id_colonnina" data-number value="{{.StationID}}">
    <select class="form-select mb-2" name="id_veicolo" data-number>
      <option value="">Seleziona veicolo</option>
      {{range .Vehicles}}<option value="{{.Value}}">{{.Label}}</option>{{end}}
    </select>
    <input class="form-control mb-2" type="datetime-local" name="data_ora_inizio" min="{{.MinStart}}">
    <input class="form-control mb-2" type="datetime-local" name="data_ora_fine" min="{{.MinEnd}}">
    <input class="form-control mb-2" name="energia_kwh" data-number placeholder="Energia (kWh)">
    <button class="btn btn-primary" type="submit">Prenota</button>
    <button class="btn btn-outline-secondary" type="button" data-action="close-booking">Annulla</button>
  </form>
</div></section>
{{end}}

{{if .Panels.Statistics}}{{with .Statistics}}
<section id="statistiche-section" class="mb-3">
  <h4>Statistiche e Previsioni</h4>
  <div class="row mb-4">
    <div class="col-md-6"><div class="card"><div class="card-header"><h5>Utilizzo Colonnine</h5></div>
      <div class="card-body"><canvas id="utilizzoChart" width="400" height="200"></canvas></div></div></div>
    <div class="col-md-6"><div class="card"><div class="card-header"><h5>Previsioni Mensili</h5></div>
      <div class="card-body"><canvas id="previsioniChart" width="400" height="200"></canvas></div></div></div>
  </div>
  <table class="table table-striped">
    <thead><tr><th>Indirizzo</th><th>Utilizzi</th><th>Energia Totale (kWh)</th><th>Energia Media (kWh)</th><th>Classificazione</th></tr></thead>
    <tbody>
    {{range .Rows}}
      <tr><td>{{.Address}}</td><td>{{.Uses}}</td><td>{{.TotalEnergy}}</td><td>{{.AverageEnergy}}</td>
        <td><span class="badge bg-{{.Badge}}">{{.Tier}}</span></td></tr>
    {{end}}
    </tbody>
  </table>
</section>
{{end}}{{end}}

<section id="colonnine-list">
{{with .List}}
  {{if .Notice}}<div class="alert alert-info">{{.Notice}}</div>{{else}}
  <h4>{{.Title}}</h4>
  <div class="row">
  {{range .Cards}}
    <div class="col-md-6 mb-3" data-station="{{.StationID}}"><div class="card h-100">
      <div class="card-body">
        <h6 class="card-title">{{.Address}}</h6>
        <p class="card-text"><small class="text-muted">
          <strong>Potenza:</strong> {{.Power}}<br>
          <strong>Utilizzi:</strong> {{.Uses}}<br>
          <strong>Classificazione:</strong> <span class="badge bg-{{.Badge}}">{{.Classification}}</span>
          {{if .Neighborhood}}<br><strong>NIL:</strong> {{.Neighborhood}}{{end}}
        </small></p>
      </div>
      {{if .Actions}}<div class="card-footer">
        {{range .Actions}}<button class="btn btn-sm btn-primary w-100" data-action="{{.Kind}}" data-station-id="{{.StationID}}">{{.Label}}</button>{{end}}
      </div>{{end}}
    </div></div>
  {{end}}
  </div>
  {{end}}
{{end}}
</section>`
