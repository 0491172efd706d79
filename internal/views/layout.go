// Package views renders the survey pages. Components are templ.Components so
// handlers can compose them with templ.WithChildren.
package views

import (
	"context"
	"html/template"
	"io"

	"github.com/a-h/templ"
)

var layoutTmpl = template.Must(template.New("layout").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<link rel="stylesheet" href="/assets/css/style.css">
<script src="https://unpkg.com/htmx.org@1.9.12" nonce="{{.Nonce}}"></script>
<script nonce="{{.Nonce}}">{{.Script}}</script>
</head>
<body hx-headers='{"X-CSRF-Token": "{{.CSRF}}"}' data-csrf="{{.CSRF}}">
<main id="content">`))

const layoutClose = `</main>
</body>
</html>`

// Layout wraps the children in the full page shell.
func Layout(title, csrfToken, nonce string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		err := layoutTmpl.Execute(w, struct {
			Title, CSRF, Nonce string
			Script             template.JS
		}{title, csrfToken, nonce, template.JS(surveyScript)})
		if err != nil {
			return err
		}
		if err := templ.GetChildren(ctx).Render(ctx, w); err != nil {
			return err
		}
		_, err = io.WriteString(w, layoutClose)
		return err
	})
}

// Message renders a short standalone notice, used for error pages.
func Message(text string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<section class="message"><p>`+template.HTMLEscapeString(text)+`</p></section>`)
		return err
	})
}

// surveyScript is the thin client: it mirrors the trial gate, reports
// interactions, preloads images and performs the final redirect. The submit
// repeats the touched controls so a lost interaction beacon cannot leave the
// server gate locked.
const surveyScript = `
(function () {
  var qualifying = ["change", "pointerdown", "keydown", "focusin"];
  var touched = {};
  var trialStart = 0;

  function csrf() { return document.body.dataset.csrf; }

  function refreshGate(form) {
    var controls = form.querySelectorAll("input[data-control]");
    var done = 0;
    controls.forEach(function (c) { if (touched[c.dataset.control]) { done++; } });
    var open = done === controls.length;
    form.querySelector("button[type=submit]").disabled = !open;
    var hint = form.querySelector(".gate-instruction");
    if (hint) { hint.hidden = open; }
  }

  qualifying.forEach(function (type) {
    document.addEventListener(type, function (e) {
      var el = e.target;
      if (!el.dataset || el.dataset.control === undefined) { return; }
      var form = el.closest("form");
      var first = !touched[el.dataset.control];
      touched[el.dataset.control] = true;
      refreshGate(form);
      if (!first) { return; }
      var body = new URLSearchParams({ control: el.dataset.control, event: type === "focusin" ? "focus" : type });
      fetch("/survey/interaction", { method: "POST", headers: { "X-CSRF-Token": csrf() }, body: body })
        .catch(function () {});
    }, true);
  });

  document.addEventListener("click", function (e) {
    if (e.target.closest("[data-fullscreen]") && document.documentElement.requestFullscreen) {
      document.documentElement.requestFullscreen().catch(function () {});
    }
  });

  document.addEventListener("htmx:configRequest", function (e) {
    if (trialStart && e.detail.path === "/survey/respond") {
      e.detail.parameters.rt = Math.round(performance.now() - trialStart);
      e.detail.parameters.touched = Object.keys(touched).join(",");
    }
  });

  function enter(root) {
    touched = {};
    trialStart = 0;
    var form = root.querySelector("form[data-trial]");
    if (form) { trialStart = performance.now(); refreshGate(form); }

    var preload = root.querySelector("[data-preload]");
    if (preload) {
      var images = JSON.parse(preload.dataset.preload);
      var pending = images.length;
      var finish = function () {
        if (--pending <= 0) { htmx.ajax("POST", "/survey/next", { target: "#content" }); }
      };
      if (pending === 0) { pending = 1; finish(); }
      images.forEach(function (src) { var img = new Image(); img.onload = finish; img.onerror = finish; img.src = src; });
    }

    var redirect = root.querySelector("[data-redirect]");
    if (redirect) {
      setTimeout(function () { window.location.href = redirect.dataset.redirect; }, Number(redirect.dataset.delay));
    }
  }

  document.addEventListener("DOMContentLoaded", function () { enter(document); });
  document.addEventListener("htmx:afterSwap", function (e) { enter(e.detail.target); });
})();
`
