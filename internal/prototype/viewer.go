package prototype

import (
	"bytes"
	"fmt"
	"html/template"
)

// The viewer is a static device-frame page. It derives the bundle URL from
// its own location so the same file works behind any mount point: the page
// at /prototypes/<uuid> loads /prototypes/<uuid>/bundle/index.html.
var viewerTmpl = template.Must(template.New("viewer").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.AppName}} — Prototype</title>
<style>
  body { margin: 0; min-height: 100vh; display: flex; align-items: center;
         justify-content: center; background: #1e1e2e; font-family: sans-serif; }
  .frame { width: 390px; height: 844px; border-radius: 40px; padding: 12px;
           background: #111; box-shadow: 0 20px 60px rgba(0,0,0,.5); }
  .frame iframe { width: 100%; height: 100%; border: 0; border-radius: 28px;
                  background: #fff; }
  .label { position: fixed; top: 16px; left: 0; right: 0; text-align: center;
           color: #888; font-size: 13px; }
</style>
</head>
<body>
<div class="label">{{.AppName}}</div>
<div class="frame"><iframe id="app" title="{{.AppName}}"></iframe></div>
<script>
  var base = location.pathname.replace(/\/+$/, '');
  document.getElementById('app').src = base + '/bundle/index.html';
</script>
</body>
</html>
`))

// RenderViewer produces the index.html written next to a finished bundle.
func RenderViewer(appName string) ([]byte, error) {
	var buf bytes.Buffer
	if err := viewerTmpl.Execute(&buf, struct{ AppName string }{AppName: appName}); err != nil {
		return nil, fmt.Errorf("render viewer: %w", err)
	}
	return buf.Bytes(), nil
}

// NotFoundPage is served for unknown prototype UUIDs.
const NotFoundPage = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Prototype not found</title>
<style>
  body { margin: 0; min-height: 100vh; display: flex; align-items: center;
         justify-content: center; background: #1e1e2e; color: #ccc;
         font-family: sans-serif; }
</style>
</head>
<body><div><h1>404</h1><p>This prototype does not exist or has expired.</p></div></body>
</html>
`
