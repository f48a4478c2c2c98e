package export

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"passenger-insights/models"
)

// Image is a rendered chart embedded into the HTML page.
type Image struct {
	Title string
	Data  template.URL
}

type htmlPage struct {
	P      *models.Presentation
	Images []Image
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.P.Label}}</title>
<style>
body { font-family: Arial, sans-serif; color: #2c3e50; margin: 24px; }
h1 { background: #ecf0f1; padding: 16px; border-radius: 8px; }
.columns { display: flex; gap: 4%; }
.columns > div { width: 48%; }
table { width: 100%; border-collapse: collapse; }
td, th { border: 1px solid #ddd; padding: 4px 8px; text-align: left; }
.failed { color: #e74c3c; }
img { max-width: 100%; }
</style>
</head>
<body>
<h1>{{.P.Label}}</h1>
{{range .Images}}<figure><img src="{{.Data}}" alt="{{.Title}}"><figcaption>{{.Title}}</figcaption></figure>
{{end}}{{with .P.Chart}}{{range .Panels}}{{if .Failed}}<p class="failed">{{.Title}}: not available ({{.Reason}})</p>
{{end}}{{end}}{{end}}{{if .P.ChartError}}<p class="failed">Chart unavailable: {{.P.ChartError}}</p>
{{end}}<div class="columns">
<div>
<h3>{{.P.Narrative.Heading}}</h3>
<p>{{.P.Narrative.Body}}</p>
{{if .P.Stats.Table}}<h4>Key Dataset Statistics</h4>
<table><thead><tr><th>Metric</th><th>Value</th></tr></thead><tbody>
{{range .P.Stats.Table}}<tr><td>{{.Label}}</td><td>{{.Value}}</td></tr>
{{end}}</tbody></table>
{{end}}</div>
<div>
<h3>Key Statistics</h3>
<table><tbody>
{{range .P.Stats.Metrics}}<tr><td>{{.Label}}</td><td>{{.Value}}</td></tr>
{{end}}</tbody></table>
</div>
</div>
</body>
</html>
`))

// RenderHTML produces a self-contained page for p with the given PNG files
// inlined as data URLs.
func RenderHTML(p *models.Presentation, pngPaths []string) ([]byte, error) {
	page := htmlPage{P: p}
	for _, path := range pngPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("html: read image: %w", err)
		}
		page.Images = append(page.Images, Image{
			Title: filepath.Base(path),
			Data:  template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(data)),
		})
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, page); err != nil {
		return nil, fmt.Errorf("html: render %s: %w", p.Key, err)
	}
	return buf.Bytes(), nil
}

// WriteHTML renders p into <dir>/<key>.html and returns the path.
func WriteHTML(dir string, p *models.Presentation, pngPaths []string) (string, error) {
	data, err := RenderHTML(p, pngPaths)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("html: create output dir: %w", err)
	}
	path := filepath.Join(dir, p.Key+".html")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("html: write %q: %w", path, err)
	}
	return path, nil
}
