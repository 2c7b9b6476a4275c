package report

import "html/template"

var reportTmpl = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Script Analysis Report: {{.Title}}</title>
<style>
body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; min-height: 100vh; background-color: #f4f4f9; color: #333; }
.header { width: 100%; background-color: #222a35; color: #fff; padding: 12px 0 10px 30px; font-size: .9em; font-weight: 600; letter-spacing: 1px; position: fixed; height: 1rem; z-index: 2; }
.code-inline { font-family: 'Courier New', Courier, monospace; background-color: #282c34; color: #abb2bf; padding: 2px 4px; border-radius: 4px; font-size: 0.9em; white-space: nowrap; }
.content-wrapper { display: flex; flex: 1 1 auto; height: 100%; padding-top: 4rem; }
.sidebar { width: 240px; background-color: #333a40; color: #e0e0e0; padding: 32px 20px; overflow-y: auto; border-right: 1px solid #444; position: fixed; height: calc(100vh - 2rem); top: 2rem; z-index: 1; }
.sidebar h3 { margin-top: 0; font-size: 1.2em; border-bottom: 1px solid #555; padding-bottom: 10px; }
.sidebar ul { list-style-type: none; padding: 0; }
.sidebar li a { color: #b0c4de; text-decoration: none; display: block; padding: 10px 15px; border-radius: 4px; margin-bottom: 5px; font-size: 1em; }
.sidebar li a:hover, .sidebar li a.active { background-color: #4a525a; color: #ffffff; }
.main-content { width: 100%; flex-grow: 1; padding: 1rem 2rem; overflow-y: auto; background-color: #ffffff; margin-left: 300px; }
.script-analysis-container { display: none; }
.script-analysis-container.active { display: block; }
.code-view-container { display: flex; gap: 20px; margin-top: 15px; }
.code-box { flex: 1; background-color: #282c34; color: #abb2bf; padding: 15px; border-radius: 5px; overflow-x: auto; font-family: 'Courier New', Courier, monospace; font-size: 0.9em; line-height: 1.5; }
.code-box h4 { margin-top: 0; color: #61afef; border-bottom: 1px solid #454c55; padding-bottom: 8px; }
.ai-analysis-box { flex: 1; background-color: #fdfdfd; border: 1px solid #e0e0e0; padding: 15px; border-radius: 5px; }
.ai-analysis-box pre { white-space: pre-wrap; word-wrap: break-word; background-color: #f9f9f9; padding: 10px; border-radius: 4px; border: 1px solid #eee; }
.raw-reply summary { cursor: pointer; color: #777; margin-top: 12px; }
.raw-reply pre { white-space: pre-wrap; word-wrap: break-word; background-color: #f9f9f9; padding: 10px; border: 1px solid #eee; border-radius: 4px; }
#placeholder { text-align: center; color: #777; margin-top: 50px; font-size: 1.2em; }
</style>
</head>
<body>
<div class="header">{{.Title}}</div>
<div class="content-wrapper">
<aside class="sidebar">
<h3>Analyzed Scripts:</h3>
<ul id="script-list">
{{- range .Entries}}
<li><a href="#" onclick="showAnalysis('script-{{.Index}}'); return false;">{{.Name}}</a></li>
{{- end}}
</ul>
</aside>
<main class="main-content">
<div id="placeholder">Select a script from the sidebar to view its analysis.</div>
{{- range .Entries}}
<div id="script-{{.Index}}" class="script-analysis-container">
<div class="code-view-container">
<div class="code-box">
<h4>Script: {{.Name}}</h4>
<pre>{{.Content}}</pre>
</div>
<div class="ai-analysis-box">
{{.Fragment}}
{{- if .RawReply}}
<details class="raw-reply"><summary>Raw model reply</summary><pre>{{.RawReply}}</pre></details>
{{- end}}
</div>
</div>
</div>
{{- end}}
</main>
</div>
<script>
function showAnalysis(id) {
    var containers = document.getElementsByClassName('script-analysis-container');
    for (var i = 0; i < containers.length; i++) {
        containers[i].classList.remove('active');
    }
    var el = document.getElementById(id);
    if (el) {
        el.classList.add('active');
        document.getElementById('placeholder').style.display = 'none';
    }
}
</script>
</body>
</html>
`))

var noScriptsTmpl = template.Must(template.New("no-scripts").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>No Scripts Found: {{.Title}}</title>
<style>
body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 20px; background-color: #f4f4f9; color: #333; text-align: center; }
.container { background-color: #fff; padding: 30px; border-radius: 8px; box-shadow: 0 0 10px rgba(0,0,0,0.1); display: inline-block; }
h1 { color: #2c3e50; }
</style>
</head>
<body>
<div class="container">
<h1>No Scripts Found</h1>
<p>No Python scripts were found embedded within the Blender file: <strong>{{.Title}}</strong>.</p>
<p>Therefore, no security analysis could be performed on its internal scripts.</p>
</div>
</body>
</html>
`))
