package api

import "net/http"

const landingHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Knowledge Pad</title>
<style>
  *, *::before, *::after { box-sizing: border-box; margin: 0; padding: 0; }
  body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; background: #0f172a; color: #e2e8f0; min-height: 100vh; display: flex; justify-content: center; padding: 3rem 0; }
  .card { max-width: 760px; width: 92%; background: #1e293b; border-radius: 12px; padding: 2.5rem; box-shadow: 0 25px 50px rgba(0,0,0,0.4); }
  h1 { font-size: 1.75rem; margin-bottom: 0.5rem; color: #f8fafc; }
  .subtitle { color: #94a3b8; margin-bottom: 1.75rem; }
  .section { margin-bottom: 1.75rem; }
  .section-title { font-size: 0.75rem; text-transform: uppercase; letter-spacing: 0.1em; color: #64748b; margin-bottom: 0.5rem; }
  input[type=text] { width: 70%; padding: 0.5rem; border-radius: 6px; border: 1px solid #334155; background: #0f172a; color: #e2e8f0; }
  button { padding: 0.5rem 1rem; border: 0; border-radius: 6px; background: #38bdf8; color: #0f172a; cursor: pointer; }
  a { color: #38bdf8; text-decoration: none; }
  .hit { border-top: 1px solid #334155; padding: 0.75rem 0; }
  .meta { color: #94a3b8; font-size: 0.85rem; }
  #status { color: #94a3b8; margin-top: 0.5rem; font-size: 0.85rem; }
</style>
</head>
<body>
<div class="card">
  <h1>Knowledge Pad</h1>
  <p class="subtitle">Upload PDFs and Markdown notes, then search them by meaning.</p>

  <div class="section">
    <div class="section-title">Upload</div>
    <form id="upload"><input type="file" name="file" accept=".pdf,.md"> <button type="submit">Upload</button></form>
    <div id="status"></div>
  </div>

  <div class="section">
    <div class="section-title">Search</div>
    <form id="search"><input type="text" name="query" placeholder="What would you like to find?"> <button type="submit">Search</button></form>
    <div id="results"></div>
  </div>
</div>
<script>
const status = document.getElementById("status");
document.getElementById("upload").addEventListener("submit", async (e) => {
  e.preventDefault();
  status.textContent = "Uploading...";
  const res = await fetch("/api/upload", { method: "POST", body: new FormData(e.target) });
  const body = await res.json();
  status.textContent = res.ok ? "Indexed " + body.document.filename + " (" + body.document.chunks + " chunks)" : body.error;
});
document.getElementById("search").addEventListener("submit", async (e) => {
  e.preventDefault();
  const q = new FormData(e.target).get("query");
  const res = await fetch("/api/search?query=" + encodeURIComponent(q));
  const body = await res.json();
  const out = document.getElementById("results");
  out.replaceChildren();
  if (!res.ok) { out.textContent = body.error; return; }
  for (const r of body.results) {
    const div = document.createElement("div");
    div.className = "hit";
    const meta = document.createElement("div");
    meta.className = "meta";
    const link = document.createElement("a");
    link.href = r.download_url;
    link.textContent = r.filename;
    meta.append(link, " page " + r.page + " score " + r.score.toFixed(3));
    const text = document.createElement("p");
    text.textContent = r.snippet;
    div.append(meta, text);
    out.append(div);
  }
});
</script>
</body>
</html>`

// NewLandingHandler returns an HTTP handler that serves the landing page.
func NewLandingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(landingHTML))
	}
}
