package mcp

import "net/http"

const landingHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Grounded Chat</title>
<style>
  body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; max-width: 640px; margin: 3rem auto; color: #1e293b; }
  code { background: #f1f5f9; padding: 0 0.25rem; border-radius: 4px; }
  li { margin-bottom: 0.35rem; }
</style>
</head>
<body>
<h1>Grounded Chat</h1>
<p>Answers questions from the indexed documentation only. When no document is relevant enough, it says so instead of guessing.</p>
<h2>Endpoints</h2>
<ul>
  <li><a href="/mcp"><code>/mcp</code></a> MCP Streamable HTTP</li>
  <li><a href="/health"><code>/health</code></a> health check</li>
</ul>
<h2>Tools</h2>
<ul>
  <li><code>ask</code> answer a question within a conversation</li>
  <li><code>search</code> ranked documentation chunks for a query</li>
  <li><code>new_session</code> and <code>reset_session</code> manage conversations</li>
  <li><code>get_status</code> index size and active sessions</li>
</ul>
</body>
</html>`

// NewLandingHandler returns an HTTP handler that serves the landing page at /.
func NewLandingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(landingHTML))
	}
}
