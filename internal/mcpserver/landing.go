package mcpserver

import "net/http"

const landingPageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<title>Things 3 MCP Server</title>
<style>
*,*::before,*::after{box-sizing:border-box;margin:0;padding:0}
:root{
  --blue:#1A7CF9;
  --bg:#FFFFFF;
  --text:#1C1C1E;
  --text-secondary:#8E8E93;
  --divider:#E5E5EA;
  --code-bg:#F2F2F7;
}
@media(prefers-color-scheme:dark){
  :root{
    --bg:#1C1C1E;
    --text:#F2F2F7;
    --divider:#3A3A3C;
    --code-bg:#3A3A3C;
  }
}
body{
  font-family:-apple-system,BlinkMacSystemFont,"SF Pro Text","Segoe UI",Roboto,Helvetica,Arial,sans-serif;
  color:var(--text);
  background:var(--bg);
  line-height:1.6;
  max-width:640px;
  margin:0 auto;
  padding:48px 24px;
}
h1{font-size:28px;margin-bottom:8px}
p{color:var(--text-secondary);margin-bottom:24px}
code{background:var(--code-bg);border-radius:6px;padding:2px 6px;font-size:14px}
table{width:100%;border-collapse:collapse;margin-bottom:24px}
td{padding:8px 0;border-bottom:1px solid var(--divider);font-size:15px}
td:first-child{color:var(--text-secondary);width:160px}
</style>
</head>
<body>
<h1>Things 3 MCP Server</h1>
<p>Model Context Protocol access to your local Things 3 database.</p>
<table>
<tr><td>Status</td><td>Running</td></tr>
<tr><td>MCP endpoint</td><td><code>/mcp</code></td></tr>
<tr><td>Transport</td><td>Streamable HTTP</td></tr>
<tr><td>Authentication</td><td><code>Authorization: Bearer</code>, <code>X-API-Key</code> header, or <code>?api_key=</code></td></tr>
</table>
<p>Connect an MCP client to this host's <code>/mcp</code> endpoint with your key to browse, search, and create Things todos.</p>
</body>
</html>`

func (s *Server) handleLandingPage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(landingPageHTML))
}
