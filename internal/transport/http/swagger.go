package transporthttp

import (
	"fmt"
	"net/http"

	"reviewguard/docs"
)

const swaggerSpecPath = "/swagger/openapi.yaml"

var swaggerPage = []byte(fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>%s · API reference</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  <style>html, body, #swagger-ui { margin: 0; height: 100%%; }</style>
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.addEventListener('load', () => SwaggerUIBundle({ url: '%s', dom_id: '#swagger-ui', tryItOutEnabled: true }));
  </script>
</body>
</html>`, serviceName, swaggerSpecPath))

func serveSwaggerUI(w http.ResponseWriter, r *http.Request) {
	serveDoc(w, r, "text/html; charset=utf-8", swaggerPage)
}

func serveSwaggerYAML(w http.ResponseWriter, r *http.Request) {
	serveDoc(w, r, "application/yaml", docs.OpenAPISpec)
}

// serveDoc answers 404 when the OpenAPI document was not embedded.
func serveDoc(w http.ResponseWriter, r *http.Request, contentType string, body []byte) {
	if len(docs.OpenAPISpec) == 0 {
		writeError(w, r, http.StatusNotFound, codeNotFound, "API documentation unavailable")
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
