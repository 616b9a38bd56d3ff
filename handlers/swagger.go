package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the API.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg gin.IRouter) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>corpsite-api · Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "corpsite-api", "version": "v1.0.0" },
  "components": {
    "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" } },
    "schemas": {
      "Document": { "type": "object", "properties": {
        "id": {"type":"string"}, "section": {"type":"string"}, "title": {"type":"string"},
        "pdfUrl": {"type":"string"}, "audioUrl": {"type":"string"}, "link": {"type":"string"},
        "year": {"type":"string"}, "publishedDate": {"type":"string", "description":"DD/MM/YYYY"},
        "createdAt": {"type":"string", "format":"date-time"} } }
    }
  },
  "paths": {
    "/auth/login": {
      "post": {
        "summary": "Log in with a local password or a Keycloak id_token",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","required":["mode"],"properties":{"mode":{"type":"string","enum":["password","oidc"]},"username":{"type":"string"},"password":{"type":"string"},"id_token":{"type":"string"}}}}}},
        "responses": { "200": { "description": "accessToken, refreshToken, user, expiresIn" }, "401": { "description": "authentication failed" }, "403": { "description": "no CMS role" } }
      }
    },
    "/auth/refresh": {
      "post": { "summary": "Rotate refresh token and issue a new access token", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"refresh_token":{"type":"string"}}}}}}, "responses": { "200": { "description": "new token pair" }, "401": { "description": "invalid refresh" } } }
    },
    "/auth/logout": {
      "post": { "summary": "Logout, invalidate refresh token and revoke the access token", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"refresh_token":{"type":"string"}}}}}}, "responses": { "200": { "description": "logged out" } } }
    },
    "/api/v1/me": {
      "get": { "summary": "Current CMS user", "security": [{"bearer": []}], "responses": { "200": { "description": "user" }, "401": { "description": "unauthenticated" } } }
    },
    "/api/investors/sections": {
      "get": { "summary": "Investor-relations sections", "responses": { "200": { "description": "sections" } } }
    },
    "/api/investors/{section}/documents": {
      "get": {
        "summary": "Ranked documents of a section",
        "parameters": [
          {"name":"section","in":"path","required":true,"schema":{"type":"string"}},
          {"name":"year","in":"query","schema":{"type":"string"},"description":"fiscal year; omitted selects the most recent, 'all' disables filtering"}
        ],
        "responses": { "200": { "description": "documents, years, selectedYear" }, "404": { "description": "unknown section" } }
      },
      "post": { "summary": "Create a document", "security": [{"bearer": []}], "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/Document"}}}}, "responses": { "201": { "description": "created" }, "400": { "description": "validation failed" }, "403": { "description": "role required" } } }
    },
    "/api/investors/{section}/documents/{id}": {
      "get": { "summary": "Get a document", "security": [{"bearer": []}], "responses": { "200": { "description": "document" }, "404": { "description": "not found" } } },
      "patch": { "summary": "Edit a document", "security": [{"bearer": []}], "responses": { "200": { "description": "updated" } } },
      "delete": { "summary": "Delete a document", "security": [{"bearer": []}], "responses": { "204": { "description": "deleted" } } }
    },
    "/api/investors/{section}/years": {
      "get": { "summary": "Fiscal years of a section, most recent first", "responses": { "200": { "description": "years" } } }
    },
    "/api/pages": { "get": { "summary": "List CMS pages", "responses": { "200": { "description": "pages" } } } },
    "/api/pages/{slug}": {
      "get": { "summary": "Page with rendered sections", "responses": { "200": { "description": "page" }, "404": { "description": "not found" } } },
      "put": { "summary": "Create or replace a page (admin)", "security": [{"bearer": []}], "responses": { "200": { "description": "saved" } } }
    },
    "/api/uploads": {
      "post": { "summary": "Upload a PDF or audio file (multipart field 'file', optional 'kind')", "security": [{"bearer": []}], "responses": { "201": { "description": "url, key, size, contentType" }, "413": { "description": "too large" }, "415": { "description": "unsupported media" } } }
    },
    "/api/contact": {
      "post": { "summary": "Submit a contact enquiry", "responses": { "200": { "description": "sent" }, "202": { "description": "archived, mail disabled" }, "400": { "description": "invalid" }, "429": { "description": "rate limited" }, "502": { "description": "mail delivery failed" } } }
    },
    "/api/download-proxy": {
      "post": { "summary": "Download a remote PDF as an attachment", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"url":{"type":"string"},"filename":{"type":"string"}}}}}}, "responses": { "200": { "description": "file stream" }, "403": { "description": "host not allowed" }, "502": { "description": "upstream failure" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "metrics" } } } }
  }
}`
