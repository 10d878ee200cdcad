// Package docs registers the swagger document served under /v1/swagger/.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/collections": {
            "post": {
                "description": "Fetch repositories and publish them as one batch to the downstream queue",
                "produces": ["application/json"],
                "tags": ["Collection"],
                "summary": "Collect Repositories",
                "parameters": [
                    {"type": "string", "description": "Sort key (stars, forks, updated, help-wanted-issues)", "name": "sort", "in": "query"},
                    {"type": "integer", "default": 100, "description": "Maximum number of repositories", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.CollectResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.HTTPErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/errors.HTTPErrorResponse"}}
                }
            }
        },
        "/rate-limit": {
            "get": {
                "description": "Last known GitHub quota for the search and core resources",
                "produces": ["application/json"],
                "tags": ["RateLimit"],
                "summary": "Get Rate Limit",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.APIResponse"}}
                }
            }
        },
        "/repositories": {
            "get": {
                "description": "Search repositories of the configured topic, paginating the GitHub search API",
                "produces": ["application/json"],
                "tags": ["Repository"],
                "summary": "List Repositories",
                "parameters": [
                    {"type": "string", "description": "Sort key (stars, forks, updated, help-wanted-issues)", "name": "sort", "in": "query"},
                    {"type": "integer", "default": 100, "description": "Maximum number of repositories", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.FetchResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.HTTPErrorResponse"}}
                }
            }
        },
        "/repositories/new": {
            "get": {
                "description": "Search repositories of the configured topic created in the last days, most starred first",
                "produces": ["application/json"],
                "tags": ["Repository"],
                "summary": "List New Repositories",
                "parameters": [
                    {"type": "integer", "default": 7, "description": "Lookback window in days", "name": "days", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.FetchResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.HTTPErrorResponse"}}
                }
            }
        },
        "/repositories/{owner}/{repo}": {
            "get": {
                "description": "Fetch the full GitHub payload of one repository",
                "produces": ["application/json"],
                "tags": ["Repository"],
                "summary": "Get Repository",
                "parameters": [
                    {"type": "string", "description": "Repository Owner", "name": "owner", "in": "path", "required": true},
                    {"type": "string", "description": "Repository Name", "name": "repo", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.APIResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.HTTPErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/errors.HTTPErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "errors.HTTPErrorResponse": {
            "type": "object",
            "properties": {
                "detail": {"type": "string"},
                "error_reference": {"type": "string"},
                "resolution": {"type": "string"},
                "status": {"type": "integer"},
                "timestamp": {"type": "string"},
                "title": {"type": "string"}
            }
        },
        "github.RateLimit": {
            "type": "object",
            "properties": {
                "limit": {"type": "integer"},
                "remaining": {"type": "integer"},
                "reset": {"type": "string"},
                "resource": {"type": "string"},
                "used": {"type": "integer"}
            }
        },
        "handler.APIResponse": {
            "type": "object",
            "properties": {
                "data": {},
                "error": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "handler.CollectResponse": {
            "type": "object",
            "properties": {
                "batch_id": {"type": "string"},
                "complete": {"type": "boolean"},
                "count": {"type": "integer"},
                "reason": {"type": "string"}
            }
        },
        "handler.FetchResponse": {
            "type": "object",
            "properties": {
                "complete": {"type": "boolean"},
                "count": {"type": "integer"},
                "error": {"type": "string"},
                "pages": {"type": "integer"},
                "query": {"type": "string"},
                "rate_limit": {"$ref": "#/definitions/github.RateLimit"},
                "reason": {"type": "string"},
                "repositories": {"type": "array", "items": {"$ref": "#/definitions/models.Repository"}},
                "retryable": {"type": "boolean"},
                "sort": {"type": "string"},
                "topic": {"type": "string"}
            }
        },
        "models.Repository": {
            "type": "object",
            "properties": {
                "archived": {"type": "boolean"},
                "created_at": {"type": "string"},
                "description": {"type": "string"},
                "forks": {"type": "integer"},
                "homepage": {"type": "string"},
                "issues": {"type": "integer"},
                "language": {"type": "string"},
                "name": {"type": "string"},
                "owner": {"type": "string"},
                "pushed_at": {"type": "string"},
                "rank": {"type": "integer"},
                "repo_name": {"type": "string"},
                "stars": {"type": "integer"},
                "topics": {"type": "array", "items": {"type": "string"}},
                "updated_at": {"type": "string"},
                "url": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8081",
	BasePath:         "/v1",
	Schemes:          []string{},
	Title:            "GitHub Topics Trending Service",
	Description:      "Ranked repositories of a GitHub topic, fetched from the search API.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
