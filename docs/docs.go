// Package docs registers the OpenAPI document served at /swagger. The paths
// are regenerated from handler annotations with `swag init -g cmd/server/main.go`.
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
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/health/ready": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness probe",
                "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}
            }
        },
        "/v1/projects": {
            "get": {
                "produces": ["application/json"],
                "tags": ["projects"],
                "summary": "List the caller's projects",
                "parameters": [{"type": "boolean", "name": "owned", "in": "query"}],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["projects"],
                "summary": "Create a project",
                "parameters": [
                    {"type": "string", "name": "Idempotency-Key", "in": "header"},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/createProjectRequest"}}
                ],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}
            }
        },
        "/v1/tenants": {
            "get": {
                "produces": ["application/json"],
                "tags": ["tenants"],
                "summary": "List the caller's tenants",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tenants"],
                "summary": "Create a tenant",
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/createTenantRequest"}}
                ],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}
            }
        },
        "/v1/tenants/{tenantId}/projects": {
            "get": {
                "produces": ["application/json"],
                "tags": ["tenants"],
                "summary": "List the tenant's projects",
                "parameters": [{"type": "string", "name": "tenantId", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}
            }
        },
        "/v1/projects/{projectId}/actions": {
            "get": {
                "produces": ["application/json"],
                "tags": ["actions"],
                "summary": "List the action catalog",
                "parameters": [{"type": "string", "name": "projectId", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["actions"],
                "summary": "Add an action to the catalog",
                "parameters": [
                    {"type": "string", "name": "projectId", "in": "path", "required": true},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/createActionRequest"}}
                ],
                "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}
            }
        },
        "/v1/projects/{projectId}/matrix": {
            "get": {
                "produces": ["application/json"],
                "tags": ["matrix"],
                "summary": "Get the composed matrix of a project",
                "parameters": [{"type": "string", "name": "projectId", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/v1/projects/{projectId}/matrix/{targetId}/{stageId}": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["matrix"],
                "summary": "Create or update a matrix cell",
                "parameters": [
                    {"type": "string", "name": "projectId", "in": "path", "required": true},
                    {"type": "string", "name": "targetId", "in": "path", "required": true},
                    {"type": "string", "name": "stageId", "in": "path", "required": true},
                    {"type": "string", "name": "If-Match", "in": "header"}
                ],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}
            }
        },
        "/v1/me/assignments": {
            "get": {
                "produces": ["application/json"],
                "tags": ["me"],
                "summary": "Cells assigned to the caller",
                "parameters": [
                    {"type": "string", "name": "from", "in": "query"},
                    {"type": "string", "name": "to", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "createProjectRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"},
                "tenantId": {"type": "string"},
                "settings": {
                    "type": "object",
                    "properties": {
                        "isPublic": {"type": "boolean"},
                        "allowGuestAccess": {"type": "boolean"}
                    }
                }
            }
        },
        "createTenantRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string"}
            }
        },
        "createActionRequest": {
            "type": "object",
            "required": ["key", "name"],
            "properties": {
                "key": {"type": "string"},
                "name": {"type": "string"},
                "description": {"type": "string"},
                "category": {"type": "string"},
                "isDefault": {"type": "boolean"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "ToDo board API",
	Description:      "Tenants, projects, tasks and a stage x target matrix over a single-table store.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
