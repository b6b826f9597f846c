package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Content Review API",
        "description": "Versioned content review with positional annotations",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Submissions", "description": "Aggregated submissions and annotation exports"},
        {"name": "Review", "description": "Per-viewer review workspace"},
        {"name": "Comments", "description": "Positional comment lifecycle"},
        {"name": "System", "description": "Health and metrics"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["System"],
                "summary": "Health check with runtime snapshot",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["System"],
                "summary": "Prometheus metrics",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/submissions": {
            "get": {
                "tags": ["Submissions"],
                "summary": "List aggregated submissions",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "status", "in": "query", "type": "string", "enum": ["published", "under_review", "approved", "changes_requested", "rejected"]},
                    {"name": "platform", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "503": {"description": "Submissions could not be loaded"}
                }
            }
        },
        "/submissions/{assignmentId}/export": {
            "get": {
                "tags": ["Submissions"],
                "summary": "Export the annotations of an assignment",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "assignmentId", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Export file"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/review": {
            "get": {
                "tags": ["Review"],
                "summary": "Current review workspace",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "width", "in": "query", "type": "number"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/review/refresh": {
            "post": {
                "tags": ["Review"],
                "summary": "Refetch and rebuild the submission tree",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"},
                    "503": {"description": "Load failed, previous tree kept"}
                }
            }
        },
        "/review/select": {
            "post": {
                "tags": ["Review"],
                "summary": "Select assignment, version and media",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SelectRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/review/click": {
            "post": {
                "tags": ["Review"],
                "summary": "Click on the media surface",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ClickRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "No selection or editor busy"}
                }
            }
        },
        "/review/status": {
            "patch": {
                "tags": ["Review"],
                "summary": "Patch the selected version's review status",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateVersionStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Already published"}
                }
            }
        },
        "/review/comments/{id}/edit": {
            "post": {
                "tags": ["Comments"],
                "summary": "Open the editor on a comment",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/review/comments/{id}/cancel": {
            "post": {
                "tags": ["Comments"],
                "summary": "Close the editor of a comment",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/review/comments/{id}/done": {
            "post": {
                "tags": ["Comments"],
                "summary": "Mark a comment as done",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "202": {"description": "Kept locally, remote failed"}
                }
            }
        },
        "/review/comments/{id}/reposition": {
            "post": {
                "tags": ["Comments"],
                "summary": "Arm a comment so the next click moves it",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/review/comments/{id}/submit": {
            "post": {
                "tags": ["Comments"],
                "summary": "Save the editor text of a comment",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitCommentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "202": {"description": "Kept locally, remote failed"},
                    "400": {"description": "Empty text"}
                }
            }
        },
        "/review/comments/{id}": {
            "delete": {
                "tags": ["Comments"],
                "summary": "Delete a comment",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "202": {"description": "Kept locally, remote failed"}
                }
            }
        }
    },
    "definitions": {
        "SelectRequest": {
            "type": "object",
            "required": ["assignmentId"],
            "properties": {
                "assignmentId": {"type": "string"},
                "versionIndex": {"type": "integer", "minimum": 0},
                "mediaIndex": {"type": "integer", "minimum": 0}
            }
        },
        "ClickRequest": {
            "type": "object",
            "properties": {
                "x": {"type": "number"},
                "y": {"type": "number"}
            }
        },
        "SubmitCommentRequest": {
            "type": "object",
            "properties": {
                "text": {"type": "string"}
            }
        },
        "UpdateVersionStatusRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string", "enum": ["approved", "changes_requested", "rejected", "under_review"]}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
