// Package docs holds the OpenAPI description of the backend API in the form
// swag init emits from the annotations on the engine handlers. Regenerate with
//
//	swag init -g cmd/backend/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support",
            "url": "https://github.com/drummonds/bibview"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/document/upload": {
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["Documents"],
                "summary": "Upload a PDF",
                "parameters": [
                    {"type": "file", "description": "PDF file to upload", "name": "pdf", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "Document and job IDs", "schema": {"$ref": "#/definitions/apiclient.UploadResult"}},
                    "302": {"description": "Redirect to the viewer when the client accepts HTML"},
                    "400": {"description": "No file or not a PDF", "schema": {"$ref": "#/definitions/error"}},
                    "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        },
        "/documents/latest": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Documents"],
                "summary": "Get latest documents",
                "responses": {
                    "200": {"description": "Recently uploaded documents", "schema": {"type": "array", "items": {"$ref": "#/definitions/apiclient.DocumentInfo"}}}
                }
            }
        },
        "/document/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Documents"],
                "summary": "Get a document by ID",
                "parameters": [
                    {"type": "string", "description": "Document ULID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Document details", "schema": {"$ref": "#/definitions/apiclient.DocumentInfo"}},
                    "404": {"description": "Document not found", "schema": {"$ref": "#/definitions/error"}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["Documents"],
                "summary": "Delete a document, its file and its entries",
                "parameters": [
                    {"type": "string", "description": "Document ULID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Document deleted"},
                    "404": {"description": "Document not found", "schema": {"$ref": "#/definitions/error"}},
                    "409": {"description": "Analysis still running", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        },
        "/document/{id}/page/{page}": {
            "get": {
                "produces": ["image/png"],
                "tags": ["Documents"],
                "summary": "Render one page as PNG",
                "parameters": [
                    {"type": "string", "description": "Document ULID", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "1-based page number", "name": "page", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "PNG image"},
                    "400": {"description": "Page is not a number", "schema": {"$ref": "#/definitions/error"}},
                    "404": {"description": "Document or page not found", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        },
        "/document/{id}/thumbnail": {
            "get": {
                "produces": ["image/png"],
                "tags": ["Documents"],
                "summary": "Thumbnail of the first page",
                "parameters": [
                    {"type": "string", "description": "Document ULID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "PNG image"},
                    "404": {"description": "Document not found", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        },
        "/status/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Analysis"],
                "summary": "Analysis progress of a document",
                "parameters": [
                    {"type": "string", "description": "Document ULID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Completed and total entry counts", "schema": {"$ref": "#/definitions/apiclient.Status"}},
                    "404": {"description": "Document not found", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        },
        "/entries/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Analysis"],
                "summary": "Bibliography entries of a document in order",
                "parameters": [
                    {"type": "string", "description": "Document ULID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Entries", "schema": {"type": "array", "items": {"$ref": "#/definitions/apiclient.Entry"}}},
                    "404": {"description": "Document not found", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        },
        "/analyze/{id}": {
            "post": {
                "produces": ["application/json"],
                "tags": ["Analysis"],
                "summary": "Run the bibliography analysis again",
                "parameters": [
                    {"type": "string", "description": "Document ULID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Analysis job started"},
                    "404": {"description": "Document not found", "schema": {"$ref": "#/definitions/error"}},
                    "409": {"description": "Analysis already running", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        },
        "/jobs": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Jobs"],
                "summary": "Recent jobs",
                "parameters": [
                    {"type": "integer", "description": "Maximum number of jobs", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Jobs, newest first", "schema": {"type": "array", "items": {"$ref": "#/definitions/apiclient.Job"}}}
                }
            }
        },
        "/jobs/active": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Jobs"],
                "summary": "Pending and running jobs",
                "responses": {
                    "200": {"description": "Active jobs", "schema": {"type": "array", "items": {"$ref": "#/definitions/apiclient.Job"}}}
                }
            }
        },
        "/jobs/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Jobs"],
                "summary": "One job by ID",
                "parameters": [
                    {"type": "string", "description": "Job ULID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Job", "schema": {"$ref": "#/definitions/apiclient.Job"}},
                    "404": {"description": "Job not found", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        },
        "/about": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Version and configuration of the backend",
                "responses": {
                    "200": {"description": "About information", "schema": {"$ref": "#/definitions/apiclient.AboutInfo"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "Service is healthy"}
                }
            }
        }
    },
    "definitions": {
        "error": {
            "type": "object",
            "properties": {
                "error": {"type": "string"}
            }
        },
        "apiclient.Entry": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "text": {"type": "string"},
                "text_status": {"type": "string", "enum": ["pending", "active", "completed", "error"]},
                "analysis": {"type": "string"},
                "analysis_status": {"type": "string", "enum": ["pending", "active", "completed", "error"]},
                "analysis_found": {"type": "string", "enum": ["", "found", "not-found"]}
            }
        },
        "apiclient.Status": {
            "type": "object",
            "properties": {
                "completed": {"type": "integer"},
                "total": {"type": "integer"},
                "failed": {"type": "integer"}
            }
        },
        "apiclient.DocumentInfo": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "filename": {"type": "string"},
                "totalPages": {"type": "integer"},
                "uploadedAt": {"type": "string", "format": "date-time"},
                "analysisStatus": {"type": "string"}
            }
        },
        "apiclient.UploadResult": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "jobId": {"type": "string"},
                "duplicate": {"type": "boolean"}
            }
        },
        "apiclient.Job": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "type": {"type": "string", "enum": ["analysis", "cleanup"]},
                "status": {"type": "string", "enum": ["pending", "running", "completed", "failed", "cancelled"]},
                "progress": {"type": "integer"},
                "currentStep": {"type": "string"},
                "message": {"type": "string"},
                "error": {"type": "string"},
                "result": {"type": "string"},
                "createdAt": {"type": "string", "format": "date-time"},
                "updatedAt": {"type": "string", "format": "date-time"},
                "startedAt": {"type": "string", "format": "date-time"},
                "completedAt": {"type": "string", "format": "date-time"}
            }
        },
        "apiclient.AboutInfo": {
            "type": "object",
            "properties": {
                "version": {"type": "string"},
                "databaseType": {"type": "string"},
                "databaseHost": {"type": "string"},
                "databasePort": {"type": "string"},
                "databaseName": {"type": "string"},
                "uploadPath": {"type": "string"},
                "renderer": {"type": "string"},
                "renderDPI": {"type": "integer"},
                "doiBaseURL": {"type": "string"},
                "crossrefBaseURL": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{"http", "https"},
	Title:            "bibview Backend API",
	Description:      "Bibliography checker API - uploads PDFs, renders their pages and checks each bibliography entry",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
