// Package docs holds the OpenAPI description served under /swagger.
// Regenerate with: swag init -g cmd/api/main.go
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
        "/questions": {
            "get": {
                "description": "Return the questionnaire catalog with labels in the requested language.",
                "produces": ["application/json"],
                "tags": ["questions"],
                "summary": "List questionnaire",
                "parameters": [
                    {"enum": ["en", "uk", "ru"], "type": "string", "default": "en", "description": "Label language", "name": "lang", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.QuestionnaireResponse"}}
                }
            }
        },
        "/reports": {
            "get": {
                "description": "Fetch stored reports, newest first, with cursor pagination.",
                "produces": ["application/json"],
                "tags": ["reports"],
                "summary": "List reports",
                "parameters": [
                    {"enum": ["en", "uk", "ru"], "type": "string", "description": "Only reports in this language", "name": "language", "in": "query"},
                    {"maximum": 100, "minimum": 1, "type": "integer", "default": 20, "description": "Results per page (1-100)", "name": "limit", "in": "query"},
                    {"type": "string", "description": "Cursor from previous response's next_cursor", "name": "cursor", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.ReportListResponse"}},
                    "400": {"description": "Invalid cursor", "schema": {"$ref": "#/definitions/problem.Problem"}},
                    "422": {"description": "Invalid query parameters", "schema": {"$ref": "#/definitions/problem.Problem"}}
                }
            },
            "post": {
                "description": "Validate questionnaire answers, generate the 90-day report and store it.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["reports"],
                "summary": "Generate a report",
                "parameters": [
                    {"description": "Answers and language", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.CreateReportRequest"}}
                ],
                "responses": {
                    "201": {"description": "Report generated", "schema": {"$ref": "#/definitions/domain.ReportResponse"}},
                    "400": {"description": "Invalid JSON body", "schema": {"$ref": "#/definitions/problem.Problem"}},
                    "413": {"description": "Body too large", "schema": {"$ref": "#/definitions/problem.Problem"}},
                    "422": {"description": "Invalid answers", "schema": {"$ref": "#/definitions/problem.Problem"}}
                }
            }
        },
        "/reports/preview": {
            "post": {
                "description": "Generate a report without storing it. format=pdf returns the rendered document.",
                "consumes": ["application/json"],
                "produces": ["application/json", "application/pdf"],
                "tags": ["reports"],
                "summary": "Preview a report",
                "parameters": [
                    {"description": "Answers and language", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.CreateReportRequest"}},
                    {"enum": ["json", "pdf"], "type": "string", "default": "json", "description": "Response format", "name": "format", "in": "query"},
                    {"type": "boolean", "description": "Show the PDF in the browser instead of downloading it", "name": "inline", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Generated report", "schema": {"$ref": "#/definitions/domain.ReportDocument"}},
                    "422": {"description": "Invalid answers", "schema": {"$ref": "#/definitions/problem.Problem"}}
                }
            }
        },
        "/reports/render": {
            "post": {
                "description": "Render a serialized report document to PDF. Fields outside the document schema are rejected.",
                "consumes": ["application/json"],
                "produces": ["application/pdf"],
                "tags": ["reports"],
                "summary": "Render a report document",
                "parameters": [
                    {"description": "Report document", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.ReportDocument"}},
                    {"enum": ["en", "uk", "ru"], "type": "string", "description": "Label language; defaults to the document language", "name": "lang", "in": "query"},
                    {"type": "boolean", "description": "Show the PDF in the browser instead of downloading it", "name": "inline", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "PDF document", "schema": {"type": "file"}},
                    "413": {"description": "Body too large", "schema": {"$ref": "#/definitions/problem.Problem"}},
                    "422": {"description": "Document violates the report schema", "schema": {"$ref": "#/definitions/problem.Problem"}}
                }
            }
        },
        "/reports/{reportId}": {
            "get": {
                "description": "Fetch a stored report with its structured content.",
                "produces": ["application/json"],
                "tags": ["reports"],
                "summary": "Get a report",
                "parameters": [
                    {"type": "string", "format": "uuid", "description": "Report UUID", "name": "reportId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.ReportResponse"}},
                    "400": {"description": "Invalid report ID", "schema": {"$ref": "#/definitions/problem.Problem"}},
                    "404": {"description": "Report not found", "schema": {"$ref": "#/definitions/problem.Problem"}}
                }
            }
        },
        "/reports/{reportId}/pdf": {
            "get": {
                "description": "Render a stored report to PDF.",
                "produces": ["application/pdf"],
                "tags": ["reports"],
                "summary": "Download report PDF",
                "parameters": [
                    {"type": "string", "format": "uuid", "description": "Report UUID", "name": "reportId", "in": "path", "required": true},
                    {"enum": ["en", "uk", "ru"], "type": "string", "description": "Label language", "name": "lang", "in": "query"},
                    {"type": "boolean", "description": "Show the PDF in the browser instead of downloading it", "name": "inline", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "PDF document", "schema": {"type": "file"}},
                    "404": {"description": "Report not found", "schema": {"$ref": "#/definitions/problem.Problem"}},
                    "409": {"description": "Report is not ready", "schema": {"$ref": "#/definitions/problem.Problem"}}
                }
            }
        },
        "/reports/{reportId}/feedback": {
            "post": {
                "description": "Attach a user rating to the trace of a stored report.",
                "consumes": ["application/json"],
                "tags": ["reports"],
                "summary": "Rate a report",
                "parameters": [
                    {"type": "string", "format": "uuid", "description": "Report UUID", "name": "reportId", "in": "path", "required": true},
                    {"description": "Feedback", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.FeedbackRequest"}}
                ],
                "responses": {
                    "204": {"description": "Feedback accepted"},
                    "404": {"description": "Report not found", "schema": {"$ref": "#/definitions/problem.Problem"}},
                    "409": {"description": "Report has no trace", "schema": {"$ref": "#/definitions/problem.Problem"}},
                    "422": {"description": "Invalid fields", "schema": {"$ref": "#/definitions/problem.Problem"}}
                }
            }
        }
    },
    "definitions": {
        "domain.CreateReportRequest": {
            "type": "object",
            "required": ["answers"],
            "properties": {
                "answers": {"type": "object", "additionalProperties": {"type": "string"}},
                "language": {"type": "string", "example": "en"}
            }
        },
        "domain.QuestionnaireResponse": {"type": "object"},
        "domain.ReportDocument": {"type": "object"},
        "domain.ReportResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "example": "550e8400-e29b-41d4-a716-446655440000"},
                "status": {"type": "string", "example": "ready"},
                "language": {"type": "string", "example": "en"},
                "generator": {"type": "string", "example": "deterministic"},
                "created_at": {"type": "string", "example": "2024-05-01T10:00:00Z"},
                "trace_id": {"type": "string"},
                "report": {"$ref": "#/definitions/domain.ReportDocument"}
            }
        },
        "domain.ReportListResponse": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/domain.ReportResponse"}},
                "pagination": {
                    "type": "object",
                    "properties": {
                        "next_cursor": {"type": "string"},
                        "has_more": {"type": "boolean"}
                    }
                }
            }
        },
        "handler.FeedbackRequest": {
            "type": "object",
            "properties": {
                "score": {"type": "integer", "maximum": 5, "minimum": 1, "example": 4},
                "comment": {"type": "string"}
            }
        },
        "problem.Problem": {
            "type": "object",
            "properties": {
                "type": {"type": "string"},
                "title": {"type": "string"},
                "status": {"type": "integer"},
                "detail": {"type": "string"},
                "errors": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "field": {"type": "string"},
                            "message": {"type": "string"}
                        }
                    }
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/v1",
	Schemes:          []string{},
	Title:            "BioAge Reset API",
	Description:      "Questionnaire-driven 90-day longevity reports with PDF rendering.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
