package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Workshop Dispatch API",
        "description": "Technician availability and assignment core for the workshop platform",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Technicians", "description": "Technician roster and availability"},
        {"name": "Assignments", "description": "Technician-to-job assignment"},
        {"name": "Jobs", "description": "Synchronised service appointments and roadside requests"},
        {"name": "Sync", "description": "Upstream reconciliation"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Database unreachable"}
                }
            }
        },
        "/technicians": {
            "get": {
                "tags": ["Technicians"],
                "summary": "List technicians",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/technicians/available": {
            "get": {
                "tags": ["Technicians"],
                "summary": "List technician availability for a service appointment",
                "parameters": [
                    {"name": "appointmentId", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Missing appointmentId"},
                    "404": {"description": "Appointment not found"}
                }
            }
        },
        "/technicians/available/roadassist/{id}": {
            "get": {
                "tags": ["Technicians"],
                "summary": "List technician availability for a roadside request",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Roadside request not found"}
                }
            }
        },
        "/technicians/{id}": {
            "get": {
                "tags": ["Technicians"],
                "summary": "Get technician detail with current commitments",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Technician not found"}
                }
            }
        },
        "/appointments/assign": {
            "post": {
                "tags": ["Assignments"],
                "summary": "Assign a technician to a service appointment",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignAppointmentRequest"}}
                ],
                "responses": {
                    "200": {"description": "Assigned", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Technician busy or invalid payload"},
                    "404": {"description": "Appointment or technician not found"}
                }
            }
        },
        "/roadassists/{id}/assign-technician": {
            "put": {
                "tags": ["Assignments"],
                "summary": "Assign a technician to a roadside assistance request",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignRoadAssistRequest"}}
                ],
                "responses": {
                    "200": {"description": "Assigned", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Technician busy or invalid payload"},
                    "404": {"description": "Request or technician not found"},
                    "502": {"description": "Roadside service rejected the assignment"}
                }
            }
        },
        "/jobs": {
            "get": {
                "tags": ["Jobs"],
                "summary": "List jobs",
                "parameters": [
                    {"name": "kind", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/jobs/{id}": {
            "get": {
                "tags": ["Jobs"],
                "summary": "Get a job by external ID",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Job not found"}
                }
            }
        },
        "/sync/{source}": {
            "post": {
                "tags": ["Sync"],
                "summary": "Trigger a reconciliation run for an upstream source",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "source", "in": "path", "type": "string", "required": true, "enum": ["technicians", "appointments", "roadassists"]}
                ],
                "responses": {
                    "200": {"description": "Report", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Unknown source"},
                    "401": {"description": "Missing or invalid token"},
                    "502": {"description": "Upstream unavailable"}
                }
            }
        }
    },
    "definitions": {
        "AssignAppointmentRequest": {
            "type": "object",
            "required": ["appointmentId", "technicianId"],
            "properties": {
                "appointmentId": {"type": "string"},
                "technicianId": {"type": "string"}
            }
        },
        "AssignRoadAssistRequest": {
            "type": "object",
            "required": ["technicianId"],
            "properties": {
                "technicianId": {"type": "string"}
            }
        },
        "Conflict": {
            "type": "object",
            "properties": {
                "kind": {"type": "string"},
                "id": {"type": "string"},
                "window": {"type": "object"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {"type": "object"},
                "message": {"type": "string"},
                "code": {"type": "string"},
                "conflicts": {"type": "array", "items": {"$ref": "#/definitions/Conflict"}}
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
