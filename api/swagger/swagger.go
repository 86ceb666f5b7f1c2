package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Calendar Booking API",
        "description": "Owners publish availability; visitors claim fixed-length slots.",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Availability", "description": "Owner ranges and derived free slots"},
        {"name": "Bookings", "description": "Slot claims and owner booking views"}
    ],
    "paths": {
        "/availability": {
            "post": {
                "tags": ["Availability"],
                "summary": "Publish an availability range",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PublishAvailabilityRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid range", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/availability/{ownerId}": {
            "get": {
                "tags": ["Availability"],
                "summary": "List free slots of an owner, sorted by start",
                "parameters": [
                    {"name": "ownerId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/FreeSlotsEnvelope"}},
                    "500": {"description": "Storage failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/availability/{ownerId}/ranges": {
            "get": {
                "tags": ["Availability"],
                "summary": "List the caller's published ranges",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "ownerId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/book": {
            "post": {
                "tags": ["Bookings"],
                "summary": "Claim a free slot",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ClaimSlotRequest"}}
                ],
                "responses": {
                    "201": {"description": "Booked", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Slot taken or not offered", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "429": {"description": "Rate limited", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bookings/{ownerId}": {
            "get": {
                "tags": ["Bookings"],
                "summary": "List bookings on the caller's calendar, ordered by start",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "ownerId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bookings/{ownerId}/export": {
            "get": {
                "tags": ["Bookings"],
                "summary": "Download the caller's bookings",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "ownerId", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "PublishAvailabilityRequest": {
            "type": "object",
            "required": ["start", "end"],
            "properties": {
                "start": {"type": "string", "format": "date-time"},
                "end": {"type": "string", "format": "date-time"}
            }
        },
        "ClaimSlotRequest": {
            "type": "object",
            "required": ["owner_id", "start", "end", "visitor_name", "visitor_email"],
            "properties": {
                "owner_id": {"type": "string"},
                "start": {"type": "string", "format": "date-time"},
                "end": {"type": "string", "format": "date-time"},
                "visitor_name": {"type": "string"},
                "visitor_email": {"type": "string"}
            }
        },
        "SlotView": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "range_id": {"type": "string"},
                "start": {"type": "string", "format": "date-time"},
                "end": {"type": "string", "format": "date-time"}
            }
        },
        "FreeSlotsResponse": {
            "type": "object",
            "properties": {
                "owner_id": {"type": "string"},
                "slot_minutes": {"type": "integer"},
                "slots": {"type": "array", "items": {"$ref": "#/definitions/SlotView"}},
                "generated_at": {"type": "string", "format": "date-time"}
            }
        },
        "FreeSlotsEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/FreeSlotsResponse"},
                "meta": {"type": "object"}
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
