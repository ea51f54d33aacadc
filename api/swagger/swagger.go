package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Academic Ledger Gateway",
        "description": "Submits and evaluates academic credential transactions on the permissioned ledger",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Ledger", "description": "Contract transactions"},
        {"name": "Verification", "description": "Public certificate verification"},
        {"name": "Documents", "description": "Certificate and transcript downloads"}
    ],
    "paths": {
        "/health": {
            "get": {"summary": "Liveness check", "responses": {"200": {"description": "OK"}}}
        },
        "/ready": {
            "get": {
                "summary": "Readiness check including the ledger store",
                "responses": {"200": {"description": "Ready"}, "503": {"description": "Ledger store unreachable"}}
            }
        },
        "/verify/{code}": {
            "get": {
                "tags": ["Verification"],
                "summary": "Resolve a verification code",
                "parameters": [{"name": "code", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "Public certificate", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown code", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/transactions": {
            "get": {
                "tags": ["Ledger"],
                "summary": "List contract transactions",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/transactions/{name}": {
            "post": {
                "tags": ["Ledger"],
                "summary": "Submit a ledger transaction",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "name", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TransactionRequest"}}
                ],
                "responses": {
                    "200": {"description": "Committed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Organization not authorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate, invalid transition or unresolved conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/queries/{name}": {
            "get": {
                "tags": ["Ledger"],
                "summary": "Evaluate a read-only ledger transaction",
                "parameters": [
                    {"name": "name", "in": "path", "required": true, "type": "string"},
                    {"name": "args", "in": "query", "type": "array", "items": {"type": "string"}, "collectionFormat": "multi"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/verifications": {
            "post": {
                "tags": ["Verification"],
                "summary": "Verify a certificate hash",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/VerificationRequest"}}],
                "responses": {"200": {"description": "Verification outcome", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/certificates/{id}/document": {
            "get": {
                "tags": ["Documents"],
                "summary": "Download a certificate as PDF",
                "security": [{"BearerAuth": []}],
                "produces": ["application/pdf"],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "PDF document"}, "404": {"description": "Unknown certificate"}}
            }
        },
        "/api/v1/students/{id}/transcript": {
            "get": {
                "tags": ["Documents"],
                "summary": "Download a transcript as CSV",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv"],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "CSV document"}, "404": {"description": "Unknown student"}}
            }
        }
    },
    "definitions": {
        "TransactionRequest": {
            "type": "object",
            "properties": {
                "args": {"type": "array", "items": {"type": "string"}}
            }
        },
        "VerificationRequest": {
            "type": "object",
            "required": ["certificateId", "certificateHash"],
            "properties": {
                "requestId": {"type": "string"},
                "certificateId": {"type": "string"},
                "certificateHash": {"type": "string"},
                "requestedBy": {"type": "string"},
                "requestedAt": {"type": "string"},
                "status": {"type": "string", "enum": ["PENDING", "VERIFIED", "INVALID"]}
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
