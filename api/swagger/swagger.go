package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Admissions CRM API",
        "description": "REST API for the university admissions CRM: walk-in campus visits, documents, queries, referrals, payments, and admin broadcasts.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Auth", "description": "Login and session management"},
        {"name": "Walkins", "description": "Walk-in campus visit requests"},
        {"name": "Communications", "description": "Admin email broadcasts"},
        {"name": "Documents", "description": "Admission document verification"},
        {"name": "Queries", "description": "Student question threads"},
        {"name": "Referrals", "description": "Friend referral tracking"},
        {"name": "Payments", "description": "Registration fee payments"},
        {"name": "Dashboard", "description": "Counsellor stats snapshot"}
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
                    "200": {"description": "Ready"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Login",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/walkins": {
            "post": {
                "tags": ["Walkins"],
                "summary": "Submit a walk-in visit request",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateWalkinRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Awaiting counsellor assignment"}
                }
            }
        },
        "/walkins/availability": {
            "get": {
                "tags": ["Walkins"],
                "summary": "Report whether the student can submit a new request",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/walkins/mine": {
            "get": {
                "tags": ["Walkins"],
                "summary": "List the student's own requests",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/walkins/assigned": {
            "get": {
                "tags": ["Walkins"],
                "summary": "List requests assigned to the counsellor",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/walkins/{id}/decision": {
            "post": {
                "tags": ["Walkins"],
                "summary": "Approve, modify, or reject a request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DecideWalkinRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Illegal transition or concurrent decision"}
                }
            }
        },
        "/communications": {
            "post": {
                "tags": ["Communications"],
                "summary": "Send an email broadcast",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SendCommunicationRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "get": {
                "tags": ["Communications"],
                "summary": "List broadcast history",
                "parameters": [
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/communications/universities": {
            "get": {
                "tags": ["Communications"],
                "summary": "List active universities",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/communications/export": {
            "get": {
                "tags": ["Communications"],
                "summary": "Export broadcast history as CSV",
                "produces": ["text/csv"],
                "responses": {
                    "200": {"description": "CSV file"}
                }
            }
        },
        "/documents": {
            "post": {
                "tags": ["Documents"],
                "summary": "Upload an admission document",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "file", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/documents/mine": {
            "get": {
                "tags": ["Documents"],
                "summary": "List the caller's documents",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/documents/{id}/review": {
            "post": {
                "tags": ["Documents"],
                "summary": "Verify or reject a pending document",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReviewDocumentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already reviewed"}
                }
            }
        },
        "/queries": {
            "post": {
                "tags": ["Queries"],
                "summary": "Open a query thread",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateQueryRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/queries/{id}/replies": {
            "post": {
                "tags": ["Queries"],
                "summary": "Reply to a thread",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReplyQueryRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Thread closed"}
                }
            }
        },
        "/referrals": {
            "post": {
                "tags": ["Referrals"],
                "summary": "Invite a friend",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/InviteReferralRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/payments/fee": {
            "get": {
                "tags": ["Payments"],
                "summary": "Get the current fee schedule",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/payments/orders": {
            "post": {
                "tags": ["Payments"],
                "summary": "Open a fee payment order",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateOrderRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Fee already paid"}
                }
            }
        },
        "/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Counsellor dashboard snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "CreateWalkinRequest": {
            "type": "object",
            "properties": {
                "visit_date": {"type": "string", "description": "YYYY-MM-DD"},
                "visit_time": {"type": "string"},
                "number_of_persons": {"type": "integer", "minimum": 1},
                "reason": {"type": "string"}
            },
            "required": ["visit_date", "visit_time", "number_of_persons", "reason"]
        },
        "DecideWalkinRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["approved", "modified", "rejected"]},
                "counsellor_note": {"type": "string"},
                "visit_date": {"type": "string"},
                "visit_time": {"type": "string"}
            },
            "required": ["status"]
        },
        "SendCommunicationRequest": {
            "type": "object",
            "properties": {
                "subject": {"type": "string"},
                "message": {"type": "string"},
                "university_ids": {"type": "array", "items": {"type": "string"}},
                "send_to_all": {"type": "boolean"}
            },
            "required": ["subject", "message"]
        },
        "ReviewDocumentRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["verified", "rejected"]},
                "rejection_reason": {"type": "string"}
            },
            "required": ["status"]
        },
        "CreateQueryRequest": {
            "type": "object",
            "properties": {
                "subject": {"type": "string"},
                "message": {"type": "string"}
            },
            "required": ["subject", "message"]
        },
        "ReplyQueryRequest": {
            "type": "object",
            "properties": {
                "message": {"type": "string"}
            },
            "required": ["message"]
        },
        "InviteReferralRequest": {
            "type": "object",
            "properties": {
                "friend_name": {"type": "string"},
                "friend_email": {"type": "string"}
            },
            "required": ["friend_name", "friend_email"]
        },
        "CreateOrderRequest": {
            "type": "object",
            "properties": {
                "fee_type": {"type": "string", "enum": ["registration"]},
                "amount": {"type": "integer"}
            },
            "required": ["fee_type", "amount"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
                "pagination": {"$ref": "#/definitions/Pagination"},
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
