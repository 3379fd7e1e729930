package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Taller ADM API",
        "description": "Tuition billing and debt reconciliation API for workshop administration",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Students", "description": "Student roster and family groups"},
        {"name": "Workshops", "description": "Workshop offerings and lifecycle"},
        {"name": "Enrollments", "description": "Enrollment ledger"},
        {"name": "Prices", "description": "Versioned price catalog"},
        {"name": "Billing", "description": "Pending dues, allocation and payments"},
        {"name": "Attendance", "description": "Session attendance sheets"}
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
                    "503": {"description": "Degraded"}
                }
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "familyGroupId", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Students"],
                "summary": "Register student",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateStudentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}": {
            "get": {
                "tags": ["Students"],
                "summary": "Get student",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Students"],
                "summary": "Update student",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateStudentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Students"],
                "summary": "Deactivate student",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/students/{id}/dues": {
            "get": {
                "tags": ["Billing"],
                "summary": "Pending dues for a student or their family group",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "month", "in": "query", "type": "integer"},
                    {"name": "year", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/workshops": {
            "get": {
                "tags": ["Workshops"],
                "summary": "List workshops",
                "parameters": [
                    {"name": "typeId", "in": "query", "type": "string"},
                    {"name": "year", "in": "query", "type": "integer"},
                    {"name": "state", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Workshops"],
                "summary": "Create workshop",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateWorkshopRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/workshops/{id}/state": {
            "patch": {
                "tags": ["Workshops"],
                "summary": "Change workshop state",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TransitionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid transition"}
                }
            }
        },
        "/workshop-types/{id}/prices": {
            "get": {
                "tags": ["Prices"],
                "summary": "Price version history",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Prices"],
                "summary": "Register new price version",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterPriceRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/enrollments": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "List enrollments",
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "workshopId", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Enrollments"],
                "summary": "Enroll student",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EnrollStudentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already enrolled"}
                }
            }
        },
        "/enrollments/{id}/withdraw": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Withdraw enrollment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/billing/allocate": {
            "post": {
                "tags": ["Billing"],
                "summary": "Price allocation preview",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AllocateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/pending-dues": {
            "get": {
                "tags": ["Billing"],
                "summary": "Institution-wide pending dues report",
                "parameters": [
                    {"name": "month", "in": "query", "type": "integer"},
                    {"name": "year", "in": "query", "type": "integer"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/payments": {
            "get": {
                "tags": ["Billing"],
                "summary": "List payments",
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "familyGroupId", "in": "query", "type": "string"},
                    {"name": "month", "in": "query", "type": "integer"},
                    {"name": "year", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Billing"],
                "summary": "Register payment",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterPaymentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Charge already paid or registration in progress"}
                }
            }
        },
        "/payments/{id}": {
            "get": {
                "tags": ["Billing"],
                "summary": "Payment with nested line items",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/attendance": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Record session attendance sheet",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecordAttendanceRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CreateStudentRequest": {
            "type": "object",
            "required": ["document", "full_name", "birth_date"],
            "properties": {
                "document": {"type": "string"},
                "full_name": {"type": "string"},
                "birth_date": {"type": "string", "format": "date-time"},
                "address": {"type": "string"},
                "phone": {"type": "string"},
                "family_group_id": {"type": "string"}
            }
        },
        "CreateWorkshopRequest": {
            "type": "object",
            "required": ["workshop_type_id", "year", "start_date", "schedule", "instructor"],
            "properties": {
                "workshop_type_id": {"type": "string"},
                "year": {"type": "integer"},
                "start_date": {"type": "string", "format": "date-time"},
                "schedule": {"type": "string"},
                "instructor": {"type": "string"}
            }
        },
        "TransitionRequest": {
            "type": "object",
            "properties": {
                "state": {"type": "string", "enum": ["ACTIVE", "INACTIVE", "FINISHED"]}
            }
        },
        "RegisterPriceRequest": {
            "type": "object",
            "required": ["effective_from"],
            "properties": {
                "effective_from": {"type": "string", "format": "date-time"},
                "full_cash": {"type": "string"},
                "full_transfer": {"type": "string"},
                "discount_cash": {"type": "string"},
                "discount_transfer": {"type": "string"}
            }
        },
        "EnrollStudentRequest": {
            "type": "object",
            "required": ["student_id", "workshop_id"],
            "properties": {
                "student_id": {"type": "string"},
                "workshop_id": {"type": "string"}
            }
        },
        "AllocateRequest": {
            "type": "object",
            "required": ["student_id", "month", "year", "mode"],
            "properties": {
                "student_id": {"type": "string"},
                "month": {"type": "integer"},
                "year": {"type": "integer"},
                "mode": {"type": "string", "enum": ["CASH", "TRANSFER"]},
                "mode_overrides": {"type": "object"},
                "exception_overrides": {"type": "object"},
                "selected_keys": {"type": "array", "items": {"type": "string"}}
            }
        },
        "RegisterPaymentRequest": {
            "type": "object",
            "required": ["student_id", "month", "year", "items"],
            "properties": {
                "student_id": {"type": "string"},
                "family_group_id": {"type": "string"},
                "month": {"type": "integer"},
                "year": {"type": "integer"},
                "observation": {"type": "string"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/RegisterPaymentItem"}}
            }
        },
        "RegisterPaymentItem": {
            "type": "object",
            "required": ["student_id", "workshop_id", "month", "year", "mode"],
            "properties": {
                "student_id": {"type": "string"},
                "workshop_id": {"type": "string"},
                "month": {"type": "integer"},
                "year": {"type": "integer"},
                "amount": {"type": "string"},
                "mode": {"type": "string", "enum": ["CASH", "TRANSFER"]},
                "is_exception": {"type": "boolean"},
                "is_full_price": {"type": "boolean"}
            }
        },
        "RecordAttendanceRequest": {
            "type": "object",
            "required": ["workshop_id", "date", "entries"],
            "properties": {
                "workshop_id": {"type": "string"},
                "date": {"type": "string", "format": "date-time"},
                "entries": {"type": "array", "items": {"type": "object"}}
            }
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
                "warnings": {"type": "array", "items": {"type": "string"}},
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
