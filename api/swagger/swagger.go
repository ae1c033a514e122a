package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Tahfidz API",
        "description": "Quran memorization progress and recheck tracking",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "Bearer": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"Bearer": []}],
    "tags": [
        {"name": "Roster", "description": "Page to verse range lookup"},
        {"name": "Hafalan", "description": "Verse marking and hafalan records"},
        {"name": "Recheck", "description": "Recheck rounds of completed pages"},
        {"name": "Partial", "description": "Sub-verse progress"}
    ],
    "paths": {
        "/roster/pages": {
            "get": {
                "tags": ["Roster"],
                "summary": "List roster pages",
                "parameters": [
                    {"name": "juz", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/roster/pages/{page}": {
            "get": {
                "tags": ["Roster"],
                "summary": "Get the verse range of a page",
                "parameters": [
                    {"name": "page", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "PAGE_NOT_FOUND", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/hafalan/verses": {
            "post": {
                "tags": ["Hafalan"],
                "summary": "Mark verses of a page as memorized",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MarkVersesRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "RECORD_ALREADY_FINALIZED or CONCURRENT_MODIFICATION", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "OUT_OF_RANGE_VERSE", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/hafalan": {
            "get": {
                "tags": ["Hafalan"],
                "summary": "List hafalan records",
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "teacherId", "in": "query", "type": "string"},
                    {"name": "pageId", "in": "query", "type": "integer"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/hafalan/{id}": {
            "get": {
                "tags": ["Hafalan"],
                "summary": "Get a hafalan record",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/hafalan/{id}/notes": {
            "patch": {
                "tags": ["Hafalan"],
                "summary": "Replace record notes",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateNotesRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/hafalan/{id}/teacher": {
            "put": {
                "tags": ["Hafalan"],
                "summary": "Reassign the owning teacher",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReassignTeacherRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/hafalan/{id}/history": {
            "get": {
                "tags": ["Hafalan"],
                "summary": "List record history",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/hafalan/{id}/rechecks": {
            "get": {
                "tags": ["Recheck"],
                "summary": "List recheck rounds",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Recheck"],
                "summary": "Submit a recheck round",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitRecheckRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "NO_RECHECK_PENDING", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "INVALID_RECHECK_SCOPE", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/hafalan/{id}/rechecks/scope": {
            "get": {
                "tags": ["Recheck"],
                "summary": "Verses covered by the next round",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{studentId}/progress": {
            "get": {
                "tags": ["Hafalan"],
                "summary": "Student progress summary",
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/partials": {
            "get": {
                "tags": ["Partial"],
                "summary": "List partial progress",
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "pageId", "in": "query", "type": "integer"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Partial"],
                "summary": "Start partial progress on a verse",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreatePartialRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "PARTIAL_IN_PROGRESS", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "INVALID_PERCENTAGE or OUT_OF_RANGE_VERSE", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/partials/{id}": {
            "get": {
                "tags": ["Partial"],
                "summary": "Get partial progress",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "patch": {
                "tags": ["Partial"],
                "summary": "Update an open partial",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdatePartialRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/partials/{id}/complete": {
            "post": {
                "tags": ["Partial"],
                "summary": "Promote a partial into a memorized verse",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/partials/{id}/cancel": {
            "post": {
                "tags": ["Partial"],
                "summary": "Abandon an open partial",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "HafalanRecord": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "studentId": {"type": "string"},
                "teacherId": {"type": "string"},
                "pageId": {"type": "integer"},
                "completedVerses": {"type": "array", "items": {"type": "integer"}},
                "status": {"type": "string", "enum": ["PROGRESS", "COMPLETE_WAITING_RECHECK", "RECHECK_PASSED"]},
                "notes": {"type": "string"},
                "submittedAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "RecheckRecord": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "hafalanRecordId": {"type": "string"},
                "round": {"type": "integer"},
                "recheckedAt": {"type": "string"},
                "recheckedByTeacherId": {"type": "string"},
                "scope": {"type": "array", "items": {"type": "integer"}},
                "allPassed": {"type": "boolean"},
                "failedVerses": {"type": "array", "items": {"type": "integer"}},
                "notes": {"type": "string"}
            }
        },
        "PartialHafalan": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "studentId": {"type": "string"},
                "teacherId": {"type": "string"},
                "pageId": {"type": "integer"},
                "verseNumber": {"type": "integer"},
                "progressNote": {"type": "string"},
                "percentage": {"type": "integer"},
                "status": {"type": "string", "enum": ["IN_PROGRESS", "COMPLETED", "CANCELLED"]},
                "linkedRecordId": {"type": "string"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "MarkVersesRequest": {
            "type": "object",
            "properties": {
                "studentId": {"type": "string"},
                "pageId": {"type": "integer"},
                "verses": {"type": "array", "items": {"type": "integer"}}
            },
            "required": ["studentId", "pageId", "verses"]
        },
        "UpdateNotesRequest": {
            "type": "object",
            "properties": {
                "notes": {"type": "string"}
            }
        },
        "ReassignTeacherRequest": {
            "type": "object",
            "properties": {
                "teacherId": {"type": "string"}
            },
            "required": ["teacherId"]
        },
        "SubmitRecheckRequest": {
            "type": "object",
            "properties": {
                "passedVerses": {"type": "array", "items": {"type": "integer"}},
                "notes": {"type": "string"}
            }
        },
        "CreatePartialRequest": {
            "type": "object",
            "properties": {
                "studentId": {"type": "string"},
                "pageId": {"type": "integer"},
                "verseNumber": {"type": "integer"},
                "progressNote": {"type": "string"},
                "percentage": {"type": "integer", "minimum": 1, "maximum": 99}
            },
            "required": ["studentId", "pageId", "verseNumber", "percentage"]
        },
        "UpdatePartialRequest": {
            "type": "object",
            "properties": {
                "progressNote": {"type": "string"},
                "percentage": {"type": "integer", "minimum": 1, "maximum": 99}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "limit": {"type": "integer"},
                "offset": {"type": "integer"},
                "count": {"type": "integer"}
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
