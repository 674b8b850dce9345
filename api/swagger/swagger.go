package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Study Plan API",
        "description": "Academic calendars, teaching week resolution and class schedules",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Calendars", "description": "Academic calendar management"},
        {"name": "Resolution", "description": "Teaching week and semester lookup"},
        {"name": "Schedule", "description": "Class meetings per day"},
        {"name": "Subjects", "description": "Subjects with course and seminar slots"},
        {"name": "Templates", "description": "University calendar templates"},
        {"name": "Export", "description": "iCalendar, CSV and PDF downloads"},
        {"name": "Reminders", "description": "Class reminder planning"}
    ],
    "paths": {
        "/health": {
            "get": {"summary": "Liveness check", "responses": {"200": {"description": "OK"}}}
        },
        "/ready": {
            "get": {"summary": "Readiness check", "responses": {"200": {"description": "Ready"}, "503": {"description": "A dependency is unavailable"}}}
        },
        "/api/v1/calendars": {
            "get": {
                "tags": ["Calendars"],
                "summary": "List calendars",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Calendars"],
                "summary": "Create calendar",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CalendarRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Validation error"}}
            }
        },
        "/api/v1/calendars/generate": {
            "post": {
                "tags": ["Calendars"],
                "summary": "Generate a standard two-semester calendar",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateCalendarRequest"}}],
                "responses": {"201": {"description": "Created"}, "404": {"description": "Unknown template"}, "422": {"description": "Boundaries out of order"}}
            }
        },
        "/api/v1/calendars/{id}": {
            "get": {
                "tags": ["Calendars"],
                "summary": "Get calendar",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "put": {
                "tags": ["Calendars"],
                "summary": "Replace calendar",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CalendarRequest"}}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {
                "tags": ["Calendars"],
                "summary": "Delete calendar",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/api/v1/calendars/{id}/semesters/{semester}/events": {
            "post": {
                "tags": ["Calendars"],
                "summary": "Add event to a semester",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "semester", "in": "path", "required": true, "type": "string", "enum": ["1", "2"]},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EventRequest"}}
                ],
                "responses": {"201": {"description": "Created; meta.issues lists overlaps"}}
            }
        },
        "/api/v1/calendars/{id}/semesters/{semester}/events/{eventId}": {
            "put": {
                "tags": ["Calendars"],
                "summary": "Update semester event",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "semester", "in": "path", "required": true, "type": "string"},
                    {"name": "eventId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EventRequest"}}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {
                "tags": ["Calendars"],
                "summary": "Delete semester event",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "semester", "in": "path", "required": true, "type": "string"},
                    {"name": "eventId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/calendars/{id}/position": {
            "get": {
                "tags": ["Resolution"],
                "summary": "Resolve teaching week and semester",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "date", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Position"}}, "400": {"description": "Malformed date"}}
            }
        },
        "/api/v1/calendars/{id}/event": {
            "get": {
                "tags": ["Resolution"],
                "summary": "Event containing a date",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "date", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/position": {
            "get": {
                "tags": ["Resolution"],
                "summary": "Resolve against the active calendar",
                "parameters": [{"name": "date", "in": "query", "type": "string", "format": "date"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Position"}}}
            }
        },
        "/api/v1/calendars/{id}/schedule": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Classes held on a date",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "date", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/calendars/{id}/agenda": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Day schedules over a range of at most 62 days",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "from", "in": "query", "type": "string", "format": "date"},
                    {"name": "to", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/calendars/{id}/export.ics": {
            "get": {
                "tags": ["Export"],
                "summary": "Download iCalendar",
                "produces": ["text/calendar"],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "iCalendar document"}}
            }
        },
        "/api/v1/calendars/{id}/export": {
            "get": {
                "tags": ["Export"],
                "summary": "Download events as CSV or PDF",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {"200": {"description": "File"}}
            }
        },
        "/api/v1/calendars/{id}/feed-link": {
            "post": {
                "tags": ["Export"],
                "summary": "Create a signed subscription link",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/api/v1/feeds/{token}": {
            "get": {
                "tags": ["Export"],
                "summary": "Subscribe to a calendar feed",
                "produces": ["text/calendar"],
                "parameters": [{"name": "token", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "iCalendar document"}, "404": {"description": "Invalid or expired token"}}
            }
        },
        "/api/v1/subjects": {
            "get": {
                "tags": ["Subjects"],
                "summary": "List subjects",
                "parameters": [
                    {"name": "calendar_id", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Subjects"],
                "summary": "Create subject",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubjectRequest"}}],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/api/v1/subjects/{id}": {
            "get": {
                "tags": ["Subjects"],
                "summary": "Get subject",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}}
            },
            "put": {
                "tags": ["Subjects"],
                "summary": "Update subject",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubjectRequest"}}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {
                "tags": ["Subjects"],
                "summary": "Delete subject",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/api/v1/subjects/{id}/occurrences": {
            "get": {
                "tags": ["Subjects"],
                "summary": "List the dated meetings of a subject",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "from", "in": "query", "type": "string", "format": "date"},
                    {"name": "to", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Malformed date"}}
            }
        },
        "/api/v1/templates": {
            "get": {"tags": ["Templates"], "summary": "List calendar templates", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/reminders/preview": {
            "get": {
                "tags": ["Reminders"],
                "summary": "Preview upcoming class reminders",
                "parameters": [
                    {"name": "calendar_id", "in": "query", "type": "string"},
                    {"name": "days", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "No active calendar"}}
            }
        },
        "/api/v1/status": {
            "get": {"summary": "Runtime counters snapshot", "responses": {"200": {"description": "OK"}}}
        }
    },
    "definitions": {
        "EventRequest": {
            "type": "object",
            "required": ["start", "end", "type"],
            "properties": {
                "start": {"type": "string", "format": "date"},
                "end": {"type": "string", "format": "date"},
                "type": {"type": "string", "enum": ["teaching", "break", "exam", "holiday", "retake", "practice", "licensure", "other"]},
                "teachingWeekIndexStart": {"type": "integer", "minimum": 1},
                "teachingWeekIndexEnd": {"type": "integer", "minimum": 1},
                "customName": {"type": "string"}
            }
        },
        "SemesterRequest": {
            "type": "object",
            "properties": {"events": {"type": "array", "items": {"$ref": "#/definitions/EventRequest"}}}
        },
        "CalendarRequest": {
            "type": "object",
            "required": ["academic_year"],
            "properties": {
                "academic_year": {"type": "string"},
                "semester_1": {"$ref": "#/definitions/SemesterRequest"},
                "semester_2": {"$ref": "#/definitions/SemesterRequest"},
                "university_name": {"type": "string"},
                "custom_name": {"type": "string"}
            }
        },
        "GenerateCalendarRequest": {
            "type": "object",
            "properties": {
                "template_key": {"type": "string"},
                "academic_year": {"type": "string"},
                "university_name": {"type": "string"},
                "semester1_start": {"type": "string", "format": "date"},
                "semester1_end": {"type": "string", "format": "date"},
                "semester2_start": {"type": "string", "format": "date"},
                "semester2_end": {"type": "string", "format": "date"},
                "custom_name": {"type": "string"}
            }
        },
        "MeetingRequest": {
            "type": "object",
            "required": ["days", "frequency", "startTime", "endTime"],
            "properties": {
                "days": {"type": "array", "items": {"type": "integer", "minimum": 1, "maximum": 7}},
                "frequency": {"type": "string", "enum": ["weekly", "biweeklyOdd", "biweeklyEven"]},
                "startTime": {"type": "string", "example": "08:00"},
                "endTime": {"type": "string", "example": "10:00"}
            }
        },
        "SubjectRequest": {
            "type": "object",
            "required": ["calendar_id", "name"],
            "properties": {
                "calendar_id": {"type": "string"},
                "name": {"type": "string"},
                "code": {"type": "string"},
                "teacher": {"type": "string"},
                "room": {"type": "string"},
                "course": {"$ref": "#/definitions/MeetingRequest"},
                "seminar": {"$ref": "#/definitions/MeetingRequest"}
            }
        },
        "Position": {
            "type": "object",
            "properties": {
                "teaching_week": {"type": "integer", "x-nullable": true},
                "semester": {"type": "integer", "enum": [1, 2]}
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
