package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Hostel ADP API",
        "description": "Hostel administration backend: students, invoices, dues, dashboards, reports",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login and session management"},
        {"name": "Hostels", "description": "Hostel portfolio management"},
        {"name": "Students", "description": "Student roster per hostel"},
        {"name": "Invoices", "description": "Payment recording"},
        {"name": "Dues", "description": "Derived due states and defaulters"},
        {"name": "Dashboard", "description": "Cached portfolio and hostel dashboards"},
        {"name": "Reports", "description": "Asynchronous report exports"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "responses": {
                    "200": {"description": "Tokens issued"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/hostels": {
            "get": {
                "tags": ["Hostels"],
                "summary": "List hostels",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Hostels"],
                "summary": "Register hostel",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Students"],
                "summary": "Register student",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/invoices": {
            "get": {
                "tags": ["Invoices"],
                "summary": "List invoices",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Invoices"],
                "summary": "Record payment",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/dashboard/portfolio": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Portfolio dashboard",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/reports": {
            "post": {
                "tags": ["Reports"],
                "summary": "Enqueue report generation",
                "responses": {"202": {"description": "Accepted"}}
            }
        }
    },
    "definitions": {
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
