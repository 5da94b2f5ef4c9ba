// Package docs holds the OpenAPI document served at /swagger. Keep it in step
// with the handler annotations.
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
        "/users/signup": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register a new user",
                "parameters": [
                    {
                        "description": "Signup data",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.SignupRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.SessionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/users/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Login user",
                "parameters": [
                    {
                        "description": "Login credentials",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.LoginRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.SessionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/users/logout": {
            "get": {
                "description": "Replaces the session cookie with a placeholder that expires in ten seconds.",
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Logout user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.MessageResponse"}}
                }
            }
        },
        "/users/forgotPassword": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Send a password reset token",
                "parameters": [
                    {
                        "description": "Account email",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.ForgotPasswordRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.MessageResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/users/resetPassword/{token}": {
            "patch": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Reset the password with an emailed token",
                "parameters": [
                    {"type": "string", "description": "Reset token", "name": "token", "in": "path", "required": true},
                    {
                        "description": "New password",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.ResetPasswordRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.SessionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/users/updateMyPassword": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Change the password of the logged-in user",
                "parameters": [
                    {
                        "description": "Current and new password",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.UpdatePasswordRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.SessionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/users/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.DataResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/users/updateMe": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "description": "Accepts JSON, or multipart/form-data with name, email and a photo file cropped to 500x500.",
                "consumes": ["application/json", "multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Update name, email or photo of the current user",
                "parameters": [
                    {
                        "description": "Fields to change",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.UpdateMeRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.DataResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/users/deleteMe": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["users"],
                "summary": "Deactivate the current user",
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/users": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "List users",
                "parameters": [
                    {"type": "string", "description": "Comma separated sort fields", "name": "sort", "in": "query"},
                    {"type": "integer", "description": "Page", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Page size", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.ListResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/users/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Get user by id",
                "parameters": [{"type": "string", "description": "User ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.DataResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["users"],
                "summary": "Delete a user",
                "parameters": [{"type": "string", "description": "User ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Update a user",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "id", "in": "path", "required": true},
                    {
                        "description": "Fields to change",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.UpdateUserRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.DataResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/tours": {
            "get": {
                "description": "Supports field[gte|gt|lte|lt]=value filters, sort, fields, page and limit.",
                "produces": ["application/json"],
                "tags": ["tours"],
                "summary": "List tours",
                "parameters": [
                    {"type": "string", "description": "Comma separated sort fields, prefix - for descending", "name": "sort", "in": "query"},
                    {"type": "string", "description": "Comma separated fields to return", "name": "fields", "in": "query"},
                    {"type": "integer", "description": "Page, default 1", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Page size, default 100", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.ListResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tours"],
                "summary": "Create tour",
                "parameters": [
                    {
                        "description": "Tour",
                        "name": "tour",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/service.TourInput"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.DataResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/tours/top-5-cheap": {
            "get": {
                "produces": ["application/json"],
                "tags": ["tours"],
                "summary": "Five best rated cheap tours",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.ListResponse"}}
                }
            }
        },
        "/tours/top-stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["tours"],
                "summary": "Tour statistics per difficulty",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/tours/monthly-plan/{year}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["tours"],
                "summary": "Tour starts per month",
                "parameters": [{"type": "integer", "description": "Year", "name": "year", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/tours/tours-within/{distance}/center/{latlng}/unit/{unit}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["tours"],
                "summary": "Tours starting within a radius",
                "parameters": [
                    {"type": "number", "description": "Radius", "name": "distance", "in": "path", "required": true},
                    {"type": "string", "description": "Center as lat,lng", "name": "latlng", "in": "path", "required": true},
                    {"type": "string", "description": "mi or km", "name": "unit", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.ListResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/tours/distances/{latlng}/unit/{unit}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["tours"],
                "summary": "Distance from a point to every tour start",
                "parameters": [
                    {"type": "string", "description": "Origin as lat,lng", "name": "latlng", "in": "path", "required": true},
                    {"type": "string", "description": "mi or km", "name": "unit", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.ListResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/tours/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["tours"],
                "summary": "Get tour with guides and reviews",
                "parameters": [{"type": "string", "description": "Tour ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.DataResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["tours"],
                "summary": "Delete tour",
                "parameters": [{"type": "string", "description": "Tour ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "description": "A JSON body patches tour fields. A multipart/form-data body replaces the\ncover (imageCover) and gallery (images, at most 3) with resized uploads.",
                "consumes": ["application/json", "multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["tours"],
                "summary": "Update tour",
                "parameters": [
                    {"type": "string", "description": "Tour ID", "name": "id", "in": "path", "required": true},
                    {
                        "description": "Fields to change",
                        "name": "tour",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/service.TourInput"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.DataResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/reviews": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["reviews"],
                "summary": "List reviews, optionally of one tour",
                "parameters": [{"type": "string", "description": "Tour ID", "name": "tour", "in": "query"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.ListResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["reviews"],
                "summary": "Review a tour",
                "parameters": [
                    {
                        "description": "Review",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.CreateReviewRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.DataResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/reviews/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["reviews"],
                "summary": "Get review",
                "parameters": [{"type": "string", "description": "Review ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.DataResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["reviews"],
                "summary": "Delete review",
                "parameters": [{"type": "string", "description": "Review ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["reviews"],
                "summary": "Update review",
                "parameters": [
                    {"type": "string", "description": "Review ID", "name": "id", "in": "path", "required": true},
                    {
                        "description": "Fields to change",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/service.ReviewInput"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.DataResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/bookings/checkout-session/{tourId}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["bookings"],
                "summary": "Start a checkout for a tour",
                "parameters": [{"type": "string", "description": "Tour ID", "name": "tourId", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.CheckoutResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/bookings/webhook-checkout": {
            "post": {
                "description": "Verifies the Stripe-Signature header over the raw body and books the tour on checkout.session.completed.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["bookings"],
                "summary": "Payment provider webhook",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "boolean"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/bookings": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["bookings"],
                "summary": "List bookings",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.ListResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["bookings"],
                "summary": "Create booking",
                "parameters": [
                    {
                        "description": "Booking",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/service.BookingInput"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.DataResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/bookings/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["bookings"],
                "summary": "Get booking",
                "parameters": [{"type": "string", "description": "Booking ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.DataResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["bookings"],
                "summary": "Delete booking",
                "parameters": [{"type": "string", "description": "Booking ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["bookings"],
                "summary": "Update booking",
                "parameters": [
                    {"type": "string", "description": "Booking ID", "name": "id", "in": "path", "required": true},
                    {
                        "description": "Fields to change",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/service.BookingInput"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.DataResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "errors.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "error": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "handler.CheckoutResponse": {
            "type": "object",
            "properties": {
                "session": {"$ref": "#/definitions/payment.Session"},
                "status": {"type": "string"}
            }
        },
        "handler.CreateReviewRequest": {
            "type": "object",
            "properties": {
                "rating": {"type": "integer"},
                "review": {"type": "string"},
                "tour": {"type": "string"},
                "user": {"type": "string"}
            }
        },
        "handler.DataBody": {
            "type": "object",
            "properties": {
                "data": {}
            }
        },
        "handler.DataResponse": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/handler.DataBody"},
                "status": {"type": "string"}
            }
        },
        "handler.ForgotPasswordRequest": {
            "type": "object",
            "required": ["email"],
            "properties": {
                "email": {"type": "string"}
            }
        },
        "handler.ListResponse": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/handler.DataBody"},
                "results": {"type": "integer"},
                "status": {"type": "string"}
            }
        },
        "handler.LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "handler.MessageResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "handler.ResetPasswordRequest": {
            "type": "object",
            "required": ["password", "passwordConfirm"],
            "properties": {
                "password": {"type": "string", "minLength": 8},
                "passwordConfirm": {"type": "string"}
            }
        },
        "handler.SessionData": {
            "type": "object",
            "properties": {
                "user": {"$ref": "#/definitions/model.User"}
            }
        },
        "handler.SessionResponse": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/handler.SessionData"},
                "status": {"type": "string"},
                "token": {"type": "string"}
            }
        },
        "handler.SignupRequest": {
            "type": "object",
            "required": ["email", "name", "password", "passwordConfirm"],
            "properties": {
                "email": {"type": "string"},
                "name": {"type": "string"},
                "password": {"type": "string", "minLength": 8},
                "passwordConfirm": {"type": "string"}
            }
        },
        "handler.UpdateMeRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "name": {"type": "string", "minLength": 1},
                "password": {"type": "string"},
                "passwordConfirm": {"type": "string"}
            }
        },
        "handler.UpdatePasswordRequest": {
            "type": "object",
            "required": ["password", "passwordConfirm", "passwordCurrent"],
            "properties": {
                "password": {"type": "string", "minLength": 8},
                "passwordConfirm": {"type": "string"},
                "passwordCurrent": {"type": "string"}
            }
        },
        "handler.UpdateUserRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "name": {"type": "string", "minLength": 1},
                "photo": {"type": "string"},
                "role": {"$ref": "#/definitions/model.Role"}
            }
        },
        "model.Location": {
            "type": "object",
            "properties": {
                "address": {"type": "string"},
                "coordinates": {"type": "array", "items": {"type": "number"}},
                "day": {"type": "integer"},
                "description": {"type": "string"},
                "type": {"type": "string"}
            }
        },
        "model.Role": {
            "type": "string",
            "enum": ["user", "guide", "lead-guide", "admin"],
            "x-enum-varnames": ["RoleUser", "RoleGuide", "RoleLeadGuide", "RoleAdmin"]
        },
        "model.User": {
            "type": "object",
            "properties": {
                "createdAt": {"type": "string"},
                "email": {"type": "string"},
                "id": {"type": "string"},
                "name": {"type": "string"},
                "photo": {"type": "string"},
                "role": {"$ref": "#/definitions/model.Role"}
            }
        },
        "payment.Session": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "url": {"type": "string"}
            }
        },
        "service.BookingInput": {
            "type": "object",
            "properties": {
                "paid": {"type": "boolean"},
                "price": {"type": "number"},
                "tour": {"type": "string"},
                "user": {"type": "string"}
            }
        },
        "service.ReviewInput": {
            "type": "object",
            "properties": {
                "rating": {"type": "integer"},
                "review": {"type": "string"}
            }
        },
        "service.TourInput": {
            "type": "object",
            "properties": {
                "description": {"type": "string"},
                "difficulty": {"type": "string"},
                "duration": {"type": "integer"},
                "guides": {"type": "array", "items": {"type": "string"}},
                "imageCover": {"type": "string"},
                "images": {"type": "array", "items": {"type": "string"}},
                "locations": {"type": "array", "items": {"$ref": "#/definitions/model.Location"}},
                "maxGroupSize": {"type": "integer"},
                "name": {"type": "string"},
                "price": {"type": "number"},
                "priceDiscount": {"type": "number"},
                "secretTour": {"type": "boolean"},
                "startDates": {"type": "array", "items": {"type": "string"}},
                "startLocation": {"$ref": "#/definitions/model.Location"},
                "summary": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:3000",
	BasePath:         "/api/v1",
	Schemes:          []string{"http"},
	Title:            "Natours API",
	Description:      "Tour booking API with JWT authentication, reviews and Stripe checkout.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
