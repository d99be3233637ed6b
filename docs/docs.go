// Package docs holds the OpenAPI description served at /docs.
// Regenerate with: swag init -g cmd/shepherd/serve.go -o docs
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
		"/access/check": {
			"get": {
				"summary": "Check page access",
				"description": "Reports whether the current user may open a page, and where a denied navigation lands",
				"tags": [
					"access"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Page path",
						"name": "path",
						"in": "query",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handlers.AccessCheckResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/access/paths": {
			"get": {
				"summary": "List accessible pages",
				"tags": [
					"access"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"type": "string"
							}
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/attendance": {
			"get": {
				"summary": "List attendance records",
				"tags": [
					"attendance"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Only records for this event",
						"name": "event_id",
						"in": "query",
						"required": false
					},
					{
						"type": "string",
						"description": "Only records for this member",
						"name": "member_id",
						"in": "query",
						"required": false
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/models.Attendance"
							}
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			},
			"post": {
				"summary": "Record a check-in",
				"description": "Checks in a member, or a visitor by name",
				"tags": [
					"attendance"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Check-in",
						"name": "attendance",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/service.AttendanceInput"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/models.Attendance"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/attendance/qr": {
			"post": {
				"summary": "Record a check-in from a scanned member code",
				"tags": [
					"attendance"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Scanned code",
						"name": "checkin",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.QRCheckInRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/models.Attendance"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/attendance/{id}": {
			"delete": {
				"summary": "Delete an attendance record",
				"tags": [
					"attendance"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "Attendance ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"204": {
						"description": "No Content"
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/audit-logs": {
			"get": {
				"summary": "List audit logs",
				"tags": [
					"audit"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Only entries with this action",
						"name": "action",
						"in": "query",
						"required": false
					},
					{
						"type": "integer",
						"description": "Maximum entries (default 100)",
						"name": "limit",
						"in": "query",
						"required": false
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/models.AuditLog"
							}
						}
					}
				}
			}
		},
		"/auth/login": {
			"post": {
				"summary": "User login",
				"description": "Authenticate user and return JWT token. The token is also set as a cookie for page loads.",
				"tags": [
					"auth"
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Login credentials",
						"name": "credentials",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/auth.LoginRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/auth.LoginResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/auth/logout": {
			"post": {
				"summary": "Log out",
				"description": "Clears the session cookie",
				"tags": [
					"auth"
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handlers.MessageResponse"
						}
					}
				}
			}
		},
		"/auth/me": {
			"get": {
				"summary": "Get current user",
				"description": "Get the currently authenticated user's information and navigable pages",
				"tags": [
					"auth"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handlers.CurrentUserResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/dashboard/stats": {
			"get": {
				"summary": "Dashboard statistics",
				"description": "Headline figures with period-over-period changes. When data cannot be loaded all figures are zero and data_available is false.",
				"tags": [
					"dashboard"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/service.DashboardSummary"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/donations": {
			"get": {
				"summary": "List donations",
				"tags": [
					"donations"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Earliest date (YYYY-MM-DD)",
						"name": "from",
						"in": "query",
						"required": false
					},
					{
						"type": "string",
						"description": "Latest date (YYYY-MM-DD)",
						"name": "to",
						"in": "query",
						"required": false
					},
					{
						"type": "string",
						"description": "Donation type",
						"name": "type",
						"in": "query",
						"required": false
					},
					{
						"type": "string",
						"description": "Only this member's named donations",
						"name": "member_id",
						"in": "query",
						"required": false
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/models.Donation"
							}
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			},
			"post": {
				"summary": "Record a donation",
				"tags": [
					"donations"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Donation details",
						"name": "donation",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/service.DonationInput"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/models.Donation"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/donations/breakdown": {
			"get": {
				"summary": "Donation breakdown",
				"description": "Totals per donation type over a preset range (7d, 30d, 3m) or an explicit start/end",
				"tags": [
					"donations"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Preset range (default 30d)",
						"name": "range",
						"in": "query",
						"required": false
					},
					{
						"type": "string",
						"description": "Start date (YYYY-MM-DD)",
						"name": "start",
						"in": "query",
						"required": false
					},
					{
						"type": "string",
						"description": "End date (YYYY-MM-DD)",
						"name": "end",
						"in": "query",
						"required": false
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/stats.BreakdownSummary"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/donations/export": {
			"get": {
				"summary": "Export donations",
				"description": "Spreadsheet of the donations in a range with a per-type summary sheet",
				"tags": [
					"donations"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Preset range (default 30d)",
						"name": "range",
						"in": "query",
						"required": false
					},
					{
						"type": "string",
						"description": "Start date (YYYY-MM-DD)",
						"name": "start",
						"in": "query",
						"required": false
					},
					{
						"type": "string",
						"description": "End date (YYYY-MM-DD)",
						"name": "end",
						"in": "query",
						"required": false
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "file"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/donations/{id}": {
			"put": {
				"summary": "Update a donation",
				"tags": [
					"donations"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Donation ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Donation details",
						"name": "donation",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/service.DonationInput"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.Donation"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			},
			"delete": {
				"summary": "Delete a donation",
				"tags": [
					"donations"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "Donation ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"204": {
						"description": "No Content"
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/events": {
			"get": {
				"summary": "List events",
				"tags": [
					"events"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Earliest start date (YYYY-MM-DD)",
						"name": "from",
						"in": "query",
						"required": false
					},
					{
						"type": "string",
						"description": "Latest start date (YYYY-MM-DD)",
						"name": "to",
						"in": "query",
						"required": false
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/models.Event"
							}
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			},
			"post": {
				"summary": "Create an event",
				"tags": [
					"events"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Event details",
						"name": "event",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/service.EventInput"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/models.Event"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/events/calendar.ics": {
			"get": {
				"summary": "Event calendar feed",
				"tags": [
					"events"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"text/plain"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Earliest start date (YYYY-MM-DD)",
						"name": "from",
						"in": "query",
						"required": false
					},
					{
						"type": "string",
						"description": "Latest start date (YYYY-MM-DD)",
						"name": "to",
						"in": "query",
						"required": false
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "string"
						}
					}
				}
			}
		},
		"/events/{id}": {
			"get": {
				"summary": "Get an event",
				"tags": [
					"events"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Event ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.Event"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			},
			"put": {
				"summary": "Update an event",
				"tags": [
					"events"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Event ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Event details",
						"name": "event",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/service.EventInput"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.Event"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			},
			"delete": {
				"summary": "Delete an event",
				"description": "Deletes the event and its attendance records",
				"tags": [
					"events"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "Event ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"204": {
						"description": "No Content"
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/forum/comments/{id}": {
			"delete": {
				"summary": "Delete a forum comment",
				"tags": [
					"forum"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "Comment ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"204": {
						"description": "No Content"
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/forum/posts": {
			"get": {
				"summary": "List forum posts",
				"description": "Pinned posts first, then newest first",
				"tags": [
					"forum"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/models.ForumPost"
							}
						}
					}
				}
			},
			"post": {
				"summary": "Create a forum post",
				"tags": [
					"forum"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Post",
						"name": "post",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/service.PostInput"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/models.ForumPost"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/forum/posts/{id}": {
			"get": {
				"summary": "Get a forum post with its comments",
				"tags": [
					"forum"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Post ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.ForumPost"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			},
			"put": {
				"summary": "Update a forum post",
				"description": "Authors may edit their own posts; admins may edit any",
				"tags": [
					"forum"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Post ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Post",
						"name": "post",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/service.PostInput"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.ForumPost"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			},
			"delete": {
				"summary": "Delete a forum post",
				"tags": [
					"forum"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "Post ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"204": {
						"description": "No Content"
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/forum/posts/{id}/comments": {
			"post": {
				"summary": "Comment on a forum post",
				"tags": [
					"forum"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Post ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Comment",
						"name": "comment",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/service.CommentInput"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/models.ForumComment"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/health": {
			"get": {
				"summary": "Health check",
				"tags": [
					"system"
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object"
						}
					}
				}
			}
		},
		"/info": {
			"get": {
				"summary": "Get server information",
				"description": "Returns the installation's instance ID, church name and version",
				"tags": [
					"system"
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handlers.InfoResponse"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/members": {
			"get": {
				"summary": "List members",
				"tags": [
					"members"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Match against name, email or member code",
						"name": "search",
						"in": "query",
						"required": false
					},
					{
						"type": "boolean",
						"description": "Include deactivated members",
						"name": "include_inactive",
						"in": "query",
						"required": false
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/models.Member"
							}
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			},
			"post": {
				"summary": "Create a member",
				"tags": [
					"members"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Member details",
						"name": "member",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/service.MemberInput"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/models.Member"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/members/{id}": {
			"get": {
				"summary": "Get a member",
				"tags": [
					"members"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Member ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.Member"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			},
			"put": {
				"summary": "Update a member",
				"tags": [
					"members"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Member ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Member details",
						"name": "member",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/service.MemberInput"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.Member"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			},
			"delete": {
				"summary": "Delete a member",
				"description": "Soft-deletes the member. With permanent=true the member and their attendance are purged and their donations detached.",
				"tags": [
					"members"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "Member ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "boolean",
						"description": "Purge instead of soft delete",
						"name": "permanent",
						"in": "query",
						"required": false
					}
				],
				"responses": {
					"204": {
						"description": "No Content"
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/members/{id}/attendance-history": {
			"get": {
				"summary": "Member attendance by month",
				"tags": [
					"members"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Member ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "integer",
						"description": "Number of months (default 6)",
						"name": "limit",
						"in": "query",
						"required": false
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/stats.MonthBucket"
							}
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/members/{id}/deactivate": {
			"post": {
				"summary": "Deactivate a member",
				"description": "Marks the member inactive; history is kept",
				"tags": [
					"members"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Member ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.Member"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/members/{id}/qrcode": {
			"get": {
				"summary": "Member check-in code",
				"description": "PNG QR code carrying the member's check-in payload",
				"tags": [
					"members"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"image/png"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Member ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "file"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/profile": {
			"get": {
				"summary": "Get own profile",
				"description": "The signed-in account, and for accounts linked to a member, their attendance and giving summary",
				"tags": [
					"profile"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/service.Profile"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/reports": {
			"post": {
				"summary": "Request a report",
				"description": "Queues a donation or attendance spreadsheet for the given period",
				"tags": [
					"reports"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Report request",
						"name": "report",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/service.ReportInput"
						}
					}
				],
				"responses": {
					"202": {
						"description": "Accepted",
						"schema": {
							"$ref": "#/definitions/models.ReportJob"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			},
			"get": {
				"summary": "List report jobs",
				"tags": [
					"reports"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/models.ReportJob"
							}
						}
					}
				}
			}
		},
		"/reports/{id}": {
			"get": {
				"summary": "Get a report job",
				"tags": [
					"reports"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Report ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.ReportJob"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/reports/{id}/download": {
			"get": {
				"summary": "Download a finished report",
				"tags": [
					"reports"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Report ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "file"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/reports/{id}/progress": {
			"get": {
				"summary": "Stream report progress via Server-Sent Events",
				"tags": [
					"reports"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"text/event-stream"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Report ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "event stream",
						"schema": {
							"type": "string"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/users": {
			"get": {
				"summary": "List all users",
				"tags": [
					"users"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/models.User"
							}
						}
					}
				}
			},
			"post": {
				"summary": "Create a user",
				"tags": [
					"users"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "User details",
						"name": "user",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/service.UserInput"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/models.User"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/users/{id}": {
			"delete": {
				"summary": "Delete a user",
				"tags": [
					"users"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "User ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"204": {
						"description": "No Content"
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/users/{id}/role": {
			"put": {
				"summary": "Change a user's role",
				"tags": [
					"users"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "User ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "New role",
						"name": "role",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.UpdateRoleRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.User"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/version": {
			"get": {
				"summary": "Get version information",
				"description": "Returns version information about the Shepherd server",
				"tags": [
					"system"
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object"
						}
					}
				}
			}
		}
	},
	"definitions": {
		"auth.LoginRequest": {
			"type": "object",
			"properties": {
				"username": {
					"type": "string"
				},
				"password": {
					"type": "string"
				}
			}
		},
		"auth.LoginResponse": {
			"type": "object",
			"properties": {
				"token": {
					"type": "string"
				},
				"user": {
					"$ref": "#/definitions/models.User"
				}
			}
		},
		"handlers.AccessCheckResponse": {
			"type": "object",
			"properties": {
				"path": {
					"type": "string"
				},
				"allowed": {
					"type": "boolean"
				},
				"target": {
					"type": "string"
				}
			}
		},
		"handlers.CurrentUserResponse": {
			"type": "object",
			"properties": {
				"user": {
					"$ref": "#/definitions/models.User"
				},
				"allowed_paths": {
					"type": "array",
					"items": {
						"type": "string"
					}
				}
			}
		},
		"handlers.ErrorResponse": {
			"type": "object",
			"properties": {
				"error": {
					"type": "string"
				}
			}
		},
		"handlers.InfoResponse": {
			"type": "object",
			"properties": {
				"instance_id": {
					"type": "string"
				},
				"church_name": {
					"type": "string"
				},
				"version": {
					"type": "string"
				},
				"go_version": {
					"type": "string"
				},
				"os": {
					"type": "string"
				},
				"arch": {
					"type": "string"
				}
			}
		},
		"handlers.MessageResponse": {
			"type": "object",
			"properties": {
				"message": {
					"type": "string"
				}
			}
		},
		"handlers.QRCheckInRequest": {
			"type": "object",
			"properties": {
				"event_id": {
					"type": "string"
				},
				"payload": {
					"type": "string"
				}
			}
		},
		"handlers.UpdateRoleRequest": {
			"type": "object",
			"properties": {
				"role": {
					"$ref": "#/definitions/models.Role"
				}
			}
		},
		"models.Attendance": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"event_id": {
					"type": "string"
				},
				"event": {
					"$ref": "#/definitions/models.Event"
				},
				"member_id": {
					"type": "string"
				},
				"member": {
					"$ref": "#/definitions/models.Member"
				},
				"visitor_first_name": {
					"type": "string"
				},
				"visitor_last_name": {
					"type": "string"
				},
				"attendance_method": {
					"type": "string"
				},
				"recorded_at": {
					"type": "string"
				},
				"recorded_by_id": {
					"type": "string"
				},
				"created_at": {
					"type": "string"
				}
			}
		},
		"models.AttendanceMethod": {
			"type": "string",
			"enum": [
				"manual",
				"qr_code",
				"visitor"
			]
		},
		"models.AuditLog": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"user_id": {
					"type": "string"
				},
				"user": {
					"$ref": "#/definitions/models.User"
				},
				"action": {
					"type": "string"
				},
				"resource": {
					"type": "string"
				},
				"details_json": {
					"type": "string"
				},
				"timestamp": {
					"type": "string"
				}
			}
		},
		"models.Donation": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"amount": {
					"type": "string"
				},
				"donation_type": {
					"type": "string"
				},
				"is_anonymous": {
					"type": "boolean"
				},
				"member_id": {
					"type": "string"
				},
				"member": {
					"$ref": "#/definitions/models.Member"
				},
				"donation_date": {
					"type": "string"
				},
				"note": {
					"type": "string"
				},
				"recorded_by_id": {
					"type": "string"
				},
				"created_at": {
					"type": "string"
				},
				"updated_at": {
					"type": "string"
				}
			}
		},
		"models.DonationType": {
			"type": "string",
			"enum": [
				"tithe",
				"offering",
				"general"
			]
		},
		"models.Event": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"title": {
					"type": "string"
				},
				"description": {
					"type": "string"
				},
				"starts_at": {
					"type": "string"
				},
				"ends_at": {
					"type": "string"
				},
				"location": {
					"type": "string"
				},
				"is_special": {
					"type": "boolean"
				},
				"created_by_id": {
					"type": "string"
				},
				"created_at": {
					"type": "string"
				},
				"updated_at": {
					"type": "string"
				}
			}
		},
		"models.ForumComment": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"post_id": {
					"type": "string"
				},
				"author_id": {
					"type": "string"
				},
				"author": {
					"$ref": "#/definitions/models.User"
				},
				"body": {
					"type": "string"
				},
				"created_at": {
					"type": "string"
				}
			}
		},
		"models.ForumPost": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"author_id": {
					"type": "string"
				},
				"author": {
					"$ref": "#/definitions/models.User"
				},
				"title": {
					"type": "string"
				},
				"body": {
					"type": "string"
				},
				"pinned": {
					"type": "boolean"
				},
				"comments": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/models.ForumComment"
					}
				},
				"created_at": {
					"type": "string"
				},
				"updated_at": {
					"type": "string"
				}
			}
		},
		"models.Member": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"member_code": {
					"type": "string"
				},
				"first_name": {
					"type": "string"
				},
				"last_name": {
					"type": "string"
				},
				"email": {
					"type": "string"
				},
				"phone": {
					"type": "string"
				},
				"address": {
					"type": "string"
				},
				"birth_date": {
					"type": "string"
				},
				"joined_at": {
					"type": "string"
				},
				"is_active": {
					"type": "boolean"
				},
				"created_at": {
					"type": "string"
				},
				"updated_at": {
					"type": "string"
				}
			}
		},
		"models.ReportJob": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"type": {
					"type": "string"
				},
				"status": {
					"type": "string"
				},
				"period_start": {
					"type": "string"
				},
				"period_end": {
					"type": "string"
				},
				"requested_by_id": {
					"type": "string"
				},
				"file_size": {
					"type": "integer"
				},
				"logs": {
					"type": "string"
				},
				"error": {
					"type": "string"
				},
				"created_at": {
					"type": "string"
				},
				"started_at": {
					"type": "string"
				},
				"completed_at": {
					"type": "string"
				}
			}
		},
		"models.ReportType": {
			"type": "string",
			"enum": [
				"donations",
				"attendance"
			]
		},
		"models.Role": {
			"type": "string",
			"enum": [
				"super_admin",
				"admin",
				"user",
				"member"
			]
		},
		"models.User": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"username": {
					"type": "string"
				},
				"email": {
					"type": "string"
				},
				"role": {
					"type": "string"
				},
				"created_at": {
					"type": "string"
				},
				"updated_at": {
					"type": "string"
				}
			}
		},
		"service.AttendanceInput": {
			"type": "object",
			"properties": {
				"event_id": {
					"type": "string"
				},
				"member_id": {
					"type": "string"
				},
				"visitor_first_name": {
					"type": "string"
				},
				"visitor_last_name": {
					"type": "string"
				},
				"attendance_method": {
					"$ref": "#/definitions/models.AttendanceMethod"
				}
			}
		},
		"service.CommentInput": {
			"type": "object",
			"properties": {
				"body": {
					"type": "string"
				}
			}
		},
		"service.DashboardSummary": {
			"type": "object",
			"properties": {
				"total_members": {
					"type": "integer"
				},
				"sunday_attendance": {
					"type": "integer"
				},
				"monthly_donations": {
					"type": "string"
				},
				"upcoming_events": {
					"type": "integer"
				},
				"monthly_attendance_change": {
					"type": "number"
				},
				"attendance_change": {
					"type": "number"
				},
				"donation_change": {
					"type": "number"
				},
				"latest_event_id": {
					"type": "string"
				},
				"data_available": {
					"type": "boolean"
				},
				"generated_at": {
					"type": "string"
				}
			}
		},
		"service.DonationInput": {
			"type": "object",
			"properties": {
				"amount": {
					"type": "string"
				},
				"donation_type": {
					"$ref": "#/definitions/models.DonationType"
				},
				"is_anonymous": {
					"type": "boolean"
				},
				"member_id": {
					"type": "string"
				},
				"donation_date": {
					"type": "string"
				},
				"note": {
					"type": "string"
				}
			}
		},
		"service.EventInput": {
			"type": "object",
			"properties": {
				"title": {
					"type": "string"
				},
				"description": {
					"type": "string"
				},
				"starts_at": {
					"type": "string"
				},
				"ends_at": {
					"type": "string"
				},
				"location": {
					"type": "string"
				},
				"is_special": {
					"type": "boolean"
				}
			}
		},
		"service.MemberInput": {
			"type": "object",
			"properties": {
				"member_code": {
					"type": "string"
				},
				"first_name": {
					"type": "string"
				},
				"last_name": {
					"type": "string"
				},
				"email": {
					"type": "string"
				},
				"phone": {
					"type": "string"
				},
				"address": {
					"type": "string"
				},
				"birth_date": {
					"type": "string"
				},
				"joined_at": {
					"type": "string"
				}
			}
		},
		"service.PostInput": {
			"type": "object",
			"properties": {
				"title": {
					"type": "string"
				},
				"body": {
					"type": "string"
				},
				"pinned": {
					"type": "boolean"
				}
			}
		},
		"service.Profile": {
			"type": "object",
			"properties": {
				"user": {
					"$ref": "#/definitions/models.User"
				},
				"member": {
					"$ref": "#/definitions/models.Member"
				},
				"stats": {
					"$ref": "#/definitions/stats.MemberStats"
				},
				"history": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/stats.MonthBucket"
					}
				}
			}
		},
		"service.ReportInput": {
			"type": "object",
			"properties": {
				"type": {
					"$ref": "#/definitions/models.ReportType"
				},
				"period_start": {
					"type": "string"
				},
				"period_end": {
					"type": "string"
				}
			}
		},
		"service.UserInput": {
			"type": "object",
			"properties": {
				"username": {
					"type": "string"
				},
				"email": {
					"type": "string"
				},
				"password": {
					"type": "string"
				},
				"role": {
					"$ref": "#/definitions/models.Role"
				}
			}
		},
		"stats.BreakdownSummary": {
			"type": "object",
			"properties": {
				"start": {
					"type": "string"
				},
				"end": {
					"type": "string"
				},
				"by_type": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/stats.TypeTotal"
					}
				},
				"total": {
					"type": "string"
				},
				"average": {
					"type": "string"
				},
				"count": {
					"type": "integer"
				}
			}
		},
		"stats.DashboardStats": {
			"type": "object",
			"properties": {
				"total_members": {
					"type": "integer"
				},
				"sunday_attendance": {
					"type": "integer"
				},
				"monthly_donations": {
					"type": "string"
				},
				"upcoming_events": {
					"type": "integer"
				},
				"monthly_attendance_change": {
					"type": "number"
				},
				"attendance_change": {
					"type": "number"
				},
				"donation_change": {
					"type": "number"
				},
				"latest_event_id": {
					"type": "string"
				}
			}
		},
		"stats.MemberStats": {
			"type": "object",
			"properties": {
				"total_attended": {
					"type": "integer"
				},
				"attended_this_month": {
					"type": "integer"
				},
				"last_attended_at": {
					"type": "string"
				},
				"total_donated": {
					"type": "string"
				},
				"donated_this_year": {
					"type": "string"
				},
				"donation_count": {
					"type": "integer"
				}
			}
		},
		"stats.MonthBucket": {
			"type": "object",
			"properties": {
				"year": {
					"type": "integer"
				},
				"month": {
					"type": "integer"
				},
				"count": {
					"type": "integer"
				},
				"records": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/models.Attendance"
					}
				}
			}
		},
		"stats.TypeTotal": {
			"type": "object",
			"properties": {
				"type": {
					"$ref": "#/definitions/models.DonationType"
				},
				"total": {
					"type": "string"
				},
				"count": {
					"type": "integer"
				}
			}
		}
	},
	"securityDefinitions": {
		"BearerAuth": {
			"type": "apiKey",
			"name": "Authorization",
			"in": "header"
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:		  "1.0",
	Host:			 "localhost:8470",
	BasePath:		 "/api/v1",
	Schemes:		  []string{},
	Title:			"Shepherd API",
	Description:	  "Church community administration API",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:		"{{",
	RightDelim:	   "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
