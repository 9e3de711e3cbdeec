// Package docs registers the OpenAPI template served at /swagger. It is
// maintained by hand and must be kept in step with the handler annotations.
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
		"/api/auth/register": {
			"post": {
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Auth"
				],
				"summary": "Register a new user",
				"parameters": [
					{
						"description": "Credentials",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.RegisterRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/handler.AuthResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				}
			}
		},
		"/api/auth/login": {
			"post": {
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Auth"
				],
				"summary": "Log in",
				"parameters": [
					{
						"description": "Credentials",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.LoginRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.AuthResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				}
			}
		},
		"/api/profile": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Profile"
				],
				"summary": "Current user's profile",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"properties": {
								"profile": {
									"$ref": "#/definitions/handler.ProfileResponse"
								}
							}
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				}
			},
			"put": {
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
				"tags": [
					"Profile"
				],
				"summary": "Update first and last name",
				"parameters": [
					{
						"description": "Names",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.UpdateProfileRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"properties": {
								"profile": {
									"$ref": "#/definitions/handler.ProfileResponse"
								}
							}
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				}
			}
		},
		"/api/tasks": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Tasks"
				],
				"summary": "List tasks",
				"parameters": [
					{
						"type": "string",
						"description": "Title substring",
						"name": "search",
						"in": "query"
					},
					{
						"type": "string",
						"description": "NOT_DONE or DONE",
						"name": "status",
						"in": "query"
					},
					{
						"type": "string",
						"description": "LOW, MEDIUM or HIGH",
						"name": "priority",
						"in": "query"
					},
					{
						"type": "string",
						"description": "priority, status or createdAt",
						"name": "sort",
						"in": "query"
					},
					{
						"type": "string",
						"description": "asc or desc",
						"name": "order",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"properties": {
								"tasks": {
									"type": "array",
									"items": {
										"$ref": "#/definitions/handler.TaskResponse"
									}
								}
							}
						}
					}
				}
			},
			"post": {
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
				"tags": [
					"Tasks"
				],
				"summary": "Create a task",
				"parameters": [
					{
						"description": "Task",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.CreateTaskRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"type": "object",
							"properties": {
								"task": {
									"$ref": "#/definitions/handler.TaskResponse"
								}
							}
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				}
			}
		},
		"/api/tasks/stats": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Tasks"
				],
				"summary": "Task counters for the dashboard",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"properties": {
								"stats": {
									"$ref": "#/definitions/service.TaskStats"
								}
							}
						}
					}
				}
			}
		},
		"/api/tasks/{id}": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Tasks"
				],
				"summary": "Get a task",
				"parameters": [
					{
						"type": "string",
						"description": "Task ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"properties": {
								"task": {
									"$ref": "#/definitions/handler.TaskResponse"
								}
							}
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				}
			},
			"patch": {
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
				"tags": [
					"Tasks"
				],
				"summary": "Partially update a task",
				"parameters": [
					{
						"type": "string",
						"description": "Task ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Changed fields",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.UpdateTaskRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"properties": {
								"task": {
									"$ref": "#/definitions/handler.TaskResponse"
								}
							}
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				}
			},
			"delete": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"tags": [
					"Tasks"
				],
				"summary": "Delete a task",
				"parameters": [
					{
						"type": "string",
						"description": "Task ID",
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
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				}
			}
		}
	},
	"definitions": {
		"handler.RegisterRequest": {
			"type": "object",
			"required": [
				"email",
				"password"
			],
			"properties": {
				"email": {
					"type": "string"
				},
				"password": {
					"type": "string",
					"minLength": 8
				}
			}
		},
		"handler.LoginRequest": {
			"type": "object",
			"required": [
				"email",
				"password"
			],
			"properties": {
				"email": {
					"type": "string"
				},
				"password": {
					"type": "string",
					"minLength": 8
				}
			}
		},
		"handler.UserResponse": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"email": {
					"type": "string"
				}
			}
		},
		"handler.AuthResponse": {
			"type": "object",
			"properties": {
				"token": {
					"type": "string"
				},
				"user": {
					"$ref": "#/definitions/handler.UserResponse"
				}
			}
		},
		"handler.ProfileResponse": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"email": {
					"type": "string"
				},
				"firstName": {
					"type": "string",
					"x-nullable": true
				},
				"lastName": {
					"type": "string",
					"x-nullable": true
				}
			}
		},
		"handler.UpdateProfileRequest": {
			"type": "object",
			"properties": {
				"firstName": {
					"type": "string"
				},
				"lastName": {
					"type": "string"
				}
			}
		},
		"handler.CreateTaskRequest": {
			"type": "object",
			"properties": {
				"title": {
					"type": "string"
				},
				"description": {
					"type": "string",
					"x-nullable": true
				},
				"priority": {
					"type": "string",
					"enum": [
						"LOW",
						"MEDIUM",
						"HIGH"
					]
				},
				"recurrence": {
					"type": "string",
					"enum": [
						"DAILY",
						"WEEKLY",
						"MONTHLY"
					],
					"x-nullable": true
				},
				"dependsOnIds": {
					"type": "array",
					"items": {
						"type": "string"
					}
				}
			}
		},
		"handler.UpdateTaskRequest": {
			"type": "object",
			"properties": {
				"title": {
					"type": "string"
				},
				"description": {
					"type": "string",
					"x-nullable": true
				},
				"status": {
					"type": "string",
					"enum": [
						"NOT_DONE",
						"DONE"
					]
				},
				"priority": {
					"type": "string",
					"enum": [
						"LOW",
						"MEDIUM",
						"HIGH"
					]
				},
				"recurrence": {
					"type": "string",
					"enum": [
						"DAILY",
						"WEEKLY",
						"MONTHLY"
					],
					"x-nullable": true
				},
				"dependsOnIds": {
					"type": "array",
					"items": {
						"type": "string"
					}
				}
			}
		},
		"handler.TaskResponse": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"title": {
					"type": "string"
				},
				"description": {
					"type": "string",
					"x-nullable": true
				},
				"status": {
					"type": "string"
				},
				"priority": {
					"type": "string"
				},
				"recurrence": {
					"type": "string",
					"x-nullable": true
				},
				"createdAt": {
					"type": "string"
				},
				"updatedAt": {
					"type": "string"
				},
				"lastRecurrenceAt": {
					"type": "string",
					"x-nullable": true
				},
				"dependsOnIds": {
					"type": "array",
					"items": {
						"type": "string"
					}
				}
			}
		},
		"service.TaskStats": {
			"type": "object",
			"properties": {
				"total": {
					"type": "integer"
				},
				"done": {
					"type": "integer"
				},
				"notDone": {
					"type": "integer"
				},
				"recurring": {
					"type": "integer"
				},
				"byPriority": {
					"type": "object",
					"additionalProperties": {
						"type": "integer"
					}
				}
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
	Version:		  "1.0",
	Host:			 "localhost:8080",
	BasePath:		 "/",
	Schemes:		  []string{"http"},
	Title:			"Task Tracker API",
	Description:	  "Personal tasks with dependencies and recurring templates.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:		"{{",
	RightDelim:	   "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
