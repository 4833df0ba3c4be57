// Package swagger holds the generated API description served under /swagger.
package swagger

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
        "/live/standings": {
            "get": {
                "tags": [
                    "live"
                ],
                "summary": "Get Standings",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "Standings"
                    },
                    "400": {
                        "description": "Unknown filter"
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "description": "all, top, topN or top:N",
                        "name": "filter",
                        "in": "query"
                    }
                ]
            }
        },
        "/live/laps": {
            "get": {
                "tags": [
                    "live"
                ],
                "summary": "Get Lap Feed",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "Laps"
                    },
                    "400": {
                        "description": "Invalid count"
                    }
                },
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Number of laps (default 20)",
                        "name": "n",
                        "in": "query"
                    }
                ]
            }
        },
        "/live/session": {
            "get": {
                "tags": [
                    "live"
                ],
                "summary": "Get Session",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/live/status": {
            "get": {
                "tags": [
                    "live"
                ],
                "summary": "Get Status",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/live/stats": {
            "get": {
                "tags": [
                    "live"
                ],
                "summary": "Get Driver Stats",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "Driver stats"
                    }
                }
            }
        },
        "/live/drivers/{id}/laps": {
            "get": {
                "tags": [
                    "live"
                ],
                "summary": "Get Driver Laps",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "Driver and laps"
                    },
                    "404": {
                        "description": "Driver not found"
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "description": "Driver ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/live/cars": {
            "get": {
                "tags": [
                    "live"
                ],
                "summary": "List Cars",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/live/cars/{id}": {
            "get": {
                "tags": [
                    "live"
                ],
                "summary": "Get Car",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "description": "Car ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/live/filter": {
            "post": {
                "tags": [
                    "live"
                ],
                "summary": "Set Filter",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "Active filter"
                    },
                    "400": {
                        "description": "Unknown filter"
                    }
                },
                "parameters": [
                    {
                        "description": "Filter mode",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object",
                            "properties": {
                                "mode": {
                                    "type": "string",
                                    "example": "top6"
                                }
                            }
                        }
                    }
                ]
            }
        },
        "/live/resync": {
            "post": {
                "tags": [
                    "live"
                ],
                "summary": "Force Resync",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "202": {
                        "description": "Requested"
                    },
                    "503": {
                        "description": "No snapshot source"
                    }
                }
            }
        },
        "/live/reset": {
            "post": {
                "tags": [
                    "live"
                ],
                "summary": "Reset Session",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/live/export/{kind}": {
            "post": {
                "tags": [
                    "live"
                ],
                "summary": "Request Export",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "202": {
                        "description": "Exported"
                    },
                    "400": {
                        "description": "Unknown kind"
                    },
                    "502": {
                        "description": "Upload failed"
                    },
                    "503": {
                        "description": "Export not configured"
                    },
                    "500": {
                        "description": "Internal Server Error"
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "description": "race-results or lap-history",
                        "name": "kind",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/webhook": {
            "post": {
                "tags": [
                    "webhook"
                ],
                "summary": "Race Data Webhook",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "Applied"
                    },
                    "400": {
                        "description": "Malformed payload"
                    }
                }
            }
        },
        "/webhook/lap": {
            "post": {
                "tags": [
                    "webhook"
                ],
                "summary": "Lap Webhook",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "Applied"
                    },
                    "400": {
                        "description": "Malformed payload"
                    }
                }
            }
        },
        "/webhook/track": {
            "post": {
                "tags": [
                    "webhook"
                ],
                "summary": "Track Data Webhook",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "Applied"
                    },
                    "400": {
                        "description": "Malformed payload"
                    }
                }
            }
        },
        "/webhook/cars": {
            "post": {
                "tags": [
                    "webhook"
                ],
                "summary": "Car Catalog Webhook",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "Applied"
                    },
                    "400": {
                        "description": "Malformed payload"
                    }
                },
                "parameters": [
                    {
                        "type": "boolean",
                        "description": "Merge into the catalog instead of replacing it",
                        "name": "merge",
                        "in": "query"
                    }
                ]
            }
        },
        "/export/csv/{kind}": {
            "get": {
                "tags": [
                    "export"
                ],
                "summary": "Download CSV",
                "produces": [
                    "text/csv"
                ],
                "responses": {
                    "200": {
                        "description": "CSV file"
                    },
                    "400": {
                        "description": "Unknown kind"
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "description": "race-results or lap-history",
                        "name": "kind",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/export/upload": {
            "post": {
                "tags": [
                    "export"
                ],
                "summary": "Upload All Exports",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "Results"
                    },
                    "503": {
                        "description": "Storage disabled"
                    }
                }
            }
        },
        "/export/upload/{kind}": {
            "post": {
                "tags": [
                    "export"
                ],
                "summary": "Upload Export",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "201": {
                        "description": "Uploaded"
                    },
                    "400": {
                        "description": "Unknown kind"
                    },
                    "502": {
                        "description": "Storage error"
                    },
                    "503": {
                        "description": "Storage disabled"
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "description": "race-results or lap-history",
                        "name": "kind",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/export/uploads": {
            "get": {
                "tags": [
                    "export"
                ],
                "summary": "List Uploads",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "Uploads"
                    },
                    "502": {
                        "description": "Storage error"
                    },
                    "503": {
                        "description": "Storage disabled"
                    }
                }
            }
        },
        "/export/uploads/{name}": {
            "get": {
                "tags": [
                    "export"
                ],
                "summary": "Get Upload",
                "produces": [
                    "text/csv"
                ],
                "responses": {
                    "200": {
                        "description": "CSV file"
                    },
                    "400": {
                        "description": "Invalid name"
                    },
                    "502": {
                        "description": "Storage error"
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "description": "File name",
                        "name": "name",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {
            "type": "apiKey",
            "name": "X-API-Key",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Race Telemetry API",
	Description:      "Live standings, lap feed and exports for slot-car race timing.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
