// Package docs registers the swagger document served under /swagger. It
// follows the layout swag init emits, so it can be regenerated from the
// handler annotations.
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
        "/admin/add": {
            "post": {
                "description": "Add reference image to database",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["Image Database Management"],
                "summary": "Add new image",
                "parameters": [
                    {"type": "file", "description": "Image file to upload", "name": "image", "in": "formData", "required": true},
                    {"type": "string", "description": "Custom image name", "name": "name", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/admin/delete": {
            "post": {
                "description": "Remove a reference image from the database and the image directory",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["Image Database Management"],
                "summary": "Delete image",
                "parameters": [
                    {"type": "string", "description": "Stored filename, as returned by /admin/add", "name": "filename", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/admin/hello": {
            "get": {
                "description": "Test connection endpoint",
                "produces": ["application/json"],
                "tags": ["Image Database Management"],
                "summary": "Hello endpoint",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/admin/images": {
            "get": {
                "description": "List reference images in the database",
                "produces": ["application/json"],
                "tags": ["Image Database Management"],
                "summary": "List images",
                "parameters": [
                    {"type": "boolean", "description": "Include base64 thumbnails", "name": "thumbnails", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/database.ImageInfo"}}}
                }
            }
        },
        "/compare": {
            "post": {
                "description": "Hamming distance between two shaped hashes (\"WxH:hex\")",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["Hashing"],
                "summary": "Compare hashes",
                "parameters": [
                    {"type": "string", "description": "First shaped hash", "name": "hash1", "in": "formData", "required": true},
                    {"type": "string", "description": "Second shaped hash", "name": "hash2", "in": "formData", "required": true},
                    {"type": "number", "description": "Similarity threshold (0-100)", "name": "threshold", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.CompareResponse"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/hash": {
            "post": {
                "description": "Compute the perceptual hash of an uploaded image",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["Hashing"],
                "summary": "Hash image",
                "parameters": [
                    {"type": "file", "description": "Image file to hash", "name": "image", "in": "formData", "required": true},
                    {"type": "string", "description": "average, median, difference or perceptual", "name": "algorithm", "in": "formData"},
                    {"type": "integer", "description": "Hash width", "name": "width", "in": "formData"},
                    {"type": "integer", "description": "Hash height", "name": "height", "in": "formData"},
                    {"type": "integer", "description": "Perceptual upscale factor", "name": "factor", "in": "formData"},
                    {"type": "string", "description": "rec601 or rec709", "name": "color_space", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.HashResponse"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/recognize": {
            "post": {
                "description": "Compare uploaded image against database using hashing",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["Image Recognition"],
                "summary": "Recognize image",
                "parameters": [
                    {"type": "file", "description": "Image file to check", "name": "image", "in": "formData", "required": true},
                    {"type": "number", "description": "Similarity threshold (0-100)", "name": "threshold", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.RecognizeResponse"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        }
    },
    "definitions": {
        "database.ImageInfo": {
            "type": "object",
            "properties": {
                "added_at": {"type": "string"},
                "filename": {"type": "string"},
                "hash": {"type": "string"},
                "thumbnail": {"type": "string"}
            }
        },
        "handler.CompareResponse": {
            "type": "object",
            "properties": {
                "distance": {"type": "integer"},
                "match": {"type": "boolean"},
                "similarity": {"type": "number"}
            }
        },
        "handler.HashResponse": {
            "type": "object",
            "properties": {
                "algorithm": {"type": "string"},
                "hash": {"type": "string"},
                "height": {"type": "integer"},
                "processing_time_ms": {"type": "integer"},
                "shaped": {"type": "string"},
                "width": {"type": "integer"}
            }
        },
        "handler.RecognizeResponse": {
            "type": "object",
            "properties": {
                "distance": {"type": "integer"},
                "hash": {"type": "string"},
                "matched_image": {"type": "string"},
                "processing_time_ms": {"type": "integer"},
                "result": {"type": "string"},
                "similarity": {"type": "number"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Image Hash API",
	Description:      "Perceptual image hashing, hash comparison and near-duplicate recognition",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
