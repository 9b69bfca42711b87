package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Stundenplan API",
        "description": "Weekly timetable solving for Sekundarstufe I schools",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/v1/solve": {
            "post": {
                "summary": "Solve a weekly timetable synchronously",
                "responses": {
                    "200": {
                        "description": "Solution with feasibility and quality reports"
                    },
                    "422": {
                        "description": "Feasibility pre-check blocked the solve"
                    }
                }
            }
        },
        "/api/v1/solve/async": {
            "post": {
                "summary": "Enqueue a timetable solve as a background job",
                "responses": {
                    "202": {
                        "description": "Job accepted"
                    }
                }
            }
        },
        "/api/v1/validate": {
            "post": {
                "summary": "Run only the feasibility pre-check",
                "responses": {
                    "200": {
                        "description": "Feasibility report"
                    }
                }
            }
        },
        "/api/v1/scenarios": {
            "get": {
                "summary": "List stored scenarios",
                "responses": {
                    "200": {
                        "description": "Scenario names with newest versions"
                    }
                }
            },
            "post": {
                "summary": "Save a new scenario version",
                "responses": {
                    "201": {
                        "description": "Stored scenario"
                    }
                }
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
