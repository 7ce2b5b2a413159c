package handler

import (
	"github.com/labstack/echo/v4"
)

// envelope is the success side of the response envelope.
type envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

func respond(c echo.Context, code int, data any) error {
	return c.JSON(code, envelope{Success: true, Data: data})
}

type countResponse struct {
	Count int `json:"count"`
}
