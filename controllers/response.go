package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"bookstore/apperror"

	"github.com/gin-gonic/gin"
)

func respond(c *gin.Context, status int, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(status, body)
}

// fail writes the error envelope. Server-side failures are attached to the context so the
// request logger records the cause, which the client never sees.
func fail(c *gin.Context, err error) {
	status := apperror.StatusCode(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	body := gin.H{"success": false, "message": apperror.Message(err)}
	var appErr *apperror.Error
	if errors.As(err, &appErr) && len(appErr.Fields) > 0 {
		body["fields"] = appErr.Fields
	}
	c.JSON(status, body)
}

func intParam(c *gin.Context, name string) (int, error) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		return 0, apperror.Validation("Invalid %s", name)
	}
	return v, nil
}

func badBody(err error) error {
	return apperror.Validation("Invalid request body: %v", err)
}
