package response

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Err is the body of every error response.
type Err struct {
	Err            error  `json:"-"`
	HTTPStatusCode int    `json:"-"`
	StatusText     string `json:"status"`
	AppCode        int64  `json:"code,omitempty"`
	ErrorText      string `json:"error,omitempty"`
}

func (e *Err) Error() string {
	if e.Err == nil {
		return e.StatusText
	}

	return e.Err.Error()
}

func RenderErr(ctx *gin.Context, e *Err) {
	fields := []zap.Field{
		zap.String("request_id", requestid.Get(ctx)),
		zap.String("path", ctx.FullPath()),
		zap.Int("status", e.HTTPStatusCode),
		zap.Error(e.Err),
	}
	if e.HTTPStatusCode >= http.StatusInternalServerError {
		zap.L().Error("request failed", fields...)
	} else {
		zap.L().Info("request rejected", fields...)
	}

	ctx.JSON(e.HTTPStatusCode, e)
}

func newErr(err error, status int) *Err {
	return &Err{
		Err:            err,
		HTTPStatusCode: status,
		StatusText:     http.StatusText(status),
		ErrorText:      err.Error(),
	}
}

func ErrBadRequest(err error) *Err {
	return newErr(err, http.StatusBadRequest)
}

func ErrNotFound(resource, key string, value any) *Err {
	return newErr(fmt.Errorf("%s with %s %v not found", resource, key, value), http.StatusNotFound)
}

func ErrConflict(err error) *Err {
	return newErr(err, http.StatusConflict)
}

func ErrUnauthorized(err error) *Err {
	return newErr(err, http.StatusUnauthorized)
}

func ErrWrongCredentials(err error) *Err {
	e := newErr(err, http.StatusUnauthorized)
	e.ErrorText = "wrong email or password"

	return e
}

func ErrPermissionDenied(err error) *Err {
	return newErr(err, http.StatusForbidden)
}

func ErrTooManyRequests(err error) *Err {
	return newErr(err, http.StatusTooManyRequests)
}

// ErrInternalServerError hides err from the client; it is only logged.
func ErrInternalServerError(err error) *Err {
	e := newErr(err, http.StatusInternalServerError)
	e.ErrorText = "internal server error"

	return e
}
