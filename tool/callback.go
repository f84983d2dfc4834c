package tool

import (
	"github.com/gin-gonic/gin"
)

func FastReturnError(msg string) gin.H {
	return gin.H{
		"error": msg,
	}
}

func FastReturnSuccess() gin.H {
	return gin.H{
		"status": "ok",
	}
}

func FastReturnSuccessWithData(data any) gin.H {
	return gin.H{
		"data": data,
	}
}

// FastReturnFailure carries the error kind next to the message so the UI never parses text.
func FastReturnFailure(kind, msg string, data any) gin.H {
	resp := gin.H{
		"error": msg,
		"kind":  kind,
	}
	if data != nil {
		resp["data"] = data
	}
	return resp
}
