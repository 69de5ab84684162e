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

// FastReturnResult pairs a finished batch with a message, reported under "error" when failed is set.
func FastReturnResult(msg string, failed bool, result any) gin.H {
	key := "message"
	if failed {
		key = "error"
	}
	return gin.H{
		key:      msg,
		"result": result,
	}
}
