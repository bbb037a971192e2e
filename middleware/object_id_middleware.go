package middleware

import (
	"socialhub/utils"

	"github.com/gin-gonic/gin"
)

// ObjectIDParams rejects requests whose named path parameters are not valid
// ObjectIDs and stores the parsed ids under the parameter names.
func ObjectIDParams(names ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, name := range names {
			id, err := utils.ValidateObjectID(name, c.Param(name))
			if err != nil {
				utils.BadRequestResponse(c, "Invalid resource ID", err.Error())
				c.Abort()
				return
			}
			c.Set(name, id)
		}
		c.Next()
	}
}
