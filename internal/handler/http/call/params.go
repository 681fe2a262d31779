package call

import (
	"github.com/gin-gonic/gin"

	"syncspace-backend/pkg/pagination"
)

func paginate(c *gin.Context) (limit, offset int) {
	p := pagination.ParseParams(c.Query("limit"), c.Query("offset"))
	return p.Limit, p.Offset
}
