package calendar

import (
	"time"

	"github.com/gin-gonic/gin"

	"syncspace-backend/internal/domain"
	"syncspace-backend/pkg/pagination"
	"syncspace-backend/pkg/response"
)

func paginate(c *gin.Context) (limit, offset int) {
	p := pagination.ParseParams(c.Query("limit"), c.Query("offset"))
	return p.Limit, p.Offset
}

// statusFilter parses the optional ?status= query. A false return means an
// error response has already been written.
func statusFilter(c *gin.Context) (*domain.MeetingRequestStatus, bool) {
	raw := c.Query("status")
	if raw == "" {
		return nil, true
	}
	status := domain.MeetingRequestStatus(raw)
	switch status {
	case domain.MeetingRequestPending, domain.MeetingRequestApproved, domain.MeetingRequestDenied:
		return &status, true
	default:
		response.ValidationError(c, "Invalid status filter")
		return nil, false
	}
}

// timeWindow parses the required ?from= and ?to= RFC 3339 query parameters
func timeWindow(c *gin.Context) (from, to time.Time, ok bool) {
	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		response.ValidationError(c, "Invalid or missing 'from' time")
		return time.Time{}, time.Time{}, false
	}
	to, err = time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		response.ValidationError(c, "Invalid or missing 'to' time")
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}
