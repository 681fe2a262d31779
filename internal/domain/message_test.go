package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalculateBucket(t *testing.T) {
	assert.Equal(t, 202608, CalculateBucket(time.Date(2026, 8, 31, 23, 59, 0, 0, time.UTC)))
	assert.Equal(t, 202609, CalculateBucket(time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 202612, CalculateBucket(time.Date(2026, 12, 15, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, 202701, CalculateBucket(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)))
}
