package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yishak-cs/food-recommender/internal/models"
)

func TestRecordValueConversion(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "x", asString("x"))
	assert.Equal(t, "", asString(nil))
	assert.True(t, asBool(true))
	assert.False(t, asBool(nil))
	assert.EqualValues(t, 7, asInt64(int64(7)))
	assert.EqualValues(t, 0, asInt64("7"))
	assert.Equal(t, 2.5, asFloat(2.5))
	assert.Equal(t, 3.0, asFloat(int64(3)))
	assert.Equal(t, now, asTime(now))
	assert.True(t, asTime(nil).IsZero())
	assert.Equal(t, []string{"a", "b"}, asStrings([]interface{}{"a", nil, "b"}))
	assert.Nil(t, asStrings(nil))
}

func TestFoodFromRow(t *testing.T) {
	food := foodFromRow(map[string]interface{}{
		"id":            "f1",
		"restaurant_id": "r1",
		"name":          "Injera",
		"price":         int64(12),
		"category":      "Main",
		"available":     true,
		"is_vegetarian": true,
		"is_seasonal":   nil,
	})
	assert.Equal(t, models.Food{
		ID: "f1", RestaurantID: "r1", Name: "Injera", Price: 12, Category: "Main",
		Available: true, IsVegetarian: true,
	}, food)
}

func TestCounterFromRow(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	counter := counterFromRow(map[string]interface{}{
		"counter":       int64(4),
		"last_reset_at": at,
		"model_version": int64(3),
	})
	assert.Equal(t, models.OrderCounter{Counter: 4, LastResetAt: at, ModelVersion: 3}, counter)
	assert.Equal(t, models.OrderCounter{}, counterFromRow(nil))
}

func TestFlagProperty(t *testing.T) {
	for _, flag := range []models.Feedback{models.FeedbackShown, models.FeedbackClicked, models.FeedbackOrdered} {
		property, err := flagProperty(flag)
		require.NoError(t, err)
		assert.Equal(t, string(flag), property)
	}
	_, err := flagProperty("score = 0, rec.shown")
	assert.Error(t, err)
}
