package models

import "time"

// HybridWeights represents the weights for the three recommendation signals
type HybridWeights struct {
	Collaborative float64 `json:"collaborative"`
	Content       float64 `json:"content"`
	Popularity    float64 `json:"popularity"`
}

// UserProfile is the taste profile induced from a user's orders and favorites.
type UserProfile struct {
	CuisineTypes   []string `json:"cuisineTypes"`
	FoodCategories []string `json:"foodCategories"`
	IsVegetarian   bool     `json:"isVegetarian"`
	IsSeasonal     bool     `json:"isSeasonal"`
	// HasDietarySignal is false when no ordered or favorited food backs the two biases.
	HasDietarySignal bool `json:"hasDietarySignal"`
}

// SimilarUser is another customer together with their similarity to the target.
type SimilarUser struct {
	UserID     string  `json:"userId"`
	Similarity float64 `json:"similarity"`
}

// ScoredItem is a fused recommendation before it is hydrated with catalog data.
type ScoredItem struct {
	Item          ItemRef  `json:"item"`
	Score         float64  `json:"score"`
	Confidence    float64  `json:"confidence"`
	Reasons       []string `json:"reasons"`
	Collaborative float64  `json:"collaborative"`
	Content       float64  `json:"content"`
	Popularity    float64  `json:"popularity"`
}

// Recommendation is a persisted recommendation row. Only the feedback flags
// change after creation.
type Recommendation struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Item         ItemRef   `json:"item"`
	Score        float64   `json:"score"`
	Confidence   float64   `json:"confidence"`
	Reasons      []string  `json:"reasons"`
	ModelVersion int       `json:"modelVersion"`
	CreatedAt    time.Time `json:"createdAt"`
	Shown        bool      `json:"shown"`
	Clicked      bool      `json:"clicked"`
	Ordered      bool      `json:"ordered"`
}

// Feedback names a flag on a stored recommendation.
type Feedback string

const (
	FeedbackShown   Feedback = "shown"
	FeedbackClicked Feedback = "clicked"
	FeedbackOrdered Feedback = "ordered"
)

// RecommendedRestaurant is a restaurant with its recommendation metadata.
type RecommendedRestaurant struct {
	Restaurant
	Score      float64  `json:"score"`
	Confidence float64  `json:"confidence"`
	Reasons    []string `json:"reasons"`
}

// RecommendedFood is a food with its recommendation metadata.
type RecommendedFood struct {
	Food
	Score      float64  `json:"score"`
	Confidence float64  `json:"confidence"`
	Reasons    []string `json:"reasons"`
}

// RecommendationSet is what a user receives.
type RecommendationSet struct {
	Restaurants []RecommendedRestaurant `json:"restaurants"`
	Foods       []RecommendedFood       `json:"foods"`
	IsFromCache bool                    `json:"isFromCache"`
}

// OrderCounter is the global order count since the last retraining reset.
type OrderCounter struct {
	Counter      int64     `json:"counter"`
	LastResetAt  time.Time `json:"lastResetAt"`
	ModelVersion int       `json:"modelVersion"`
}

// RetrainingStatus reports progress towards the next retraining reset.
type RetrainingStatus struct {
	CurrentCounter int64     `json:"currentCounter"`
	Threshold      int64     `json:"threshold"`
	LastResetAt    time.Time `json:"lastResetAt"`
	Progress       float64   `json:"progress"`
	ModelVersion   int       `json:"modelVersion"`
}
