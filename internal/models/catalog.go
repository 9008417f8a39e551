package models

import "time"

// User represents a restaurant customer
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

const (
	RoleCustomer        = "ROLE_CUSTOMER"
	RoleAdmin           = "ROLE_ADMIN"
	RoleRestaurantOwner = "ROLE_RESTAURANT_OWNER"
)

// Restaurant is a venue that can be recommended while open.
type Restaurant struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	CuisineType string  `json:"cuisineType"`
	Open        bool    `json:"open"`
	Rating      float64 `json:"rating"`
	NumRating   int     `json:"numRating"`
}

// Food is a menu item that can be recommended while available.
type Food struct {
	ID           string  `json:"id"`
	RestaurantID string  `json:"restaurantId"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	Category     string  `json:"category"`
	Available    bool    `json:"available"`
	IsVegetarian bool    `json:"isVegetarian"`
	IsSeasonal   bool    `json:"isSeasonal"`
}

// FoodOrderCount pairs a food with how many order lines reference it.
type FoodOrderCount struct {
	Food  Food
	Count int
}
