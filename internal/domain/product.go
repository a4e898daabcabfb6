package domain

import "time"

type Product struct {
	ID          int64     `bson:"_id"`
	Title       string    `bson:"title"`
	Price       float64   `bson:"price"`
	Description string    `bson:"description"`
	ImageURL    string    `bson:"image_url"`
	OwnerID     int64     `bson:"owner_id"`
	CreatedAt   time.Time `bson:"created_at"`
}
