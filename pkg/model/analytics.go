package model

type CountByKey struct {
	Key   string `json:"key" bson:"_id"`
	Count int64  `json:"count" bson:"count"`
}

type Analytics struct {
	UsersByRole           map[string]int64 `json:"users_by_role"`
	TutorProfilesByStatus map[string]int64 `json:"tutor_profiles_by_status"`
	BookingsByStatus      map[string]int64 `json:"bookings_by_status"`
	TotalReviews          int64            `json:"total_reviews"`
	AverageRating         float64          `json:"average_rating"`
	TopSubjects           []CountByKey     `json:"top_subjects"`
	BookingsPerDay        []CountByKey     `json:"bookings_per_day"`
}

type ReviewStats struct {
	Total   int64   `bson:"total"`
	Average float64 `bson:"average"`
}
