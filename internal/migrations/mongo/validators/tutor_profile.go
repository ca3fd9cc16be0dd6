package validators

import "go.mongodb.org/mongo-driver/bson"

var TutorProfileValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"user_id",
			"subjects",
			"hourly_rate",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"user_id": hexID(),

			"subjects": bson.M{
				"bsonType": "array",
				"minItems": 1,
				"items": bson.M{
					"bsonType":  "string",
					"minLength": 2,
				},
			},

			"hourly_rate": bson.M{
				"bsonType": "number",
				"minimum":  0,
			},

			"experience_years": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
				"maximum":  60,
			},

			"status": enum("pending", "approved", "rejected"),

			"rating_average": bson.M{
				"bsonType": "number",
				"minimum":  0,
				"maximum":  5,
			},

			"rating_count": counter(),
			"rating_sum":   counter(),

			"created_at": date(),
		},
	},
}
