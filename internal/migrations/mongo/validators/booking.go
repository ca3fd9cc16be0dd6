package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"student_id",
			"tutor_id",
			"subject",
			"start_time",
			"end_time",
			"duration_minutes",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"student_id": hexID(),
			"tutor_id":   hexID(),

			"subject": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 60,
			},

			"start_time": date(),
			"end_time":   date(),

			"duration_minutes": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  15,
				"maximum":  480,
			},

			"status": enum("pending", "approved", "rejected", "cancelled", "completed"),

			"created_at": date(),
		},
	},
}
