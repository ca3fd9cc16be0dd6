package validators

import "go.mongodb.org/mongo-driver/bson"

var CurrentTutorValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"student_id",
			"tutor_id",
			"subject",
			"status",
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
			},

			"status": enum("active", "inactive"),

			"total_sessions_booked":    counter(),
			"total_sessions_completed": counter(),
			"total_sessions_cancelled": counter(),
			"total_sessions_attended":  counter(),
			"total_sessions_missed":    counter(),
		},
	},
}
