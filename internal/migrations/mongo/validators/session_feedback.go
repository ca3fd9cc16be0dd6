package validators

import "go.mongodb.org/mongo-driver/bson"

var SessionFeedbackValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"booking_id",
			"tutor_id",
			"student_id",
			"tutor_feedback",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"booking_id": hexID(),
			"tutor_id":   hexID(),
			"student_id": hexID(),

			"tutor_feedback": bson.M{
				"bsonType": "object",
				"required": []string{"summary"},
				"properties": bson.M{
					"summary": bson.M{
						"bsonType":  "string",
						"minLength": 1,
					},
				},
			},

			"student_feedback": bson.M{
				"bsonType": "object",
				"required": []string{"rating"},
				"properties": bson.M{
					"rating": bson.M{
						"bsonType": "int",
						"minimum":  1,
						"maximum":  5,
					},
				},
			},

			"homework": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"id", "title", "status"},
					"properties": bson.M{
						"status": enum("assigned", "submitted", "reviewed"),
					},
				},
			},

			"created_at": date(),
			"version":    counter(),
		},
	},
}
