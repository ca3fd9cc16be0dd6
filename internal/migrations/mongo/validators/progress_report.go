package validators

import "go.mongodb.org/mongo-driver/bson"

var ProgressReportValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"student_id",
			"tutor_id",
			"subject",
			"period_start",
			"period_end",
			"progress_rating",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"student_id": hexID(),
			"tutor_id":   hexID(),

			"period_start": date(),
			"period_end":   date(),

			"progress_rating": bson.M{
				"bsonType": "int",
				"minimum":  1,
				"maximum":  5,
			},

			"goals": bson.M{
				"bsonType": "array",
				"maxItems": 20,
				"items": bson.M{
					"bsonType": "string",
				},
			},

			"sessions_completed": counter(),
			"sessions_attended":  counter(),

			"created_at": date(),
		},
	},
}
