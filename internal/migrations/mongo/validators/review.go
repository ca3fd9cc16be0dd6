package validators

import "go.mongodb.org/mongo-driver/bson"

var ReviewValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"booking_id",
			"student_id",
			"tutor_id",
			"rating",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"booking_id": hexID(),
			"student_id": hexID(),
			"tutor_id":   hexID(),

			"rating": bson.M{
				"bsonType": "int",
				"minimum":  1,
				"maximum":  5,
			},

			"comment": bson.M{
				"bsonType":  "string",
				"maxLength": 2000,
			},

			"created_at": date(),
		},
	},
}
