package validators

import "go.mongodb.org/mongo-driver/bson"

var FavoriteValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"student_id", "tutor_id", "created_at"},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"student_id": hexID(),
			"tutor_id":   hexID(),
			"created_at": date(),
		},
	},
}
