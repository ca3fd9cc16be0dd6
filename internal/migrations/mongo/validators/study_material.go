package validators

import "go.mongodb.org/mongo-driver/bson"

var StudyMaterialValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"tutor_id",
			"title",
			"subject",
			"url",
			"type",
			"shared_with",
			"is_public",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"tutor_id": hexID(),

			"title": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 200,
			},

			"url": bson.M{
				"bsonType": "string",
				"pattern":  "^https?://",
			},

			"type": enum("document", "video", "link", "worksheet", "other"),

			"shared_with": bson.M{
				"bsonType":    "array",
				"uniqueItems": true,
				"items":       hexID(),
			},

			"is_public": bson.M{
				"bsonType": "bool",
			},
		},
	},
}
