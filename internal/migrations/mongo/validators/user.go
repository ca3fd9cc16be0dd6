package validators

import "go.mongodb.org/mongo-driver/bson"

var UserValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"name",
			"email",
			"password_hash",
			"role",
			"is_active",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"email": bson.M{
				"bsonType":  "string",
				"minLength": 3,
				"maxLength": 254,
			},

			"password_hash": bson.M{
				"bsonType":  "string",
				"minLength": 20,
			},

			"role": enum("student", "tutor", "admin"),

			"phone": bson.M{
				"bsonType": "string",
				"pattern":  `^\+[1-9]\d{6,14}$`,
			},

			"is_active": bson.M{
				"bsonType": "bool",
			},

			"created_at": date(),
			"updated_at": date(),
		},
	},
}
