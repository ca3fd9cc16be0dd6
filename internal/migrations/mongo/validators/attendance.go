package validators

import "go.mongodb.org/mongo-driver/bson"

var AttendanceValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"booking_id",
			"student_id",
			"tutor_id",
			"session_date",
			"status",
			"marked_by",
			"marked_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"booking_id": hexID(),
			"student_id": hexID(),
			"tutor_id":   hexID(),
			"marked_by":  hexID(),

			"session_date": date(),
			"marked_at":    date(),

			"status": enum("present", "absent", "late", "excused"),

			"notes": bson.M{
				"bsonType":  "string",
				"maxLength": 1000,
			},
		},
	},
}
