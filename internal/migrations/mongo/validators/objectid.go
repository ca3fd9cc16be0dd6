package validators

import "go.mongodb.org/mongo-driver/bson"

// Cross-collection references are stored as 24 character hex strings.
func hexID() bson.M {
	return bson.M{
		"bsonType":  "string",
		"minLength": 24,
		"maxLength": 24,
	}
}

func date() bson.M {
	return bson.M{"bsonType": "date"}
}

func enum(values ...string) bson.M {
	return bson.M{
		"bsonType": "string",
		"enum":     values,
	}
}

func counter() bson.M {
	return bson.M{
		"bsonType": []string{"int", "long"},
		"minimum":  0,
	}
}
