package validators

import "go.mongodb.org/mongo-driver/bson"

var EmissionValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"booking_id",
			"idle_time",
			"emission_produced",
			"emission_saved",
			"recorded_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"booking_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"idle_time": bson.M{
				"bsonType": "int",
				"minimum":  0,
			},

			"emission_produced": bson.M{
				"bsonType": []string{"double", "int"},
				"minimum":  0,
			},

			"emission_saved": bson.M{
				"bsonType": []string{"double", "int"},
				"minimum":  0,
			},

			"recorded_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
